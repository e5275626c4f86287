// Package dataset reads a school dataset from YAML or JSON and builds the
// in-memory school tree.
package dataset

// ══════════════════════════════════════════════════════════════════════════════
// FILE DTOs
// JSON documents are accepted too since they are valid YAML.
// ══════════════════════════════════════════════════════════════════════════════

// FileDTO is the document root.
type FileDTO struct {
	// School maps stage name ("primaria", "secundaria") to its grades.
	School map[string][]GradeDTO `yaml:"school" json:"school"`
}

// GradeDTO is one grade of a stage, in file order.
type GradeDTO struct {
	Grade   string      `yaml:"grade" json:"grade"`
	Courses []CourseDTO `yaml:"courses" json:"courses"`
}

// CourseDTO is one course of a grade.
type CourseDTO struct {
	Label    string       `yaml:"label" json:"label"`
	Students []StudentDTO `yaml:"students" json:"students"`
}

// StudentDTO is one student record.
type StudentDTO struct {
	Name     string       `yaml:"name" json:"name"`
	Gender   string       `yaml:"gender" json:"gender"`
	Subjects []SubjectDTO `yaml:"subjects" json:"subjects"`
}

// SubjectDTO holds the checkpoint scores of one subject.
type SubjectDTO struct {
	Subject string    `yaml:"subject" json:"subject"`
	Scores  []float64 `yaml:"scores" json:"scores"`
}
