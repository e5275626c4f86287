package school

import (
	"fmt"
	"math"
	"strings"

	"github.com/alem-hub/school-report/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// StageName identifies an educational stage.
type StageName string

const (
	// StagePrimaria is the primary school stage.
	StagePrimaria StageName = "primaria"
	// StageSecundaria is the secondary school stage.
	StageSecundaria StageName = "secundaria"
)

// StageNames lists the recognized stages in traversal order.
var StageNames = []StageName{StagePrimaria, StageSecundaria}

// IsValid reports whether the stage name is one of the two recognized stages.
func (n StageName) IsValid() bool {
	return n == StagePrimaria || n == StageSecundaria
}

// String returns the stage name.
func (n StageName) String() string {
	return string(n)
}

// Gender is the gender tag carried by a student record.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Genders lists the recognized gender tags.
var Genders = []Gender{GenderMale, GenderFemale}

// ParseGender parses a gender tag, case-insensitively.
func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	default:
		return "", shared.NewDomainError("school", "ParseGender", shared.ErrInvalidInput,
			fmt.Sprintf("unknown gender %q", s))
	}
}

// IsValid reports whether the gender tag is recognized.
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Other returns the complementary tag of the binary gender model.
func (g Gender) Other() Gender {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// SubjectRecord holds a student's checkpoint scores for one subject.
// A record with no scores means the subject was not taken.
type SubjectRecord struct {
	Subject string
	Scores  []float64
}

// Taken reports whether the record holds at least one score.
func (r SubjectRecord) Taken() bool {
	return len(r.Scores) > 0
}

// Student is a single pupil. Name is a display label and is not unique.
type Student struct {
	Name     string
	Gender   Gender
	Subjects []SubjectRecord
}

// ScoresIn returns the student's scores in subject. The second result is
// false when the student has no scores recorded for it.
func (s *Student) ScoresIn(subject string) ([]float64, bool) {
	for _, rec := range s.Subjects {
		if rec.Subject == subject {
			return rec.Scores, rec.Taken()
		}
	}
	return nil, false
}

// Course is a section within a grade.
type Course struct {
	Label    string
	Students []Student
}

// Grade is a year level within a stage.
type Grade struct {
	Name    string
	Courses []Course
}

// Stage is an ordered mapping from grade name to the courses of that grade.
type Stage struct {
	Name   StageName
	Grades []Grade
}

// GradeNames returns the stage's grade keys in order.
func (s *Stage) GradeNames() []string {
	names := make([]string, 0, len(s.Grades))
	for _, g := range s.Grades {
		names = append(names, g.Name)
	}
	return names
}

// School is the root of the dataset. It always holds both stages.
type School struct {
	primaria   Stage
	secundaria Stage
}

// New assembles a School from its two stages and checks the structural
// invariants of the tree. The stages are taken by value; callers must not
// retain and modify the slices they passed in.
func New(primaria, secundaria Stage) (*School, error) {
	primaria.Name = StagePrimaria
	secundaria.Name = StageSecundaria

	for _, st := range []*Stage{&primaria, &secundaria} {
		if err := st.validate(); err != nil {
			return nil, err
		}
	}

	return &School{primaria: primaria, secundaria: secundaria}, nil
}

// Stages returns both stages in traversal order.
func (s *School) Stages() []*Stage {
	return []*Stage{&s.primaria, &s.secundaria}
}

func (s *Stage) validate() error {
	seenGrades := make(map[string]struct{}, len(s.Grades))
	for _, g := range s.Grades {
		if strings.TrimSpace(g.Name) == "" {
			return invalid(fmt.Sprintf("stage %s: empty grade name", s.Name))
		}
		if _, dup := seenGrades[g.Name]; dup {
			return invalid(fmt.Sprintf("stage %s: duplicate grade %q", s.Name, g.Name))
		}
		seenGrades[g.Name] = struct{}{}

		seenCourses := make(map[string]struct{}, len(g.Courses))
		for _, c := range g.Courses {
			if strings.TrimSpace(c.Label) == "" {
				return invalid(fmt.Sprintf("%s/%s: empty course label", s.Name, g.Name))
			}
			if _, dup := seenCourses[c.Label]; dup {
				return invalid(fmt.Sprintf("%s/%s: duplicate course %q", s.Name, g.Name, c.Label))
			}
			seenCourses[c.Label] = struct{}{}

			for i := range c.Students {
				if err := c.Students[i].validate(); err != nil {
					return invalid(fmt.Sprintf("%s/%s/%s: %v", s.Name, g.Name, c.Label, err))
				}
			}
		}
	}
	return nil
}

func (s *Student) validate() error {
	if !s.Gender.IsValid() {
		return fmt.Errorf("student %q: unknown gender %q", s.Name, s.Gender)
	}
	seen := make(map[string]struct{}, len(s.Subjects))
	for _, rec := range s.Subjects {
		if _, dup := seen[rec.Subject]; dup {
			return fmt.Errorf("student %q: duplicate subject %q", s.Name, rec.Subject)
		}
		seen[rec.Subject] = struct{}{}

		for _, v := range rec.Scores {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("student %q: subject %q has non-finite score %v", s.Name, rec.Subject, v)
			}
		}
	}
	return nil
}

func invalid(message string) error {
	return shared.NewDomainError("school", "New", shared.ErrInvalidFormat, message)
}
