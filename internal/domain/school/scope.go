package school

import (
	"fmt"
	"strings"

	"github.com/alem-hub/school-report/internal/domain/shared"
)

// Level is the depth of the hierarchy a Scope points at.
type Level int

const (
	LevelSchool Level = iota
	LevelStage
	LevelGrade
	LevelCourse
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelSchool:
		return "school"
	case LevelStage:
		return "stage"
	case LevelGrade:
		return "grade"
	case LevelCourse:
		return "course"
	default:
		return "unknown"
	}
}

// Scope selects the part of the hierarchy a query is evaluated over.
// The zero value is the whole school.
type Scope struct {
	Stage  StageName
	Grade  string
	Course string
}

// SchoolScope selects the whole school.
func SchoolScope() Scope { return Scope{} }

// StageScope selects one stage.
func StageScope(stage StageName) Scope { return Scope{Stage: stage} }

// GradeScope selects one grade of a stage.
func GradeScope(stage StageName, grade string) Scope {
	return Scope{Stage: stage, Grade: grade}
}

// CourseScope selects one course of a grade.
func CourseScope(stage StageName, grade, course string) Scope {
	return Scope{Stage: stage, Grade: grade, Course: course}
}

// ParseScope parses "", "primaria", "primaria/segundo" or
// "primaria/segundo/A". The result is not resolved against a dataset.
func ParseScope(s string) (Scope, error) {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "" || s == "school" {
		return SchoolScope(), nil
	}

	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return Scope{}, shared.NewDomainError("school", "ParseScope", shared.ErrInvalidInput,
			fmt.Sprintf("scope %q has too many segments", s))
	}

	var scope Scope
	scope.Stage = StageName(parts[0])
	if len(parts) > 1 {
		scope.Grade = parts[1]
	}
	if len(parts) > 2 {
		scope.Course = parts[2]
	}
	return scope, scope.Validate()
}

// Level returns the depth the scope points at.
func (sc Scope) Level() Level {
	switch {
	case sc.Stage == "":
		return LevelSchool
	case sc.Grade == "":
		return LevelStage
	case sc.Course == "":
		return LevelGrade
	default:
		return LevelCourse
	}
}

// Validate checks that the scope does not skip a level.
func (sc Scope) Validate() error {
	if sc.Stage == "" && (sc.Grade != "" || sc.Course != "") {
		return shared.NewDomainError("school", "Scope", shared.ErrInvalidInput, "grade or course given without a stage")
	}
	if sc.Grade == "" && sc.Course != "" {
		return shared.NewDomainError("school", "Scope", shared.ErrInvalidInput, "course given without a grade")
	}
	return nil
}

// String returns the slash-separated form accepted by ParseScope.
func (sc Scope) String() string {
	switch sc.Level() {
	case LevelSchool:
		return "school"
	case LevelStage:
		return string(sc.Stage)
	case LevelGrade:
		return string(sc.Stage) + "/" + sc.Grade
	default:
		return string(sc.Stage) + "/" + sc.Grade + "/" + sc.Course
	}
}

// Placement locates a student in the hierarchy.
type Placement struct {
	Stage  StageName
	Grade  string
	Course string
}

// Walk calls fn for every student in scope, in traversal order. Unknown
// stage, grade or course keys fail with a NotFound error before fn is called.
func (s *School) Walk(scope Scope, fn func(Placement, *Student)) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	if scope.Level() == LevelSchool {
		for _, st := range s.Stages() {
			st.walk(fn)
		}
		return nil
	}

	stage, err := s.ResolveStage(scope.Stage)
	if err != nil {
		return err
	}

	switch scope.Level() {
	case LevelStage:
		stage.walk(fn)
	case LevelGrade:
		courses, err := stage.ResolveGrade(scope.Grade)
		if err != nil {
			return err
		}
		for i := range courses {
			walkCourse(Placement{Stage: stage.Name, Grade: scope.Grade, Course: courses[i].Label}, courses[i].Students, fn)
		}
	case LevelCourse:
		students, err := stage.ResolveCourse(scope.Grade, scope.Course)
		if err != nil {
			return err
		}
		walkCourse(Placement{Stage: stage.Name, Grade: scope.Grade, Course: scope.Course}, students, fn)
	}
	return nil
}

func (s *Stage) walk(fn func(Placement, *Student)) {
	for gi := range s.Grades {
		g := &s.Grades[gi]
		for ci := range g.Courses {
			c := &g.Courses[ci]
			walkCourse(Placement{Stage: s.Name, Grade: g.Name, Course: c.Label}, c.Students, fn)
		}
	}
}

func walkCourse(p Placement, students []Student, fn func(Placement, *Student)) {
	for i := range students {
		fn(p, &students[i])
	}
}
