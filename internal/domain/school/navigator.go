package school

import (
	"fmt"

	"github.com/alem-hub/school-report/internal/domain/shared"
)

// ResolveStage returns the stage named name.
func (s *School) ResolveStage(name StageName) (*Stage, error) {
	switch name {
	case StagePrimaria:
		return &s.primaria, nil
	case StageSecundaria:
		return &s.secundaria, nil
	default:
		return nil, shared.NewDomainError("school", "ResolveStage", shared.ErrNotFound,
			fmt.Sprintf("stage %q not found", name))
	}
}

// ResolveGrade returns the courses of the grade named name.
func (s *Stage) ResolveGrade(name string) ([]Course, error) {
	for i := range s.Grades {
		if s.Grades[i].Name == name {
			return s.Grades[i].Courses, nil
		}
	}
	return nil, shared.NewDomainError("school", "ResolveGrade", shared.ErrNotFound,
		fmt.Sprintf("grade %q not found in stage %s", name, s.Name))
}

// ResolveCourse returns the roster of the course labelled label in grade.
func (s *Stage) ResolveCourse(grade, label string) ([]Student, error) {
	courses, err := s.ResolveGrade(grade)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		if courses[i].Label == label {
			return courses[i].Students, nil
		}
	}
	return nil, shared.NewDomainError("school", "ResolveCourse", shared.ErrNotFound,
		fmt.Sprintf("course %q not found in %s/%s", label, s.Name, grade))
}
