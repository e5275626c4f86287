package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alem-hub/school-report/internal/domain/school"
	"github.com/alem-hub/school-report/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to domain transformations
// ══════════════════════════════════════════════════════════════════════════════

// SchoolFromDTO converts a decoded file into a School. Both stages must be
// present and no other stage key is allowed.
func SchoolFromDTO(dto *FileDTO) (*school.School, error) {
	if dto == nil || dto.School == nil {
		return nil, malformed("missing \"school\" section")
	}

	var unknown []string
	for key := range dto.School {
		if !school.StageName(key).IsValid() {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, malformed(fmt.Sprintf("unknown stages: %s", strings.Join(unknown, ", ")))
	}

	stages := make([]school.Stage, 0, len(school.StageNames))
	for _, name := range school.StageNames {
		grades, ok := dto.School[string(name)]
		if !ok {
			return nil, malformed(fmt.Sprintf("missing stage %q", name))
		}
		stage, err := stageFromDTO(name, grades)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}

	return school.New(stages[0], stages[1])
}

func stageFromDTO(name school.StageName, grades []GradeDTO) (school.Stage, error) {
	stage := school.Stage{Name: name, Grades: make([]school.Grade, 0, len(grades))}
	for _, g := range grades {
		grade := school.Grade{Name: g.Grade, Courses: make([]school.Course, 0, len(g.Courses))}
		for _, c := range g.Courses {
			course := school.Course{Label: c.Label, Students: make([]school.Student, 0, len(c.Students))}
			for _, s := range c.Students {
				st, err := studentFromDTO(s)
				if err != nil {
					return school.Stage{}, malformed(fmt.Sprintf("%s/%s/%s: %v", name, g.Grade, c.Label, err))
				}
				course.Students = append(course.Students, st)
			}
			grade.Courses = append(grade.Courses, course)
		}
		stage.Grades = append(stage.Grades, grade)
	}
	return stage, nil
}

func studentFromDTO(dto StudentDTO) (school.Student, error) {
	gender, err := school.ParseGender(dto.Gender)
	if err != nil {
		return school.Student{}, fmt.Errorf("student %q: %w", dto.Name, err)
	}

	subjects := make([]school.SubjectRecord, 0, len(dto.Subjects))
	for _, s := range dto.Subjects {
		scores := make([]float64, len(s.Scores))
		copy(scores, s.Scores)
		subjects = append(subjects, school.SubjectRecord{Subject: s.Subject, Scores: scores})
	}

	return school.Student{Name: dto.Name, Gender: gender, Subjects: subjects}, nil
}

// DTOFromSchool converts a School back into its file representation.
func DTOFromSchool(s *school.School) *FileDTO {
	dto := &FileDTO{School: make(map[string][]GradeDTO, len(school.StageNames))}
	for _, stage := range s.Stages() {
		grades := make([]GradeDTO, 0, len(stage.Grades))
		for _, g := range stage.Grades {
			gd := GradeDTO{Grade: g.Name, Courses: make([]CourseDTO, 0, len(g.Courses))}
			for _, c := range g.Courses {
				cd := CourseDTO{Label: c.Label, Students: make([]StudentDTO, 0, len(c.Students))}
				for _, st := range c.Students {
					sd := StudentDTO{Name: st.Name, Gender: string(st.Gender)}
					for _, rec := range st.Subjects {
						sd.Subjects = append(sd.Subjects, SubjectDTO{Subject: rec.Subject, Scores: rec.Scores})
					}
					cd.Students = append(cd.Students, sd)
				}
				gd.Courses = append(gd.Courses, cd)
			}
			grades = append(grades, gd)
		}
		dto.School[string(stage.Name)] = grades
	}
	return dto
}

func malformed(message string) error {
	return shared.NewDomainError("dataset", "Decode", shared.ErrInvalidFormat, message)
}
