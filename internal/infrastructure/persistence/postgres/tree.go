package postgres

import (
	"fmt"

	"github.com/alem-hub/school-report/internal/domain/school"
	"github.com/alem-hub/school-report/internal/domain/shared"
)

// treeRow is one row of the flattened school query. Every level below the
// grade is nullable because of the LEFT JOINs: a grade without courses, a
// course without students and so on still produce a row.
type treeRow struct {
	Stage       string
	Grade       string
	CourseID    *int64
	Course      *string
	StudentID   *int64
	StudentName *string
	Gender      *string
	RecordID    *int64
	Subject     *string
	Score       *float64
}

// assembleSchool rebuilds the tree from rows sorted by stage, then by the
// position of every level. Consecutive rows sharing an id extend the same node.
func assembleSchool(rows []treeRow) (*school.School, error) {
	stages := map[school.StageName]*school.Stage{
		school.StagePrimaria:   {Name: school.StagePrimaria},
		school.StageSecundaria: {Name: school.StageSecundaria},
	}

	var lastGrade string
	var lastCourse, lastStudent, lastRecord int64

	for _, r := range rows {
		stage, ok := stages[school.StageName(r.Stage)]
		if !ok {
			return nil, corrupt(fmt.Sprintf("unknown stage %q", r.Stage))
		}

		if key := r.Stage + "/" + r.Grade; key != lastGrade {
			stage.Grades = append(stage.Grades, school.Grade{Name: r.Grade})
			lastGrade = key
			lastCourse, lastStudent, lastRecord = 0, 0, 0
		}
		grade := &stage.Grades[len(stage.Grades)-1]

		if r.CourseID == nil {
			continue
		}
		if *r.CourseID != lastCourse {
			grade.Courses = append(grade.Courses, school.Course{Label: deref(r.Course)})
			lastCourse = *r.CourseID
			lastStudent, lastRecord = 0, 0
		}
		course := &grade.Courses[len(grade.Courses)-1]

		if r.StudentID == nil {
			continue
		}
		if *r.StudentID != lastStudent {
			gender, err := school.ParseGender(deref(r.Gender))
			if err != nil {
				return nil, corrupt(fmt.Sprintf("student %d: %v", *r.StudentID, err))
			}
			course.Students = append(course.Students, school.Student{Name: deref(r.StudentName), Gender: gender})
			lastStudent = *r.StudentID
			lastRecord = 0
		}
		student := &course.Students[len(course.Students)-1]

		if r.RecordID == nil {
			continue
		}
		if *r.RecordID != lastRecord {
			student.Subjects = append(student.Subjects, school.SubjectRecord{Subject: deref(r.Subject)})
			lastRecord = *r.RecordID
		}
		record := &student.Subjects[len(student.Subjects)-1]

		if r.Score != nil {
			record.Scores = append(record.Scores, *r.Score)
		}
	}

	return school.New(*stages[school.StagePrimaria], *stages[school.StageSecundaria])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func corrupt(message string) error {
	return shared.NewDomainError("postgres", "LoadSchool", shared.ErrInvalidFormat, message)
}
