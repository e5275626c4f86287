// Package schooltest provides a small, hand-computed dataset for tests.
package schooltest

import "github.com/alem-hub/school-report/internal/domain/school"

// Fixture returns a fresh School with known statistics:
//
//	primaria/primero/A: Ana(F) fisica[4 5] historia[3]; Luis(M) fisica[2 3] historia[4 4]
//	primaria/primero/B: Sofia(F) fisica[5] historia[5 4]
//	primaria/segundo/A: Pedro(M) fisica[3] historia[]
//	primaria/segundo/B: (no students)
//	primaria/tercero:   (no courses)
//	secundaria/primero/A: Marta(F) fisica[4.5 4.5] quimica[4]; Juan(M) quimica[2]
func Fixture() *school.School {
	primaria := school.Stage{
		Grades: []school.Grade{
			{
				Name: "primero",
				Courses: []school.Course{
					{Label: "A", Students: []school.Student{
						student("Ana", school.GenderFemale, rec("fisica", 4, 5), rec("historia", 3)),
						student("Luis", school.GenderMale, rec("fisica", 2, 3), rec("historia", 4, 4)),
					}},
					{Label: "B", Students: []school.Student{
						student("Sofia", school.GenderFemale, rec("fisica", 5), rec("historia", 5, 4)),
					}},
				},
			},
			{
				Name: "segundo",
				Courses: []school.Course{
					{Label: "A", Students: []school.Student{
						student("Pedro", school.GenderMale, rec("fisica", 3), rec("historia")),
					}},
					{Label: "B"},
				},
			},
			{Name: "tercero"},
		},
	}

	secundaria := school.Stage{
		Grades: []school.Grade{
			{
				Name: "primero",
				Courses: []school.Course{
					{Label: "A", Students: []school.Student{
						student("Marta", school.GenderFemale, rec("fisica", 4.5, 4.5), rec("quimica", 4)),
						student("Juan", school.GenderMale, rec("quimica", 2)),
					}},
				},
			},
		},
	}

	s, err := school.New(primaria, secundaria)
	if err != nil {
		panic(err)
	}
	return s
}

// Single returns a School whose only students are the given ones, placed in
// primaria/primero/A.
func Single(students ...school.Student) *school.School {
	s, err := school.New(
		school.Stage{Grades: []school.Grade{{
			Name:    "primero",
			Courses: []school.Course{{Label: "A", Students: students}},
		}}},
		school.Stage{},
	)
	if err != nil {
		panic(err)
	}
	return s
}

// Student builds a student record.
func Student(name string, gender school.Gender, subjects ...school.SubjectRecord) school.Student {
	return student(name, gender, subjects...)
}

// Record builds a subject record.
func Record(subject string, scores ...float64) school.SubjectRecord {
	return rec(subject, scores...)
}

func student(name string, gender school.Gender, subjects ...school.SubjectRecord) school.Student {
	return school.Student{Name: name, Gender: gender, Subjects: subjects}
}

func rec(subject string, scores ...float64) school.SubjectRecord {
	return school.SubjectRecord{Subject: subject, Scores: scores}
}
