package school_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/school-report/internal/domain/school"
	"github.com/alem-hub/school-report/internal/domain/school/schooltest"
	"github.com/alem-hub/school-report/internal/domain/shared"
)

func TestResolveStage(t *testing.T) {
	s := schooltest.Fixture()

	stage, err := s.ResolveStage(school.StagePrimaria)
	require.NoError(t, err)
	assert.Equal(t, school.StagePrimaria, stage.Name)
	assert.Equal(t, []string{"primero", "segundo", "tercero"}, stage.GradeNames())

	stage, err = s.ResolveStage(school.StageSecundaria)
	require.NoError(t, err)
	assert.Equal(t, []string{"primero"}, stage.GradeNames())

	_, err = s.ResolveStage("bachillerato")
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestResolveGrade(t *testing.T) {
	stage, err := schooltest.Fixture().ResolveStage(school.StagePrimaria)
	require.NoError(t, err)

	courses, err := stage.ResolveGrade("primero")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "A", courses[0].Label)
	assert.Equal(t, "B", courses[1].Label)

	courses, err = stage.ResolveGrade("tercero")
	require.NoError(t, err)
	assert.Empty(t, courses)

	_, err = stage.ResolveGrade("quinto")
	assert.True(t, shared.IsNotFound(err))
}

func TestResolveCourse(t *testing.T) {
	stage, err := schooltest.Fixture().ResolveStage(school.StagePrimaria)
	require.NoError(t, err)

	students, err := stage.ResolveCourse("primero", "A")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ana", students[0].Name)
	assert.Equal(t, "Luis", students[1].Name)

	_, err = stage.ResolveCourse("primero", "Z")
	assert.True(t, shared.IsNotFound(err))

	_, err = stage.ResolveCourse("quinto", "A")
	assert.True(t, shared.IsNotFound(err))
}

func TestGradeKeysAreStageScoped(t *testing.T) {
	s := schooltest.Fixture()

	prim, err := s.ResolveStage(school.StagePrimaria)
	require.NoError(t, err)
	sec, err := s.ResolveStage(school.StageSecundaria)
	require.NoError(t, err)

	primStudents, err := prim.ResolveCourse("primero", "A")
	require.NoError(t, err)
	secStudents, err := sec.ResolveCourse("primero", "A")
	require.NoError(t, err)

	assert.Equal(t, "Ana", primStudents[0].Name)
	assert.Equal(t, "Marta", secStudents[0].Name)
}

func TestStudent_ScoresIn(t *testing.T) {
	st := schooltest.Student("X", school.GenderMale,
		schooltest.Record("math", 5, 7),
		schooltest.Record("art"),
	)

	scores, ok := st.ScoresIn("math")
	assert.True(t, ok)
	assert.Equal(t, []float64{5, 7}, scores)

	_, ok = st.ScoresIn("art")
	assert.False(t, ok)

	_, ok = st.ScoresIn("music")
	assert.False(t, ok)
}

func TestNew_RejectsMalformedTree(t *testing.T) {
	tests := []struct {
		name  string
		stage school.Stage
	}{
		{
			name: "duplicate grade",
			stage: school.Stage{Grades: []school.Grade{
				{Name: "primero"}, {Name: "primero"},
			}},
		},
		{
			name: "duplicate course",
			stage: school.Stage{Grades: []school.Grade{
				{Name: "primero", Courses: []school.Course{{Label: "A"}, {Label: "A"}}},
			}},
		},
		{
			name: "empty course label",
			stage: school.Stage{Grades: []school.Grade{
				{Name: "primero", Courses: []school.Course{{Label: " "}}},
			}},
		},
		{
			name: "unknown gender",
			stage: school.Stage{Grades: []school.Grade{
				{Name: "primero", Courses: []school.Course{{Label: "A", Students: []school.Student{
					{Name: "Ana", Gender: "x"},
				}}}},
			}},
		},
		{
			name: "duplicate subject",
			stage: school.Stage{Grades: []school.Grade{
				{Name: "primero", Courses: []school.Course{{Label: "A", Students: []school.Student{
					schooltest.Student("Ana", school.GenderFemale,
						schooltest.Record("fisica", 1), schooltest.Record("fisica", 2)),
				}}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := school.New(tt.stage, school.Stage{})
			require.Error(t, err)
			assert.True(t, shared.IsInvalidFormat(err))
		})
	}
}

func TestParseGender(t *testing.T) {
	g, err := school.ParseGender(" Female ")
	require.NoError(t, err)
	assert.Equal(t, school.GenderFemale, g)
	assert.Equal(t, school.GenderMale, g.Other())

	_, err = school.ParseGender("other")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
