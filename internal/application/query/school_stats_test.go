package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/school-report/internal/domain/school"
	"github.com/alem-hub/school-report/internal/domain/school/schooltest"
	"github.com/alem-hub/school-report/internal/domain/shared"
)

var (
	primaria    = school.StageScope(school.StagePrimaria)
	secundaria  = school.StageScope(school.StageSecundaria)
	wholeSchool = school.SchoolScope()
)

func newFixtureService() *Service {
	return NewService(schooltest.Fixture())
}

func TestTotalStudents(t *testing.T) {
	svc := newFixtureService()

	total, err := svc.TotalStudents(wholeSchool)
	require.NoError(t, err)
	prim, err := svc.TotalStudents(primaria)
	require.NoError(t, err)
	sec, err := svc.TotalStudents(secundaria)
	require.NoError(t, err)

	assert.Equal(t, 6, total)
	assert.Equal(t, 4, prim)
	assert.Equal(t, 2, sec)
	assert.Equal(t, prim+sec, total)

	n, err := svc.TotalStudents(school.GradeScope(school.StagePrimaria, "tercero"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = svc.TotalStudents(school.StageScope("bachillerato"))
	assert.True(t, shared.IsNotFound(err))
}

func TestTotalStudentsByGender(t *testing.T) {
	svc := newFixtureService()

	for _, scope := range []school.Scope{wholeSchool, primaria, secundaria} {
		total, err := svc.TotalStudents(scope)
		require.NoError(t, err)
		male, err := svc.TotalStudentsByGender(scope, school.GenderMale)
		require.NoError(t, err)
		female, err := svc.TotalStudentsByGender(scope, school.GenderMale.Other())
		require.NoError(t, err)

		assert.Equal(t, total, male+female, scope.String())
	}

	female, err := svc.TotalStudentsByGender(primaria, school.GenderFemale)
	require.NoError(t, err)
	assert.Equal(t, 2, female)

	_, err = svc.TotalStudentsByGender(primaria, "x")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestMeanScore(t *testing.T) {
	svc := newFixtureService()

	prim, err := svc.MeanScore(primaria)
	require.NoError(t, err)
	assert.InDelta(t, 42.0/11.0, prim, 1e-9)

	sec, err := svc.MeanScore(secundaria)
	require.NoError(t, err)
	assert.InDelta(t, 3.75, sec, 1e-9)

	all, err := svc.MeanScore(wholeSchool)
	require.NoError(t, err)
	assert.InDelta(t, (42.0/11.0+3.75)/2, all, 1e-9, "school mean is the mean of stage means")

	grade, err := svc.MeanScore(school.GradeScope(school.StagePrimaria, "primero"))
	require.NoError(t, err)
	assert.InDelta(t, 3.9, grade, 1e-9)

	course, err := svc.MeanScore(school.CourseScope(school.StagePrimaria, "primero", "B"))
	require.NoError(t, err)
	assert.InDelta(t, 14.0/3.0, course, 1e-9)
}

func TestMeanScore_EmptyScope(t *testing.T) {
	svc := newFixtureService()

	scopes := []school.Scope{
		school.GradeScope(school.StagePrimaria, "tercero"),
		school.CourseScope(school.StagePrimaria, "segundo", "B"),
	}
	for _, scope := range scopes {
		mean, err := svc.MeanScore(scope)
		require.Error(t, err, scope.String())
		assert.True(t, shared.IsEmptyInput(err))
		assert.False(t, shared.IsNotFound(err))
		assert.False(t, math.IsNaN(mean))
	}

	_, err := svc.MeanScore(school.GradeScope(school.StagePrimaria, "noveno"))
	assert.True(t, shared.IsNotFound(err))
	assert.False(t, shared.IsEmptyInput(err))
}

func TestMeanScore_SchoolFailsWhenAStageIsEmpty(t *testing.T) {
	svc := NewService(schooltest.Single(
		schooltest.Student("Ana", school.GenderFemale, schooltest.Record("fisica", 4)),
	))

	_, err := svc.MeanScore(wholeSchool)
	assert.True(t, shared.IsEmptyInput(err))
}

func TestCollectScores_Order(t *testing.T) {
	svc := NewService(schooltest.Single(
		schooltest.Student("X", school.GenderMale,
			schooltest.Record("math", 5, 7),
			schooltest.Record("sci", 9),
		),
	))

	scores, err := svc.CollectScores(school.CourseScope(school.StagePrimaria, "primero", "A"))
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7, 9}, scores)

	fixture := newFixtureService()
	scores, err = fixture.CollectScores(school.CourseScope(school.StagePrimaria, "primero", "A"))
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 3, 2, 3, 4, 4}, scores)

	all, err := fixture.CollectScores(wholeSchool)
	require.NoError(t, err)
	prim, err := fixture.CollectScores(primaria)
	require.NoError(t, err)
	sec, err := fixture.CollectScores(secundaria)
	require.NoError(t, err)
	assert.Equal(t, append(append([]float64{}, prim...), sec...), all)
}

func TestMedianAndMode(t *testing.T) {
	svc := newFixtureService()

	median, err := svc.MedianScore(primaria)
	require.NoError(t, err)
	assert.Equal(t, 4.0, median)

	mode, err := svc.ModeScores(primaria)
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, mode)

	summary, err := svc.Summary(school.GradeScope(school.StagePrimaria, "primero"))
	require.NoError(t, err)
	assert.Equal(t, ScoreSummary{Count: 10, Median: 4, Mode: []float64{4}}, summary)

	mode, err = svc.ModeScores(secundaria)
	require.NoError(t, err)
	assert.Equal(t, []float64{4.5}, mode)

	_, err = svc.MedianScore(school.CourseScope(school.StagePrimaria, "segundo", "B"))
	assert.True(t, shared.IsEmptyInput(err))

	_, err = svc.Summary(school.CourseScope(school.StagePrimaria, "segundo", "Z"))
	assert.True(t, shared.IsNotFound(err))
}

func TestBestInSubject(t *testing.T) {
	svc := NewService(schooltest.Single(
		schooltest.Student("A", school.GenderMale, schooltest.Record("math", 10, 20)),
		schooltest.Student("B", school.GenderFemale, schooltest.Record("math", 30)),
	))

	best, err := svc.BestInSubject(school.CourseScope(school.StagePrimaria, "primero", "A"), "math")
	require.NoError(t, err)
	assert.Equal(t, "B", best.Name)
	assert.Equal(t, 30.0, best.Average)
}

func TestBestInSubject_Fixture(t *testing.T) {
	svc := newFixtureService()

	best, err := svc.BestInSubject(wholeSchool, "fisica")
	require.NoError(t, err)
	assert.Equal(t, Performer{
		Name: "Sofia", Gender: school.GenderFemale,
		Stage: school.StagePrimaria, Grade: "primero", Course: "B",
		Average: 5,
	}, best)

	best, err = svc.BestInSubject(wholeSchool, "quimica")
	require.NoError(t, err)
	assert.Equal(t, "Marta", best.Name)

	best, err = svc.BestInSubject(secundaria, "fisica")
	require.NoError(t, err)
	assert.Equal(t, "Marta", best.Name)
	assert.Equal(t, 4.5, best.Average)

	// Pedro has an empty historia record and must not be treated as zero.
	_, err = svc.BestInSubject(school.CourseScope(school.StagePrimaria, "segundo", "A"), "historia")
	assert.ErrorIs(t, err, ErrNoEligibleStudent)
	assert.True(t, shared.IsEmptyInput(err))

	_, err = svc.BestInSubject(wholeSchool, "musica")
	assert.True(t, shared.IsEmptyInput(err))

	_, err = svc.BestInSubject(wholeSchool, " ")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestBestInSubject_TieKeepsFirstEncountered(t *testing.T) {
	svc := NewService(schooltest.Single(
		schooltest.Student("Zoe", school.GenderFemale, schooltest.Record("math", 4, 2)),
		schooltest.Student("Adam", school.GenderMale, schooltest.Record("math", 3)),
	))

	best, err := svc.BestInSubject(primaria, "math")
	require.NoError(t, err)
	assert.Equal(t, "Zoe", best.Name)
}

func TestBestInSubject_SchoolTieFavoursPrimaria(t *testing.T) {
	s, err := school.New(
		school.Stage{Grades: []school.Grade{{Name: "primero", Courses: []school.Course{{Label: "A", Students: []school.Student{
			schooltest.Student("Prim", school.GenderFemale, schooltest.Record("arte", 5)),
		}}}}}},
		school.Stage{Grades: []school.Grade{{Name: "primero", Courses: []school.Course{{Label: "A", Students: []school.Student{
			schooltest.Student("Sec", school.GenderMale, schooltest.Record("arte", 5)),
		}}}}}},
	)
	require.NoError(t, err)

	best, err := NewService(s).BestInSubject(wholeSchool, "arte")
	require.NoError(t, err)
	assert.Equal(t, "Prim", best.Name)
}

func TestBestOverall(t *testing.T) {
	svc := newFixtureService()

	best, err := svc.BestOverall(wholeSchool)
	require.NoError(t, err)
	assert.Equal(t, "Sofia", best.Name)
	assert.InDelta(t, 4.75, best.Average, 1e-9)

	best, err = svc.BestOverall(secundaria)
	require.NoError(t, err)
	assert.Equal(t, "Marta", best.Name)
	assert.InDelta(t, 4.25, best.Average, 1e-9)

	best, err = svc.BestOverall(school.CourseScope(school.StagePrimaria, "primero", "A"))
	require.NoError(t, err)
	assert.Equal(t, "Ana", best.Name)
	assert.InDelta(t, 3.75, best.Average, 1e-9, "mean of subject means, not flat mean")

	best, err = svc.BestOverall(school.GradeScope(school.StagePrimaria, "segundo"))
	require.NoError(t, err)
	assert.Equal(t, "Pedro", best.Name)
	assert.Equal(t, 3.0, best.Average, "empty subject records are skipped")

	_, err = svc.BestOverall(school.GradeScope(school.StagePrimaria, "tercero"))
	assert.ErrorIs(t, err, ErrNoEligibleStudent)
}

func TestRanking(t *testing.T) {
	svc := newFixtureService()

	ranking, err := svc.Ranking(wholeSchool, 0)
	require.NoError(t, err)
	require.Len(t, ranking, 6)

	var names []string
	for i, r := range ranking {
		assert.Equal(t, i+1, r.Rank)
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Sofia", "Marta", "Ana", "Luis", "Pedro", "Juan"}, names)

	top, err := svc.Ranking(primaria, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Ana", top[1].Name)

	_, err = svc.Ranking(school.CourseScope(school.StagePrimaria, "segundo", "B"), 5)
	assert.ErrorIs(t, err, ErrNoEligibleStudent)
}

func TestBestOverall_TieKeepsFirstEncountered(t *testing.T) {
	// Zoe: mean(3, 5) = 4; Adam: mean(4) = 4.
	svc := NewService(schooltest.Single(
		schooltest.Student("Zoe", school.GenderFemale, schooltest.Record("math", 3), schooltest.Record("arte", 5)),
		schooltest.Student("Adam", school.GenderMale, schooltest.Record("math", 4)),
	))

	best, err := svc.BestOverall(primaria)
	require.NoError(t, err)
	assert.Equal(t, "Zoe", best.Name)
	assert.Equal(t, 4.0, best.Average)
}

func TestBestOverall_SchoolTieFavoursPrimaria(t *testing.T) {
	s, err := school.New(
		school.Stage{Grades: []school.Grade{{Name: "primero", Courses: []school.Course{{Label: "A", Students: []school.Student{
			schooltest.Student("Prim", school.GenderFemale, schooltest.Record("arte", 4), schooltest.Record("math", 5)),
		}}}}}},
		school.Stage{Grades: []school.Grade{{Name: "sexto", Courses: []school.Course{{Label: "A", Students: []school.Student{
			schooltest.Student("Sec", school.GenderMale, schooltest.Record("math", 4.5)),
		}}}}}},
	)
	require.NoError(t, err)

	best, err := NewService(s).BestOverall(wholeSchool)
	require.NoError(t, err)
	assert.Equal(t, "Prim", best.Name)
	assert.Equal(t, school.StagePrimaria, best.Stage)
}

func TestRanking_EqualAveragesKeepTraversalOrder(t *testing.T) {
	svc := NewService(schooltest.Single(
		schooltest.Student("Carla", school.GenderFemale, schooltest.Record("math", 3)),
		schooltest.Student("Zoe", school.GenderFemale, schooltest.Record("math", 4)),
		schooltest.Student("Adam", school.GenderMale, schooltest.Record("math", 4)),
		schooltest.Student("Bea", school.GenderFemale, schooltest.Record("math", 2, 6)),
	))

	ranking, err := svc.Ranking(primaria, 0)
	require.NoError(t, err)
	require.Len(t, ranking, 4)

	var names []string
	for _, r := range ranking {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Zoe", "Adam", "Bea", "Carla"}, names)
	assert.Equal(t, []int{1, 2, 3}, []int{ranking[0].Rank, ranking[1].Rank, ranking[2].Rank})

	top, err := svc.Ranking(primaria, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Zoe", top[0].Name)
}

func TestSubjects(t *testing.T) {
	svc := newFixtureService()

	subjects, err := svc.Subjects(wholeSchool)
	require.NoError(t, err)
	assert.Equal(t, []string{"fisica", "historia", "quimica"}, subjects)

	subjects, err = svc.Subjects(school.GradeScope(school.StagePrimaria, "segundo"))
	require.NoError(t, err)
	assert.Equal(t, []string{"fisica"}, subjects)
}

func TestQueriesDoNotMutateDataset(t *testing.T) {
	s := schooltest.Fixture()
	svc := NewService(s)

	before, err := svc.CollectScores(wholeSchool)
	require.NoError(t, err)

	_, err = svc.MedianScore(wholeSchool)
	require.NoError(t, err)
	_, err = svc.ModeScores(wholeSchool)
	require.NoError(t, err)
	_, err = svc.Ranking(wholeSchool, 0)
	require.NoError(t, err)

	after, err := svc.CollectScores(wholeSchool)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
