// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alem-hub/school-report/internal/domain/school"
	"github.com/alem-hub/school-report/internal/domain/shared"
	"github.com/alem-hub/school-report/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOOL STATISTICS
// Every query re-walks the requested subtree; nothing is cached.
// ══════════════════════════════════════════════════════════════════════════════

// ErrNoEligibleStudent is returned by performer lookups when no student in
// scope has a score that qualifies.
var ErrNoEligibleStudent = shared.NewDomainError("query", "BestPerformer", shared.ErrEmptyInput, "no eligible student in scope")

// Performer identifies a student together with the average that ranked them.
type Performer struct {
	Name    string           `json:"name"`
	Gender  school.Gender    `json:"gender"`
	Stage   school.StageName `json:"stage"`
	Grade   string           `json:"grade"`
	Course  string           `json:"course"`
	Average float64          `json:"average"`
}

// RankedPerformer is a Performer with its 1-based position.
type RankedPerformer struct {
	Rank int `json:"rank"`
	Performer
}

// ScoreSummary holds the order statistics of the scores in a scope.
type ScoreSummary struct {
	Count  int       `json:"count"`
	Median float64   `json:"median"`
	Mode   []float64 `json:"mode"`
}

// Service answers statistical queries over a loaded school.
// It is safe for concurrent use because it never mutates the school.
type Service struct {
	school *school.School
}

// NewService creates a query service over s.
func NewService(s *school.School) *Service {
	return &Service{school: s}
}

// ──────────────────────────────────────────────────────────────────────────────
// Population counts
// ──────────────────────────────────────────────────────────────────────────────

// TotalStudents counts the students in scope. The whole school is the sum of
// both stages.
func (s *Service) TotalStudents(scope school.Scope) (int, error) {
	return s.countStudents(scope, func(*school.Student) bool { return true })
}

// TotalStudentsByGender counts the students in scope carrying gender.
func (s *Service) TotalStudentsByGender(scope school.Scope, gender school.Gender) (int, error) {
	if !gender.IsValid() {
		return 0, shared.NewDomainError("query", "TotalStudentsByGender", shared.ErrInvalidInput,
			fmt.Sprintf("unknown gender %q", gender))
	}
	return s.countStudents(scope, func(st *school.Student) bool { return st.Gender == gender })
}

func (s *Service) countStudents(scope school.Scope, keep func(*school.Student) bool) (int, error) {
	if scope.Level() == school.LevelSchool {
		total := 0
		for _, name := range school.StageNames {
			n, err := s.countStudents(school.StageScope(name), keep)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	}

	total := 0
	err := s.school.Walk(scope, func(_ school.Placement, st *school.Student) {
		if keep(st) {
			total++
		}
	})
	return total, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Score aggregation
// ──────────────────────────────────────────────────────────────────────────────

// CollectScores flattens every score in scope. Order: student traversal
// order, then each student's subjects in order, then each subject's scores in
// order. The whole school is primaria's collection followed by secundaria's.
func (s *Service) CollectScores(scope school.Scope) ([]float64, error) {
	var scores []float64
	err := s.school.Walk(scope, func(_ school.Placement, st *school.Student) {
		for _, rec := range st.Subjects {
			scores = append(scores, rec.Scores...)
		}
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// MeanScore returns the mean of every score in scope. For the whole school
// it is the arithmetic mean of the two stage means, not a mean weighted by
// the number of scores; an empty stage makes the school mean fail.
func (s *Service) MeanScore(scope school.Scope) (float64, error) {
	if scope.Level() == school.LevelSchool {
		var sum float64
		for _, name := range school.StageNames {
			m, err := s.MeanScore(school.StageScope(name))
			if err != nil {
				return 0, err
			}
			sum += m
		}
		return sum / float64(len(school.StageNames)), nil
	}

	scores, err := s.CollectScores(scope)
	if err != nil {
		return 0, err
	}
	mean, err := stats.Mean(scores)
	if err != nil {
		return 0, emptyScope("MeanScore", scope, err)
	}
	return mean, nil
}

// MedianScore returns the median of the scores collected in scope.
func (s *Service) MedianScore(scope school.Scope) (float64, error) {
	scores, err := s.CollectScores(scope)
	if err != nil {
		return 0, err
	}
	median, err := stats.Median(scores)
	if err != nil {
		return 0, emptyScope("MedianScore", scope, err)
	}
	return median, nil
}

// ModeScores returns the most frequent scores in scope, ascending.
func (s *Service) ModeScores(scope school.Scope) ([]float64, error) {
	scores, err := s.CollectScores(scope)
	if err != nil {
		return nil, err
	}
	mode, err := stats.Mode(scores)
	if err != nil {
		return nil, emptyScope("ModeScores", scope, err)
	}
	return mode, nil
}

// Summary computes median and mode over one collection of the scope's scores.
func (s *Service) Summary(scope school.Scope) (ScoreSummary, error) {
	scores, err := s.CollectScores(scope)
	if err != nil {
		return ScoreSummary{}, err
	}
	median, err := stats.Median(scores)
	if err != nil {
		return ScoreSummary{}, emptyScope("Summary", scope, err)
	}
	mode, err := stats.Mode(scores)
	if err != nil {
		return ScoreSummary{}, emptyScope("Summary", scope, err)
	}
	return ScoreSummary{Count: len(scores), Median: median, Mode: mode}, nil
}

// Subjects returns the distinct subject names with at least one score in
// scope, in first-encountered order.
func (s *Service) Subjects(scope school.Scope) ([]string, error) {
	seen := make(map[string]struct{})
	var subjects []string
	err := s.school.Walk(scope, func(_ school.Placement, st *school.Student) {
		for _, rec := range st.Subjects {
			if !rec.Taken() {
				continue
			}
			if _, ok := seen[rec.Subject]; ok {
				continue
			}
			seen[rec.Subject] = struct{}{}
			subjects = append(subjects, rec.Subject)
		}
	})
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Best performers
// ──────────────────────────────────────────────────────────────────────────────

// BestInSubject returns the student with the highest mean score in subject.
// Students without scores in subject are skipped. Ties keep the student met
// first in traversal order; for the whole school that means primaria wins a
// tie against secundaria.
func (s *Service) BestInSubject(scope school.Scope, subject string) (Performer, error) {
	if strings.TrimSpace(subject) == "" {
		return Performer{}, shared.NewDomainError("query", "BestInSubject", shared.ErrInvalidInput, "subject is required")
	}
	return s.best(scope, func(st *school.Student) (float64, bool) {
		return SubjectAverage(st, subject)
	})
}

// BestOverall returns the student with the highest mean of per-subject means.
// Same tie policy as BestInSubject.
func (s *Service) BestOverall(scope school.Scope) (Performer, error) {
	return s.best(scope, StudentAverage)
}

// best compares stage winners for the whole school and walks the scope
// otherwise. Only a strictly greater average replaces the current leader.
func (s *Service) best(scope school.Scope, average func(*school.Student) (float64, bool)) (Performer, error) {
	if scope.Level() == school.LevelSchool {
		var leader *Performer
		for _, name := range school.StageNames {
			p, err := s.best(school.StageScope(name), average)
			if shared.IsEmptyInput(err) {
				continue
			}
			if err != nil {
				return Performer{}, err
			}
			if leader == nil || p.Average > leader.Average {
				leader = &p
			}
		}
		if leader == nil {
			return Performer{}, ErrNoEligibleStudent
		}
		return *leader, nil
	}

	var leader *Performer
	err := s.school.Walk(scope, func(p school.Placement, st *school.Student) {
		avg, ok := average(st)
		if !ok {
			return
		}
		if leader == nil || avg > leader.Average {
			perf := newPerformer(p, st, avg)
			leader = &perf
		}
	})
	if err != nil {
		return Performer{}, err
	}
	if leader == nil {
		return Performer{}, ErrNoEligibleStudent
	}
	return *leader, nil
}

// Ranking orders every eligible student in scope by overall average,
// highest first. Equal averages keep traversal order. limit <= 0 means all.
func (s *Service) Ranking(scope school.Scope, limit int) ([]RankedPerformer, error) {
	var performers []Performer
	err := s.school.Walk(scope, func(p school.Placement, st *school.Student) {
		if avg, ok := StudentAverage(st); ok {
			performers = append(performers, newPerformer(p, st, avg))
		}
	})
	if err != nil {
		return nil, err
	}
	if len(performers) == 0 {
		return nil, ErrNoEligibleStudent
	}

	sort.SliceStable(performers, func(i, j int) bool {
		return performers[i].Average > performers[j].Average
	})
	if limit > 0 && limit < len(performers) {
		performers = performers[:limit]
	}

	ranked := make([]RankedPerformer, len(performers))
	for i, p := range performers {
		ranked[i] = RankedPerformer{Rank: i + 1, Performer: p}
	}
	return ranked, nil
}

// SubjectAverage returns the student's mean score in subject. The second
// result is false when the student has no scores in it.
func SubjectAverage(st *school.Student, subject string) (float64, bool) {
	scores, ok := st.ScoresIn(subject)
	if !ok {
		return 0, false
	}
	mean, err := stats.Mean(scores)
	return mean, err == nil
}

// StudentAverage returns the mean of the student's per-subject means.
// Subjects without scores are skipped; the second result is false when no
// subject has scores.
func StudentAverage(st *school.Student) (float64, bool) {
	means := make([]float64, 0, len(st.Subjects))
	for _, rec := range st.Subjects {
		if m, err := stats.Mean(rec.Scores); err == nil {
			means = append(means, m)
		}
	}
	avg, err := stats.Mean(means)
	return avg, err == nil
}

func newPerformer(p school.Placement, st *school.Student, avg float64) Performer {
	return Performer{
		Name:    st.Name,
		Gender:  st.Gender,
		Stage:   p.Stage,
		Grade:   p.Grade,
		Course:  p.Course,
		Average: avg,
	}
}

func emptyScope(op string, scope school.Scope, err error) error {
	return shared.WrapError("query", op, shared.ErrEmptyInput, fmt.Sprintf("no scores in %s", scope), err)
}
