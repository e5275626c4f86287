// Package report assembles the standard school report from the statistics
// queries. It decides which scopes and queries make up a report; formatting
// belongs to the presenters.
package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/school-report/internal/application/query"
	"github.com/alem-hub/school-report/internal/domain/school"
	"github.com/alem-hub/school-report/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT MODEL
// ══════════════════════════════════════════════════════════════════════════════

// Kind tells presenters how to read a Line's Value.
type Kind string

const (
	KindCount     Kind = "count"     // int
	KindMean      Kind = "mean"      // float64
	KindMedian    Kind = "median"    // float64
	KindMode      Kind = "mode"      // []float64
	KindPerformer Kind = "performer" // query.Performer
)

// Line is one computed figure of the report.
type Line struct {
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`
	Scope string `json:"scope"`
	Value any    `json:"value,omitempty"`

	// Empty is set instead of Value when the scope had no eligible data.
	Empty bool `json:"empty,omitempty"`
}

// Section groups related lines under a title.
type Section struct {
	Title string `json:"title"`
	Lines []Line `json:"lines"`
}

// Report is a complete, immutable report run.
type Report struct {
	ID          string                  `json:"id"`
	GeneratedAt time.Time               `json:"generated_at"`
	Sections    []Section               `json:"sections"`
	Ranking     []query.RankedPerformer `json:"ranking,omitempty"`
	RankingOf   string                  `json:"ranking_scope,omitempty"`
}

// Request selects the optional parts of a report.
type Request struct {
	// ID identifies the run. A random UUID is used when empty.
	ID string

	// Scopes are grade or course scopes reported in addition to the school
	// and the two stages.
	Scopes []school.Scope

	// Subjects for the "best in subject" lines. Empty means every subject
	// found in the school.
	Subjects []string

	// RankingScope and TopN control the ranking table. TopN <= 0 disables it.
	RankingScope school.Scope
	TopN         int
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// Builder produces reports from a query service.
type Builder struct {
	svc *query.Service
	log *slog.Logger
	now func() time.Time
}

// NewBuilder creates a report builder.
func NewBuilder(svc *query.Service, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		svc: svc,
		log: log.With("component", "report"),
		now: time.Now,
	}
}

// Build runs every query of the report. A scope with no eligible data yields
// an Empty line; an unknown scope key aborts the build.
func (b *Builder) Build(req Request) (*Report, error) {
	start := b.now()
	rep := &Report{
		ID:          req.ID,
		GeneratedAt: start.UTC(),
	}
	if rep.ID == "" {
		rep.ID = uuid.New().String()
	}

	base := []school.Scope{school.SchoolScope()}
	for _, name := range school.StageNames {
		base = append(base, school.StageScope(name))
	}
	extended := append(append([]school.Scope{}, base...), req.Scopes...)

	c := &collector{svc: b.svc}

	population := Section{Title: "Population"}
	for _, scope := range base {
		population.Lines = append(population.Lines, c.count(scope, ""))
		for _, g := range school.Genders {
			population.Lines = append(population.Lines, c.count(scope, g))
		}
	}
	for _, scope := range req.Scopes {
		population.Lines = append(population.Lines, c.count(scope, ""))
	}

	means := Section{Title: "Mean score"}
	distribution := Section{Title: "Score distribution"}
	for _, scope := range extended {
		means.Lines = append(means.Lines, c.mean(scope))
		distribution.Lines = append(distribution.Lines, c.summary(scope)...)
	}

	performers := Section{Title: "Best performers"}
	subjects := req.Subjects
	if len(subjects) == 0 {
		var err error
		subjects, err = b.svc.Subjects(school.SchoolScope())
		if err != nil {
			return nil, fmt.Errorf("list subjects: %w", err)
		}
	}
	for _, subject := range subjects {
		performers.Lines = append(performers.Lines, c.bestInSubject(school.SchoolScope(), subject))
	}
	for _, scope := range req.Scopes {
		performers.Lines = append(performers.Lines, c.bestOverall(scope))
	}
	for i := len(base) - 1; i >= 0; i-- {
		performers.Lines = append(performers.Lines, c.bestOverall(base[i]))
	}

	if c.err != nil {
		return nil, c.err
	}
	rep.Sections = []Section{population, means, distribution, performers}

	if req.TopN > 0 {
		ranking, err := b.svc.Ranking(req.RankingScope, req.TopN)
		switch {
		case shared.IsEmptyInput(err):
			b.log.Warn("ranking scope has no eligible students", "scope", req.RankingScope.String())
		case err != nil:
			return nil, fmt.Errorf("ranking %s: %w", req.RankingScope, err)
		default:
			rep.Ranking = ranking
			rep.RankingOf = req.RankingScope.String()
		}
	}

	b.log.Debug("report built",
		"report_id", rep.ID,
		"sections", len(rep.Sections),
		"latency", time.Since(start),
	)
	return rep, nil
}

// collector runs queries and turns their results into lines. The first hard
// error (anything but an empty scope) is kept and later lines are skipped.
type collector struct {
	svc *query.Service
	err error
}

func (c *collector) line(kind Kind, label string, scope school.Scope, value any, err error) Line {
	l := Line{Kind: kind, Label: label, Scope: scope.String()}
	switch {
	case err == nil:
		l.Value = value
	case shared.IsEmptyInput(err):
		l.Empty = true
	default:
		if c.err == nil {
			c.err = fmt.Errorf("%s %s: %w", label, scope, err)
		}
	}
	return l
}

func (c *collector) count(scope school.Scope, gender school.Gender) Line {
	if c.err != nil {
		return Line{}
	}
	if gender == "" {
		n, err := c.svc.TotalStudents(scope)
		return c.line(KindCount, "Students", scope, n, err)
	}
	n, err := c.svc.TotalStudentsByGender(scope, gender)
	return c.line(KindCount, "Students ("+string(gender)+")", scope, n, err)
}

func (c *collector) mean(scope school.Scope) Line {
	if c.err != nil {
		return Line{}
	}
	m, err := c.svc.MeanScore(scope)
	return c.line(KindMean, "Mean", scope, m, err)
}

func (c *collector) summary(scope school.Scope) []Line {
	if c.err != nil {
		return nil
	}
	sum, err := c.svc.Summary(scope)
	return []Line{
		c.line(KindMode, "Mode", scope, sum.Mode, err),
		c.line(KindMedian, "Median", scope, sum.Median, err),
	}
}

func (c *collector) bestInSubject(scope school.Scope, subject string) Line {
	if c.err != nil {
		return Line{}
	}
	p, err := c.svc.BestInSubject(scope, subject)
	return c.line(KindPerformer, "Best in "+subject, scope, p, err)
}

func (c *collector) bestOverall(scope school.Scope) Line {
	if c.err != nil {
		return Line{}
	}
	p, err := c.svc.BestOverall(scope)
	return c.line(KindPerformer, "Best overall", scope, p, err)
}
