// Package cli renders reports for the terminal, either as colored tables or
// as JSON for other tools.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/alem-hub/school-report/internal/application/query"
	"github.com/alem-hub/school-report/internal/application/report"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json)", s)
	}
}

// notAvailable is printed for figures whose scope had no eligible data.
const notAvailable = "n/a"

// ══════════════════════════════════════════════════════════════════════════════
// PRESENTER
// ══════════════════════════════════════════════════════════════════════════════

// Presenter writes reports to an output stream.
type Presenter struct {
	out    io.Writer
	format Format

	title *color.Color
	faint *color.Color
}

// NewPresenter creates a presenter. Colors are only emitted when colored is
// true and the table format is used.
func NewPresenter(out io.Writer, format Format, colored bool) *Presenter {
	p := &Presenter{
		out:    out,
		format: format,
		title:  color.New(color.FgYellow, color.Bold),
		faint:  color.New(color.Faint),
	}
	if !colored {
		p.title.DisableColor()
		p.faint.DisableColor()
	}
	return p
}

// Render writes the whole report.
func (p *Presenter) Render(rep *report.Report) error {
	if p.format == FormatJSON {
		return p.writeJSON(rep)
	}

	p.title.Fprintf(p.out, "School report %s\n", rep.ID)
	p.faint.Fprintf(p.out, "generated %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	for _, sec := range rep.Sections {
		p.renderSection(sec)
	}

	if len(rep.Ranking) > 0 {
		p.title.Fprintf(p.out, "\nTop %d in %s\n", len(rep.Ranking), rep.RankingOf)
		p.renderRanking(rep.Ranking)
	}
	return nil
}

// RenderRanking writes a ranking read back from the leaderboard store.
func (p *Presenter) RenderRanking(scope string, ranking []query.RankedPerformer) error {
	if p.format == FormatJSON {
		return p.writeJSON(struct {
			Scope   string                  `json:"scope"`
			Ranking []query.RankedPerformer `json:"ranking"`
		}{scope, ranking})
	}

	p.title.Fprintf(p.out, "Leaderboard %s\n", scope)
	p.renderRanking(ranking)
	return nil
}

func (p *Presenter) writeJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ─────────────────────────────────────────────────────────────────────────────
// TABLES
// ─────────────────────────────────────────────────────────────────────────────

func (p *Presenter) renderSection(sec report.Section) {
	p.title.Fprintf(p.out, "\n%s\n", sec.Title)

	table := p.newTable([]string{"Scope", "Figure", "Value"})
	for _, l := range sec.Lines {
		table.Append([]string{l.Scope, l.Label, FormatValue(l)})
	}
	table.Render()
}

func (p *Presenter) renderRanking(ranking []query.RankedPerformer) {
	table := p.newTable([]string{"Rank", "Name", "Gender", "Placement", "Average"})
	for _, r := range ranking {
		table.Append([]string{
			strconv.Itoa(r.Rank),
			r.Name,
			string(r.Gender),
			placement(r.Performer),
			formatScore(r.Average),
		})
	}
	table.Render()
}

func (p *Presenter) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(p.out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// ─────────────────────────────────────────────────────────────────────────────
// VALUE FORMATTING
// ─────────────────────────────────────────────────────────────────────────────

// FormatValue renders a report line's value as text.
func FormatValue(l report.Line) string {
	if l.Empty {
		return notAvailable
	}

	switch v := l.Value.(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return formatScore(v)
	case []float64:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(parts, ", ")
	case query.Performer:
		return fmt.Sprintf("%s (%s) %s", v.Name, placement(v), formatScore(v.Average))
	case nil:
		return notAvailable
	default:
		return fmt.Sprint(v)
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func placement(p query.Performer) string {
	return fmt.Sprintf("%s/%s/%s", p.Stage, p.Grade, p.Course)
}
