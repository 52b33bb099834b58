// Package pretty renders evaluations and taxonomies as styled terminal text.
package pretty

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/crimson-sun/covenant/internal/engine/taxonomy"
	"github.com/crimson-sun/covenant/internal/model"
	"github.com/crimson-sun/covenant/internal/output"
)

var _ output.Output = (*Output)(nil)

// Theme is the colour palette keyed to risk levels.
type Theme struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Low     lipgloss.Color
	Medium  lipgloss.Color
	High    lipgloss.Color
	Border  lipgloss.Color
}

// DefaultTheme returns the default palette.
func DefaultTheme() Theme {
	return Theme{
		Primary: lipgloss.Color("#7C3AED"),
		Muted:   lipgloss.Color("#6C7086"),
		Low:     lipgloss.Color("#A6E3A1"),
		Medium:  lipgloss.Color("#F9E2AF"),
		High:    lipgloss.Color("#F38BA8"),
		Border:  lipgloss.Color("#45475A"),
	}
}

type styles struct {
	title lipgloss.Style
	muted lipgloss.Style
	box   lipgloss.Style
	risk  map[model.RiskLevel]lipgloss.Style
}

func newStyles(t Theme) styles {
	badge := lipgloss.NewStyle().Bold(true)
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		muted: lipgloss.NewStyle().Foreground(t.Muted),
		box:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border).Padding(0, 1),
		risk: map[model.RiskLevel]lipgloss.Style{
			model.RiskLow:    badge.Foreground(t.Low),
			model.RiskMedium: badge.Foreground(t.Medium),
			model.RiskHigh:   badge.Foreground(t.High),
		},
	}
}

func (s styles) riskBadge(r model.RiskLevel) string {
	st, ok := s.risk[r]
	if !ok {
		return r.String()
	}
	return st.Render(fmt.Sprintf("%-6s", r.String()))
}

// Output writes human-readable evaluation reports.
type Output struct {
	w      io.Writer
	styles styles
}

// New creates a renderer on stdout with the default theme.
func New() *Output {
	return NewWriter(os.Stdout, DefaultTheme())
}

// NewWriter creates a renderer on w.
func NewWriter(w io.Writer, theme Theme) *Output {
	return &Output{w: w, styles: newStyles(theme)}
}

func (o *Output) Write(_ context.Context, ev model.ContractEvaluation) error {
	var b strings.Builder
	s := o.styles

	for i, c := range ev.Clauses {
		fmt.Fprintf(&b, "%s %s %s\n", s.muted.Render(fmt.Sprintf("%3d", i+1)), s.riskBadge(c.Risk), c.Label)
		detail := fmt.Sprintf("similarity %.3f", c.Similarity)
		if c.ClusterID >= 0 {
			detail += fmt.Sprintf(" · cluster %d", c.ClusterID)
		}
		fmt.Fprintf(&b, "    %s\n", s.muted.Render(detail))
		fmt.Fprintf(&b, "    %s\n", c.ClauseText)
	}

	summary := fmt.Sprintf("%s %s   %s %.2f   %s %d   %s %s",
		s.title.Render("Overall"), s.riskBadge(ev.OverallRisk),
		s.muted.Render("average"), ev.AverageRiskScore,
		s.muted.Render("clauses"), len(ev.Clauses),
		s.muted.Render("mode"), ev.Mode,
	)

	if _, err := fmt.Fprintln(o.w, b.String()+s.box.Render(summary)); err != nil {
		return fmt.Errorf("pretty output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}

// Taxonomy writes a table of taxonomy entries with the build provenance.
func (o *Output) Taxonomy(t *taxonomy.Taxonomy) error {
	var b strings.Builder
	s := o.styles
	p := t.Provenance

	fmt.Fprintln(&b, s.title.Render("Taxonomy"))
	fmt.Fprintf(&b, "%s %s\n", s.muted.Render("model     "), t.EmbeddingModelID)
	fmt.Fprintf(&b, "%s %s\n", s.muted.Render("build     "), p.BuildID)
	fmt.Fprintf(&b, "%s %d records, k=%d, seed=%d, %d iterations\n",
		s.muted.Render("corpus    "), p.RecordCount, p.ClusterCount, p.Seed, p.Iterations)
	fmt.Fprintf(&b, "%s %d entries, dim %d\n\n", s.muted.Render("entries   "), len(t.Entries), t.Dim())

	for _, e := range t.Entries {
		fmt.Fprintf(&b, "%s %s %-28s %s\n",
			s.muted.Render(fmt.Sprintf("%3d", e.ClusterID)),
			s.riskBadge(e.Risk),
			e.Label,
			s.muted.Render(fmt.Sprintf("%d members", e.MemberCount)),
		)
	}

	if _, err := io.WriteString(o.w, b.String()); err != nil {
		return fmt.Errorf("pretty output: %w", err)
	}
	return nil
}
