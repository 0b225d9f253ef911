// Package report renders analytics results as plain terminal text.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/godilite/product-analytics/internal/prioritization"
	"github.com/godilite/product-analytics/internal/service"
)

const ruleWidth = 60

type styles struct {
	title lipgloss.Style
	good  lipgloss.Style
	muted lipgloss.Style
}

// newStyles detects the color profile of w, so output written to a file or
// buffer carries no escape codes.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().Bold(true),
		good:  r.NewStyle().Foreground(lipgloss.Color("2")),
		muted: r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// printer remembers the first write error so callers can check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func money(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// RenderABTest writes one "key: value" line per result field.
func RenderABTest(w io.Writer, rep service.ABTestReport) error {
	st := newStyles(w)
	p := &printer{w: w}
	r := rep.Result

	p.printf("%s\n", st.title.Render("A/B Test Results:"))
	p.printf("control_rate: %s\n", formatFloat(r.ControlRate))
	p.printf("treatment_rate: %s\n", formatFloat(r.TreatmentRate))
	p.printf("lift_percent: %s\n", formatFloat(r.LiftPercent))
	p.printf("z_score: %s\n", formatFloat(r.ZScore))
	p.printf("p_value: %s\n", formatFloat(r.PValue))
	p.printf("statistically_significant: %t\n", r.Significant)

	p.printf("%s\n", st.muted.Render(fmt.Sprintf(
		"control %d/%d, treatment %d/%d, alpha %s, %.0f%% CI on rate difference [%.4f, %.4f]",
		rep.Control.Conversions, rep.Control.Sessions,
		rep.Treatment.Conversions, rep.Treatment.Sessions,
		formatFloat(r.Alpha), rep.Interval.Level*100, rep.Interval.Lower, rep.Interval.Upper)))

	return p.err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func section(p *printer, st styles, n int, name string) {
	p.printf("\n%s\n%s\n", st.title.Render(fmt.Sprintf("%d. %s", n, strings.ToUpper(name))), strings.Repeat("-", ruleWidth))
}

func emptyOr(p *printer, rows int, t *table.Table) {
	if rows == 0 {
		p.printf("no data\n")
		return
	}
	p.printf("%s\n", t.String())
}

// RenderFullReport writes the dashboard report: key metrics, funnel, device
// and channel performance, revenue trend and cohorts.
func RenderFullReport(w io.Writer, rep service.FullReport) error {
	st := newStyles(w)
	p := &printer{w: w}
	rule := strings.Repeat("=", ruleWidth)

	p.printf("%s\n%s\n%s\n", rule, st.title.Render("PRODUCT ANALYTICS DASHBOARD REPORT"), rule)
	p.printf("%s\n", st.muted.Render(fmt.Sprintf("%s to %s",
		rep.Start.UTC().Format("2006-01-02 15:04:05"), rep.End.UTC().Format("2006-01-02 15:04:05"))))

	m := rep.Metrics
	section(p, st, 1, "Key metrics")
	for _, kv := range [][2]string{
		{"Total Sessions", humanize.Comma(m.TotalSessions)},
		{"Total Users", humanize.Comma(m.TotalUsers)},
		{"Conversions", humanize.Comma(m.Conversions)},
		{"Conversion Rate", pct(m.ConversionRate)},
		{"Total Revenue", money(m.TotalRevenue)},
		{"Average Order Value", money(m.AverageOrderValue)},
	} {
		p.printf("%-25s: %s\n", kv[0], kv[1])
	}

	section(p, st, 2, "Conversion funnel")
	funnel := newTable("Stage", "Sessions", "Conversion Rate", "Drop Off")
	for _, s := range rep.Funnel {
		funnel.Row(s.Stage, humanize.Comma(s.Sessions), pct(s.ConversionRate), pct(s.DropOff))
	}
	emptyOr(p, len(rep.Funnel), funnel)

	section(p, st, 3, "Device performance")
	emptyOr(p, len(rep.Devices), segmentTable("Device", rep.Devices))

	section(p, st, 4, "Channel performance")
	emptyOr(p, len(rep.Channels), segmentTable("Channel", rep.Channels))

	section(p, st, 5, "Revenue trend")
	trend := newTable("Period", "Revenue")
	for _, r := range rep.Revenue {
		trend.Row(r.Period, money(r.Revenue))
	}
	emptyOr(p, len(rep.Revenue), trend)

	section(p, st, 6, "Cohorts")
	cohorts := newTable("First Conversion", "Users", "Revenue")
	for _, c := range rep.Cohorts {
		cohorts.Row(c.CohortDate, humanize.Comma(c.Users), money(c.Revenue))
	}
	emptyOr(p, len(rep.Cohorts), cohorts)

	p.printf("\n%s\n%s\n%s\n", rule, st.good.Render("Report generation complete!"), rule)
	return p.err
}

func segmentTable(name string, segs []service.SegmentMetrics) *table.Table {
	t := newTable(name, "Sessions", "Conversions", "Revenue", "Conversion Rate")
	for _, s := range segs {
		t.Row(s.Segment, humanize.Comma(s.Sessions), humanize.Comma(s.Conversions), money(s.Revenue), pct(s.ConversionRate))
	}
	return t
}

// RenderRICE writes the ranked backlog as a table, best first.
func RenderRICE(w io.Writer, scores []prioritization.FeatureScore) error {
	st := newStyles(w)
	p := &printer{w: w}

	p.printf("\n%s\n%s\n", st.title.Render("Feature Prioritization (RICE Framework):"), strings.Repeat("=", 70))
	t := newTable("Feature", "Reach", "Impact", "Confidence", "Effort", "RICE Score")
	for _, s := range scores {
		t.Row(s.Name,
			formatFloat(s.Reach),
			formatFloat(s.Impact),
			formatFloat(s.Confidence),
			formatFloat(s.Effort),
			strconv.FormatFloat(s.Score, 'f', 2, 64))
	}
	emptyOr(p, len(scores), t)
	return p.err
}
