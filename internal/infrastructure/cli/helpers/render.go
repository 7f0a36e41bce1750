package helpers

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/doeshing/formatapi/internal/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	statusStyles = map[domain.HealthStatus]lipgloss.Style{
		domain.HealthOK:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domain.HealthWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domain.HealthError: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// TimeLayout is used for every human-facing time.
const TimeLayout = domain.TimestampFormat

// FormatTimestamp renders a millisecond timestamp for humans.
func FormatTimestamp(ts int64) string {
	return time.UnixMilli(ts).Format(TimeLayout)
}

// RenderHistory prints records newest first, at most limit of them (0 means all).
func RenderHistory(out io.Writer, records []domain.Record, limit int) {
	rows := make([][]string, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if limit > 0 && len(rows) == limit {
			break
		}
		r := records[i]
		rows = append(rows, []string{
			strconv.FormatInt(r.Timestamp, 10),
			FormatTimestamp(r.Timestamp),
			r.Vendor,
			r.BaseURL,
			domain.MaskKey(r.APIKey),
			strings.Join(r.Models, ", "),
		})
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("History (%d of %d)", len(rows), len(records))))
	fmt.Fprintln(out, newTable("ID", "TIME", "VENDOR", "BASE URL", "API KEY", "MODELS").Rows(rows...).String())
}

// RenderRecord prints one record as labelled lines. The key is masked unless reveal is set.
func RenderRecord(out io.Writer, r domain.Record, reveal bool) {
	key := domain.MaskKey(r.APIKey)
	if reveal {
		key = r.APIKey
	}
	fmt.Fprintln(out, titleStyle.Render(FormatTimestamp(r.Timestamp)))
	fmt.Fprintf(out, "Vendor:   %s\n", r.Vendor)
	fmt.Fprintf(out, "Base URL: %s\n", r.BaseURL)
	fmt.Fprintf(out, "API key:  %s\n", key)
	fmt.Fprintf(out, "Models:   %s\n", strings.Join(r.Models, ", "))
}

// RenderTemplates lists template names with the first line of their content.
func RenderTemplates(out io.Writer, templates []domain.CustomTemplate) {
	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		first, _, _ := strings.Cut(t.Content, "\n")
		rows = append(rows, []string{t.Name, first})
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Templates (%d)", len(templates))))
	fmt.Fprintln(out, newTable("NAME", "PREVIEW").Rows(rows...).String())
}

// RenderAnalysis prints the parsed record with every scored candidate.
func RenderAnalysis(out io.Writer, res domain.ParseResult) {
	vendor := domain.LookupVendor(res.Record.Vendor)
	fmt.Fprintln(out, titleStyle.Render("Vendor: "+res.Record.Vendor))
	if len(vendor.Capabilities) > 0 {
		fmt.Fprintln(out, mutedStyle.Render("capabilities: "+strings.Join(vendor.Capabilities, ", ")))
	}
	rows := make([][]string, 0, len(res.URLCandidates)+len(res.KeyCandidates))
	for _, c := range res.URLCandidates {
		rows = append(rows, []string{"url", c.Value, strconv.FormatFloat(c.Score, 'f', 2, 64)})
	}
	for _, c := range res.KeyCandidates {
		rows = append(rows, []string{"key", domain.MaskKey(c.Value), strconv.FormatFloat(c.Score, 'f', 2, 64)})
	}
	fmt.Fprintln(out, newTable("FIELD", "VALUE", "SCORE").Rows(rows...).String())
}

// RenderVendors prints the vendor lookup table.
func RenderVendors(out io.Writer, vendors []domain.Vendor) {
	rows := make([][]string, 0, len(vendors))
	for _, v := range vendors {
		rows = append(rows, []string{
			v.Name,
			v.EnvPrefix,
			strings.Join(v.URLKeywords, ", "),
			strings.Join(v.KeyPrefixes, ", "),
			strings.Join(v.Capabilities, ", "),
		})
	}
	fmt.Fprintln(out, newTable("VENDOR", "ENV PREFIX", "URL KEYWORDS", "KEY PREFIXES", "CAPABILITIES").Rows(rows...).String())
}

// RenderHealth prints one line per doctor check.
func RenderHealth(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		status := strings.ToUpper(string(check.Status))
		if style, ok := statusStyles[check.Status]; ok {
			status = style.Render(status)
		}
		fmt.Fprintf(out, "[%s] %s - %s\n", status, check.Name, check.Details)
	}
}
