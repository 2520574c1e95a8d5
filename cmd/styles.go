package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DachengChen/chatdb/db"
	"github.com/DachengChen/chatdb/reply"
	"github.com/DachengChen/chatdb/sqlgate"
)

// Simple palette inspired by standard terminal dark themes
var (
	ColorPrimary   = lipgloss.Color("255") // White
	ColorSecondary = lipgloss.Color("240") // Dark Gray
	ColorAccent    = lipgloss.Color("39")  // Blue / Cyan
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("196") // Red
	ColorWarning   = lipgloss.Color("214") // Orange
)

var (
	StyleDimmed  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StyleBold    = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)
)

// renderOutcome formats a parsed reply for the terminal.
func renderOutcome(o reply.Outcome) string {
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("format: "+string(o.Format)) + "\n")

	if o.Text != "" {
		sb.WriteString("\n" + o.Text + "\n")
	}
	if o.SQL != "" {
		sb.WriteString("\n" + StyleBorder.Render(o.SQL) + "\n")
	}
	if len(o.Visualization) > 0 {
		sb.WriteString("\n" + StyleDimmed.Render("chart: "+o.ChartType) + "\n")
		sb.WriteString(indentJSON(o.Visualization) + "\n")
	} else if o.Format == reply.FormatJSON {
		sb.WriteString("\n" + StyleWarning.Render("no valid chart JSON in reply") + "\n")
	}
	return sb.String()
}

// renderVerdict formats an admission verdict on one line.
func renderVerdict(v sqlgate.Verdict) string {
	if v.Allowed {
		return StyleSuccess.Render("✓ allowed")
	}
	return StyleError.Render("✗ rejected") + " " + v.Reason
}

// renderTable lays out a query result as aligned columns.
func renderTable(res *db.QueryResult) string {
	if len(res.Columns) == 0 {
		return StyleDimmed.Render("(no columns)")
	}

	cells := make([][]string, len(res.Rows))
	widths := make([]int, len(res.Columns))
	for i, c := range res.Columns {
		widths[i] = lipgloss.Width(c)
	}
	for r, row := range res.Rows {
		cells[r] = make([]string, len(res.Columns))
		for i, c := range res.Columns {
			s := formatCell(row[c])
			cells[r][i] = s
			if w := lipgloss.Width(s); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	header := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = StyleBold.Render(pad(c, widths[i]))
	}
	sb.WriteString(strings.Join(header, "  ") + "\n")

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	sb.WriteString(StyleDimmed.Render(strings.Join(rule, "  ")) + "\n")

	for _, row := range cells {
		line := make([]string, len(row))
		for i, s := range row {
			line[i] = pad(s, widths[i])
		}
		sb.WriteString(strings.TrimRight(strings.Join(line, "  "), " ") + "\n")
	}

	footer := fmt.Sprintf("(%d row%s)", res.RowCount, plural(res.RowCount))
	if res.Truncated {
		footer += " truncated"
	}
	sb.WriteString(StyleDimmed.Render(footer))
	return sb.String()
}

// renderSchema lists tables and their columns.
func renderSchema(s db.Schema) string {
	var sb strings.Builder
	tables := s.Tables()
	for i, name := range tables {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(StyleTitle.Render(name) + "\n")
		for _, c := range s[name] {
			sb.WriteString("  " + c.Name + " " + StyleDimmed.Render(c.DataType) + "\n")
		}
	}
	sb.WriteString(StyleDimmed.Render(fmt.Sprintf("(%d table%s)", len(tables), plural(len(tables)))))
	return sb.String()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
