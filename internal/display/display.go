// Package display renders grocery output in the terminal with lipgloss
// and reads answers from the user, through a Bubble Tea text input on a
// terminal or a plain line reader otherwise.
package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hammamikhairi/grocery/internal/domain"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	// BannerStyle is a muted slate for the banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#86efac"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5")).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd")).
			Bold(true)

	finalizedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#86efac"))
	progressStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#fde68a"))
	tableHeader    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCell      = lipgloss.NewStyle().Padding(0, 1)
	tableBorder    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52525b"))
)

// ── UI ───────────────────────────────────────────────────────────

// UI writes styled lines to an output stream.
type UI struct {
	out io.Writer
}

// NewUI creates a UI writing to out.
func NewUI(out io.Writer) *UI {
	return &UI{out: out}
}

// Println prints a plain line.
func (u *UI) Println(a ...interface{}) {
	fmt.Fprintln(u.out, a...)
}

// Printf prints formatted text on its own line.
func (u *UI) Printf(format string, a ...interface{}) {
	fmt.Fprintln(u.out, fmt.Sprintf(format, a...))
}

// PrintHeading prints a bold section heading.
func (u *UI) PrintHeading(text string) {
	u.Println(headingStyle.Render(text))
}

// PrintSuccess prints a check-marked confirmation.
func (u *UI) PrintSuccess(text string) {
	u.Println(successStyle.Render("✓") + " " + primaryStyle.Render(text))
}

// PrintFailure prints a cross-marked failure for one item of a batch.
func (u *UI) PrintFailure(text string) {
	u.Println(urgentStyle.Render("✗") + " " + primaryStyle.Render(text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render(text))
}

// PrintUrgent prints an error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentStyle.Render(text))
}

// PrintChecklist prints a formatted checklist with styled section
// headers. The text itself is the plain checklist written to disk.
func (u *UI) PrintChecklist(text string) {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		switch {
		case i+1 < len(lines) && isUnderline(lines[i+1], l):
			u.Println(sectionStyle.Render(l))
		case isUnderline(l, ""):
			u.Println(secondaryStyle.Render(l))
		default:
			u.Println(primaryStyle.Render(l))
		}
	}
}

// isUnderline reports whether l is a dash rule, matching header's
// length when header is given.
func isUnderline(l, header string) bool {
	if l == "" || strings.Trim(l, "-") != "" {
		return false
	}
	return header == "" || len(l) == len(header)
}

// SessionTable renders sessions as a bordered table.
func SessionTable(sessions []*domain.Session) string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		name := s.Name
		if name == "" {
			name = "—"
		}
		rows = append(rows, []string{s.ID, name, strconv.Itoa(len(s.Recipes)), statusLabel(s)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		Headers("ID", "Name", "Recipes", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			style := tableCell
			if col == 2 {
				style = style.Align(lipgloss.Right)
			}
			if col == 3 && row >= 0 && row < len(sessions) {
				if sessions[row].Finalized {
					return style.Inherit(finalizedStyle)
				}
				return style.Inherit(progressStyle)
			}
			return style
		})
	return t.String()
}

func statusLabel(s *domain.Session) string {
	if s.Finalized {
		return "Finalized"
	}
	return "In progress"
}

// SessionSummary renders the recipes, extra items and processed
// ingredients of a session with 1-based indices.
func SessionSummary(s *domain.Session) string {
	var b strings.Builder
	title := s.ID
	if s.Name != "" {
		title = fmt.Sprintf("%s (%s)", s.Name, s.ID)
	}
	fmt.Fprintf(&b, "%s  %s\n", headingStyle.Render(title), secondaryStyle.Render("["+s.State().String()+"]"))

	b.WriteString("\n" + sectionStyle.Render("Recipes") + "\n")
	if len(s.Recipes) == 0 {
		b.WriteString(secondaryStyle.Render("  none") + "\n")
	}
	for i, r := range s.Recipes {
		scale := ""
		if r.Scale != 1 {
			scale = fmt.Sprintf(" x%g", r.Scale)
		}
		fmt.Fprintf(&b, "  %d. %s%s %s\n", i+1, primaryStyle.Render(r.Title), scale,
			secondaryStyle.Render(fmt.Sprintf("(%d ingredients)", len(r.IngredientLines))))
	}

	b.WriteString("\n" + sectionStyle.Render("Extra items") + "\n")
	if len(s.ExtraItems) == 0 {
		b.WriteString(secondaryStyle.Render("  none") + "\n")
	}
	for i, it := range s.ExtraItems {
		fmt.Fprintf(&b, "  %d. %s %s\n", i+1, primaryStyle.Render(it.Text), secondaryStyle.Render(it.SourceLabel))
	}

	b.WriteString("\n" + sectionStyle.Render("Ingredients") + "\n")
	if len(s.ProcessedIngredients) == 0 {
		b.WriteString(secondaryStyle.Render("  none") + "\n")
	}
	for i, ing := range s.ProcessedIngredients {
		fmt.Fprintf(&b, "  %d. %s %s %s\n", i+1, primaryStyle.Render(ing.Label()),
			secondaryStyle.Render("("+ing.Section+")"), confirmationMark(ing.ConfirmedHave))
	}
	return strings.TrimRight(b.String(), "\n")
}

func confirmationMark(c domain.Confirmation) string {
	switch c {
	case domain.ConfirmHave:
		return successStyle.Render("have")
	case domain.ConfirmNeedToBuy:
		return progressStyle.Render("buy")
	}
	return secondaryStyle.Render("?")
}

// NamedItems renders staples or pantry items one per line.
func NamedItems(items []domain.NamedItem) string {
	var b strings.Builder
	for i, it := range items {
		if it.Quantity != "" {
			fmt.Fprintf(&b, "  %d. %s %s\n", i+1, primaryStyle.Render(it.Name), secondaryStyle.Render("("+it.Quantity+")"))
		} else {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, primaryStyle.Render(it.Name))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
