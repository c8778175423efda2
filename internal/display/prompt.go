package display

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hammamikhairi/grocery/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.Prompter = (*TeaPrompter)(nil)
	_ domain.Prompter = (*LinePrompter)(nil)
)

// ErrAborted is returned when the user cancels a prompt with Ctrl+C or Esc.
var ErrAborted = errors.New("input aborted")

// NewPrompter returns a TeaPrompter when stdin and stdout are terminals
// and a LinePrompter otherwise, so piped input keeps working.
func NewPrompter(in *os.File, out *os.File) domain.Prompter {
	if IsTerminal(in) && IsTerminal(out) {
		return NewTeaPrompter(in, out)
	}
	return NewLinePrompter(in, out)
}

// ── Bubble Tea prompter ──────────────────────────────────────────

// TeaPrompter asks each question with a one-shot Bubble Tea text input.
type TeaPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewTeaPrompter creates a prompter reading keys from in.
func NewTeaPrompter(in io.Reader, out io.Writer) *TeaPrompter {
	return &TeaPrompter{in: in, out: out}
}

// Ask shows question above a text input and returns the entered line.
func (p *TeaPrompter) Ask(ctx context.Context, question string) (string, error) {
	prog := tea.NewProgram(newAskModel(question),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("display: prompt: %w", err)
	}
	m, ok := final.(askModel)
	if !ok || m.aborted {
		return "", ErrAborted
	}
	return m.answer, nil
}

type askModel struct {
	question string
	input    textinput.Model
	answer   string
	done     bool
	aborted  bool
}

func newAskModel(question string) askModel {
	ti := textinput.New()
	// Plain-text prompt keeps the textinput width math correct.
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle
	ti.TextStyle = primaryStyle
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60
	return askModel{question: question, input: ti}
}

func (m askModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m askModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.answer = m.input.Value()
			m.done = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		const promptLen = 2
		if msg.Width > promptLen {
			m.input.Width = msg.Width - promptLen
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m askModel) View() string {
	q := primaryStyle.Render(m.question)
	switch {
	case m.done:
		return q + " " + secondaryStyle.Render(m.answer) + "\n"
	case m.aborted:
		return q + "\n"
	}
	return q + "\n" + m.input.View()
}

// ── Line prompter ────────────────────────────────────────────────

// LinePrompter reads answers line by line, for pipes and dumb terminals.
type LinePrompter struct {
	r   *bufio.Reader
	out io.Writer
}

// NewLinePrompter creates a prompter reading lines from in.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{r: bufio.NewReader(in), out: out}
}

// Ask prints question and returns the next line without its newline.
// End of input with nothing typed is io.EOF.
func (p *LinePrompter) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(p.out, "%s ", question)
	line, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
