package display

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hammamikhairi/grocery/internal/domain"
)

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("y\r\nmaybe\nlast"), &out)
	ctx := context.Background()

	for _, want := range []string{"y", "maybe", "last"} {
		got, err := p.Ask(ctx, "Do you have 3 egg? (y/n)")
		if err != nil {
			t.Fatalf("ask: %v", err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if _, err := p.Ask(ctx, "again?"); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
	if !strings.Contains(out.String(), "Do you have 3 egg? (y/n) ") {
		t.Errorf("question not printed: %q", out.String())
	}
}

func TestLinePrompterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLinePrompter(strings.NewReader("y\n"), io.Discard).Ask(ctx, "q"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAskModel(t *testing.T) {
	var m tea.Model = newAskModel("Recipe URL")
	for _, r := range "https://x.test" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should quit")
	}
	am := m.(askModel)
	if !am.done || am.answer != "https://x.test" {
		t.Fatalf("got done=%v answer=%q", am.done, am.answer)
	}
	if !strings.Contains(am.View(), "https://x.test") {
		t.Errorf("final view should echo the answer: %q", am.View())
	}
}

func TestAskModelAbort(t *testing.T) {
	m, _ := newAskModel("q").Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.(askModel).aborted {
		t.Fatal("ctrl+c should abort")
	}
}

func TestSessionTable(t *testing.T) {
	out := SessionTable([]*domain.Session{
		{ID: "2024-03-09-tacos", Name: "Tacos", Recipes: []domain.RecipeEntry{{Title: "a"}, {Title: "b"}}},
		{ID: "2024-03-10-session", Finalized: true},
	})
	for _, want := range []string{"ID", "2024-03-09-tacos", "Tacos", "2", "In progress", "2024-03-10-session", "Finalized"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestSessionSummary(t *testing.T) {
	s := &domain.Session{
		ID:      "2024-03-09-session",
		Recipes: []domain.RecipeEntry{{Title: "Soup", IngredientLines: []string{"1 onion"}, Scale: 2}},
		ExtraItems: []domain.RawIngredientLine{
			{Text: "1 dozen eggs", SourceLabel: domain.LabelManual},
		},
		ProcessedIngredients: []domain.NormalizedIngredient{
			{Name: "onion", Quantity: "2", Section: "Produce", ConfirmedHave: domain.ConfirmNeedToBuy},
		},
	}
	out := SessionSummary(s)
	for _, want := range []string{"1. ", "Soup", "x2", "1 dozen eggs", "[added manually]", "2 onion", "Produce", "buy"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintChecklist(t *testing.T) {
	var out bytes.Buffer
	NewUI(&out).PrintChecklist("Produce\n-------\n[ ] 2 onion")
	for _, want := range []string{"Produce", "-------", "[ ] 2 onion"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %q", want, out.String())
		}
	}
}

func TestRenderBanner(t *testing.T) {
	if got := RenderBanner(200); !strings.HasPrefix(got, " ") || strings.Count(got, "\n") < 3 {
		t.Errorf("banner not centred: %q", got)
	}
}
