package format

import (
	"strings"
	"testing"

	"github.com/hammamikhairi/grocery/internal/domain"
)

func item(name, qty, section string) domain.NormalizedIngredient {
	return domain.NormalizedIngredient{Name: name, Quantity: qty, Section: section, Sources: []string{name}}
}

func TestChecklist(t *testing.T) {
	sections := []string{"Produce", "Dairy & Eggs", "Other"}
	got := Checklist([]domain.NormalizedIngredient{
		item("milk", "240ml [1 cup]", "Dairy & Eggs"),
		item("garlic clove", "5 cloves", "Produce"),
		item("saffron", "1 pinch", "Spices"),
		item("onion", "2", "Produce"),
	}, sections)

	want := `Produce
-------
[ ] 5 cloves garlic clove
[ ] 2 onion

Dairy & Eggs
------------
[ ] 240ml [1 cup] milk

Other
-----
[ ] 1 pinch saffron`
	if got != want {
		t.Errorf("checklist mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestChecklistSkipsEmptySections(t *testing.T) {
	got := Checklist([]domain.NormalizedIngredient{
		item("carrot", "2", "Produce"),
		item("cumin", "1 tsp", "Spices"),
	}, []string{"Produce", "Dairy & Eggs"})

	if !strings.Contains(got, "Produce") {
		t.Errorf("expected Produce block:\n%s", got)
	}
	if strings.Contains(got, "Dairy & Eggs") {
		t.Errorf("empty section must be omitted:\n%s", got)
	}
	if !strings.Contains(got, "[ ] 1 tsp cumin") {
		t.Errorf("unlisted section item was dropped:\n%s", got)
	}
	if strings.HasPrefix(got, "\n") || strings.HasSuffix(got, "\n") {
		t.Errorf("output must be trimmed: %q", got)
	}
}

func TestChecklistEmpty(t *testing.T) {
	if got := Checklist(nil, []string{"Produce"}); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestNeedToBuy(t *testing.T) {
	items := []domain.NormalizedIngredient{item("a", "1", "Other"), item("b", "1", "Other"), item("c", "1", "Other")}
	items[0].ConfirmedHave = domain.ConfirmHave
	items[1].ConfirmedHave = domain.ConfirmNeedToBuy

	got := NeedToBuy(items)
	if len(got) != 1 || got[0].Name != "b" {
		t.Fatalf("got %+v, want only b", got)
	}
}
