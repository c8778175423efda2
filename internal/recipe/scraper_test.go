package recipe

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

const jsonLDPage = `<!doctype html>
<html><head><title>Best Pasta | Food Site</title>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"WebSite","name":"Food Site"}</script>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"Organization","name":"Food Site"},
  {"@type":["Recipe","NewsArticle"],"name":"Garlic Pasta",
   "recipeIngredient":["2 garlic cloves","200g  spaghetti","Salt &amp; pepper",""]}
]}
</script></head><body></body></html>`

func TestScrapeJSONLD(t *testing.T) {
	r, err := NewHTMLScraper(logger.Nop()).Scrape(jsonLDPage, "https://example.com/pasta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Garlic Pasta" {
		t.Errorf("title = %q", r.Title)
	}
	want := []string{"2 garlic cloves", "200g spaghetti", "Salt & pepper"}
	if !reflect.DeepEqual(r.IngredientLines, want) {
		t.Errorf("lines = %q, want %q", r.IngredientLines, want)
	}
	if r.URL != "https://example.com/pasta" || r.Scale != 1 {
		t.Errorf("unexpected entry: %+v", r)
	}
}

func TestScrapeVariants(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		wantTitle string
		wantLines []string
	}{
		{
			name:      "top-level array with legacy ingredients",
			page:      `<script type="application/ld+json">[{"@type":"Recipe","ingredients":["1 cup rice"]}]</script><title>Rice</title>`,
			wantTitle: "Rice",
			wantLines: []string{"1 cup rice"},
		},
		{
			name: "microdata fallback",
			page: `<html><head><title>Soup page</title></head><body>
				<div itemscope itemtype="https://schema.org/Recipe">
				  <h1 itemprop="name">Tomato Soup</h1>
				  <ul>
				    <li itemprop="recipeIngredient">4  ripe tomatoes</li>
				    <li itemprop="recipeIngredient"><span>1</span> <span>onion</span></li>
				    <meta itemprop="recipeIngredient" content="1 tsp salt">
				  </ul>
				</div></body></html>`,
			wantTitle: "Tomato Soup",
			wantLines: []string{"4 ripe tomatoes", "1 onion", "1 tsp salt"},
		},
		{
			name:      "malformed JSON-LD falls back to microdata",
			page:      `<script type="application/ld+json">{not json</script><p itemprop="ingredients">2 eggs</p>`,
			wantTitle: "https://example.com/r",
			wantLines: []string{"2 eggs"},
		},
	}

	s := NewHTMLScraper(logger.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.Scrape(tt.page, "https://example.com/r")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", r.Title, tt.wantTitle)
			}
			if !reflect.DeepEqual(r.IngredientLines, tt.wantLines) {
				t.Errorf("lines = %q, want %q", r.IngredientLines, tt.wantLines)
			}
		})
	}
}

func TestScrapeNoRecipe(t *testing.T) {
	_, err := NewHTMLScraper(logger.Nop()).Scrape("<html><title>Blog</title><p>hello</p></html>", "https://example.com/blog")
	var serr *domain.ScrapeError
	if !errors.As(err, &serr) || serr.URL != "https://example.com/blog" {
		t.Fatalf("expected *ScrapeError, got %v", err)
	}
}

// countingFetcher serves one page and counts downloads.
type countingFetcher struct {
	page  string
	err   error
	calls int
}

func (f *countingFetcher) Fetch(context.Context, string) (string, error) {
	f.calls++
	return f.page, f.err
}

func TestSourceCachesByURL(t *testing.T) {
	log := logger.Nop()
	f := &countingFetcher{page: jsonLDPage}
	src := NewSource(f, NewHTMLScraper(log), log)
	ctx := context.Background()

	first, err := src.Get(ctx, "https://example.com/pasta")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first.IngredientLines[0] = "mutated"

	second, err := src.Get(ctx, "https://example.com/pasta")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if f.calls != 1 {
		t.Errorf("expected 1 download, got %d", f.calls)
	}
	if second.IngredientLines[0] != "2 garlic cloves" {
		t.Errorf("cached entry was mutated through a returned copy")
	}
}

func TestSourcePassesErrorsThrough(t *testing.T) {
	log := logger.Nop()
	ferr := &domain.FetchError{Reason: domain.FetchPaywall, URL: "u", Status: 403}
	src := NewSource(&countingFetcher{err: ferr}, NewHTMLScraper(log), log)

	_, err := src.Get(context.Background(), "u")
	var got *domain.FetchError
	if !errors.As(err, &got) || got.Reason != domain.FetchPaywall {
		t.Fatalf("expected paywall FetchError, got %v", err)
	}

	_, err = src.FromHTML("<p>nothing</p>", "https://unknown")
	var serr *domain.ScrapeError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *ScrapeError, got %v", err)
	}
}
