package recipe

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

// HTMLScraper reads schema.org Recipe data from a page: JSON-LD first,
// then microdata.
type HTMLScraper struct {
	log *logger.Logger
}

// NewHTMLScraper creates a scraper.
func NewHTMLScraper(log *logger.Logger) *HTMLScraper {
	return &HTMLScraper{log: log.Named("scrape")}
}

// page is what one pass over the document collects.
type page struct {
	jsonLD     []string
	title      string
	microTitle string
	microLines []string
}

// Scrape extracts a recipe. A page without ingredient lines is a
// *domain.ScrapeError.
func (s *HTMLScraper) Scrape(doc, url string) (*domain.RecipeEntry, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, &domain.ScrapeError{URL: url, Reason: "invalid HTML: " + err.Error()}
	}

	var p page
	p.walk(root, false)

	title, lines := s.fromJSONLD(p.jsonLD)
	if len(lines) == 0 {
		lines = p.microLines
		if title == "" {
			title = p.microTitle
		}
		if len(lines) > 0 {
			s.log.Debug("%s: using microdata (%d lines)", url, len(lines))
		}
	}
	if len(lines) == 0 {
		return nil, &domain.ScrapeError{
			URL:    url,
			Reason: "no ingredients found; the page may not contain a recipe. Save the page HTML and use --html",
		}
	}

	if title == "" {
		title = p.title
	}
	if title == "" {
		title = url
	}
	return &domain.RecipeEntry{Title: title, URL: url, IngredientLines: lines, Scale: 1}, nil
}

func (p *page) walk(n *html.Node, inRecipe bool) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script:
			if strings.EqualFold(strings.TrimSpace(attr(n, "type")), "application/ld+json") {
				p.jsonLD = append(p.jsonLD, textOf(n))
			}
			return
		case atom.Title:
			if p.title == "" {
				p.title = clean(textOf(n))
			}
			return
		}

		if strings.Contains(attr(n, "itemtype"), "schema.org/Recipe") {
			inRecipe = true
		}
		switch attr(n, "itemprop") {
		case "recipeIngredient", "ingredients":
			if line := clean(itemValue(n)); line != "" {
				p.microLines = append(p.microLines, line)
			}
			return
		case "name":
			if inRecipe && p.microTitle == "" {
				p.microTitle = clean(itemValue(n))
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, inRecipe)
	}
}

// fromJSONLD returns the first Recipe with ingredients across all blocks.
func (s *HTMLScraper) fromJSONLD(blocks []string) (string, []string) {
	for _, block := range blocks {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(block)), &v); err != nil {
			s.log.Debug("skipping malformed JSON-LD block: %v", err)
			continue
		}
		for _, r := range findRecipes(v) {
			lines := stringList(r["recipeIngredient"])
			if len(lines) == 0 {
				lines = stringList(r["ingredients"])
			}
			if len(lines) > 0 {
				name, _ := r["name"].(string)
				return clean(name), lines
			}
		}
	}
	return "", nil
}

// findRecipes walks objects, arrays and @graph containers.
func findRecipes(v any) []map[string]any {
	var out []map[string]any
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			out = append(out, findRecipes(item)...)
		}
	case map[string]any:
		if isRecipeType(t["@type"]) {
			out = append(out, t)
		}
		if g, ok := t["@graph"]; ok {
			out = append(out, findRecipes(g)...)
		}
		if m, ok := t["mainEntity"]; ok {
			out = append(out, findRecipes(m)...)
		}
	}
	return out
}

func isRecipeType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Recipe" || strings.HasSuffix(t, "/Recipe")
	case []any:
		for _, item := range t {
			if isRecipeType(item) {
				return true
			}
		}
	}
	return false
}

func stringList(v any) []string {
	var out []string
	switch t := v.(type) {
	case string:
		if line := clean(t); line != "" {
			out = append(out, line)
		}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				if line := clean(s); line != "" {
					out = append(out, line)
				}
			}
		}
	}
	return out
}

// clean unescapes entities left inside JSON strings, strips stray tags
// and collapses whitespace.
func clean(s string) string {
	s = html.UnescapeString(s)
	if strings.Contains(s, "<") {
		if frag, err := html.Parse(strings.NewReader(s)); err == nil {
			s = textOf(frag)
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// itemValue is the microdata value: content= wins over text.
func itemValue(n *html.Node) string {
	if c := attr(n, "content"); c != "" {
		return c
	}
	return textOf(n)
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return b.String()
}
