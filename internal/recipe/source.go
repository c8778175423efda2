package recipe

import (
	"context"
	"fmt"
	"sync"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

// Source turns a recipe URL, or saved page HTML, into a RecipeEntry.
// Scraped recipes are kept for the life of the process so adding the
// same URL twice costs one download. Safe for concurrent use.
type Source struct {
	fetcher domain.Fetcher
	scraper domain.Scraper
	log     *logger.Logger

	mu      sync.RWMutex
	recipes map[string]domain.RecipeEntry
}

// NewSource creates a Source from a fetcher and a scraper.
func NewSource(fetcher domain.Fetcher, scraper domain.Scraper, log *logger.Logger) *Source {
	return &Source{
		fetcher: fetcher,
		scraper: scraper,
		log:     log.Named("recipes"),
		recipes: make(map[string]domain.RecipeEntry),
	}
}

// Get downloads and scrapes url. Errors are *domain.FetchError or
// *domain.ScrapeError.
func (s *Source) Get(ctx context.Context, url string) (*domain.RecipeEntry, error) {
	s.mu.RLock()
	r, ok := s.recipes[url]
	s.mu.RUnlock()
	if ok {
		s.log.Debug("cache hit for %s", url)
		return copyEntry(r), nil
	}

	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.log.Warn("fetch failed: %s", describe(err))
		return nil, err
	}
	entry, err := s.FromHTML(page, url)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.recipes[url] = *copyEntry(*entry)
	s.mu.Unlock()
	return entry, nil
}

// FromHTML scrapes page HTML the user saved themselves, e.g. for a
// paywalled recipe. url is kept for reference only.
func (s *Source) FromHTML(page, url string) (*domain.RecipeEntry, error) {
	entry, err := s.scraper.Scrape(page, url)
	if err != nil {
		s.log.Warn("scrape failed for %s: %v", url, err)
		return nil, err
	}
	if len(entry.IngredientLines) == 0 {
		return nil, &domain.ScrapeError{URL: url, Reason: fmt.Sprintf("%q has no ingredients", entry.Title)}
	}
	s.log.Info("scraped %q from %s (%d ingredients)", entry.Title, url, len(entry.IngredientLines))
	return entry, nil
}

func copyEntry(r domain.RecipeEntry) *domain.RecipeEntry {
	r.IngredientLines = append([]string(nil), r.IngredientLines...)
	return &r
}
