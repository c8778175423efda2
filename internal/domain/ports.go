package domain

import "context"

// SessionStore persists sessions and the pointer to the current one.
// Implementations can be in-memory, file-based, or any other backend.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// List returns every readable session. Unreadable records are skipped.
	List(ctx context.Context) ([]*Session, error)
	SetCurrent(ctx context.Context, id string) error
	// CurrentID returns ErrNoActiveSession when no pointer exists.
	CurrentID(ctx context.Context) (string, error)
	ClearCurrent(ctx context.Context) error
}

// ListStore holds one deduplicated collection of named items, such as
// the staples or the pantry.
type ListStore interface {
	Items(ctx context.Context) ([]NamedItem, error)
	// Add stores the item unless its name already exists. Reports
	// whether anything changed.
	Add(ctx context.Context, item NamedItem) (bool, error)
	// Remove deletes the named item. Reports whether anything changed.
	Remove(ctx context.Context, name string) (bool, error)
}

// LanguageModel sends one system + user prompt pair and returns the
// model's free-form reply.
type LanguageModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Consolidator turns raw ingredient lines into normalized ingredients.
type Consolidator interface {
	Consolidate(ctx context.Context, lines []RawIngredientLine, sections []string) ([]NormalizedIngredient, error)
}

// Fetcher downloads a recipe page. Failures are *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Scraper extracts a recipe from page HTML. Failures are *ScrapeError.
type Scraper interface {
	Scrape(html, url string) (*RecipeEntry, error)
}

// Prompter asks the user a question and blocks until a line is entered.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Notifier delivers messages to the user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}
