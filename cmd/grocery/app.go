package main

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/hammamikhairi/grocery/internal/config"
	"github.com/hammamikhairi/grocery/internal/consolidate"
	"github.com/hammamikhairi/grocery/internal/conversation"
	"github.com/hammamikhairi/grocery/internal/display"
	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/engine"
	"github.com/hammamikhairi/grocery/internal/lists"
	"github.com/hammamikhairi/grocery/internal/llm"
	"github.com/hammamikhairi/grocery/internal/logger"
	"github.com/hammamikhairi/grocery/internal/recipe"
	"github.com/hammamikhairi/grocery/internal/storage"
)

// SQLiteFile holds the staples and pantry tables with the sqlite backend.
const SQLiteFile = "grocery.db"

type rootFlags struct {
	config  string
	dir     string
	verbose bool
	quiet   bool
	logFile string
}

// app carries the wired dependencies shared by every command.
type app struct {
	flags rootFlags

	cfg      *config.Config
	log      *logger.Logger
	ui       *display.UI
	prompter domain.Prompter
	notifier domain.Notifier

	// model is nil until wire runs; modelErr explains why it could not
	// be built.
	model    domain.LanguageModel
	modelErr error

	engine  *engine.Engine
	source  *recipe.Source
	staples *lists.Manager
	pantry  *lists.Manager

	closers []io.Closer
}

// setup loads configuration, opens the log and wires everything. It is
// a no-op once the engine exists, so tests can pre-wire an app.
func (a *app) setup(ctx context.Context) error {
	if a.engine != nil {
		return nil
	}

	cfg, err := config.Load(a.flags.config, a.flags.dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	a.cfg = cfg

	logLevel := cfg.Level()
	if a.flags.verbose {
		logLevel = logger.LevelVerbose
	}
	if a.flags.quiet {
		logLevel = logger.LevelOff
	}

	// Logs go to a file by default so prompts stay clean.
	logPath := a.flags.logFile
	if logPath == "" {
		logPath = filepath.Join(cfg.DataDir, "grocery.log")
	}
	var logOut io.Writer = os.Stderr
	if logPath != "stderr" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", logPath, err)
		} else {
			logOut = f
			a.closers = append(a.closers, f)
		}
	}

	// Third-party packages that use the standard log write to the same place.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	a.log = logger.New(logLevel, logOut)
	return a.wire(ctx)
}

// wire builds every collaborator from a.cfg. Fields already set are kept.
func (a *app) wire(ctx context.Context) error {
	log := a.log

	if a.model == nil {
		if err := a.cfg.RequireCredential(); err != nil {
			a.modelErr = err
			log.Info("language model disabled: %v", err)
		} else {
			m, err := llm.New(ctx, a.cfg.LLM, log)
			if err != nil {
				return err
			}
			a.model = m
		}
	}

	sessions, err := storage.NewFileStore(a.cfg.DataDir, log)
	if err != nil {
		return err
	}
	staples, pantry, err := a.openLists()
	if err != nil {
		return err
	}
	a.staples = lists.New("staples", staples, log)
	a.pantry = lists.New("pantry", pantry, log)

	var model domain.LanguageModel = unavailableModel{err: a.requireModel()}
	if a.model != nil {
		model = a.model
	}
	consolidator := consolidate.New(model, log, consolidate.WithSystemPrompt(a.cfg.SystemPrompt))
	a.engine = engine.New(sessions, consolidator, staples, log,
		engine.WithSections(a.cfg.StoreSections),
	)

	fetcher := recipe.NewHTTPFetcher(log,
		recipe.WithTimeout(a.cfg.Fetch.Timeout),
		recipe.WithUserAgent(a.cfg.Fetch.UserAgent),
	)
	a.source = recipe.NewSource(fetcher, recipe.NewHTMLScraper(log), log)

	if a.notifier == nil {
		a.notifier = conversation.NewCLINotifier(log, a.ui.Printf)
	}
	if a.prompter == nil {
		a.prompter = display.NewPrompter(os.Stdin, os.Stdout)
	}
	return nil
}

// openLists returns the staples and pantry stores for the configured
// backend.
func (a *app) openLists() (domain.ListStore, domain.ListStore, error) {
	dir := a.cfg.DataDir
	switch a.cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := storage.OpenSQLite(filepath.Join(dir, SQLiteFile), "staples", "pantry")
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db)
		return db.List("staples"), db.List("pantry"), nil
	default:
		return storage.NewJSONListStore(filepath.Join(dir, storage.StaplesFile)),
			storage.NewJSONListStore(filepath.Join(dir, storage.PantryFile)), nil
	}
}

// requireModel fails fast, before any prompt or network work, when no
// language model is configured.
func (a *app) requireModel() error {
	switch {
	case a.model != nil:
		return nil
	case a.modelErr != nil:
		return a.modelErr
	}
	return fmt.Errorf("language model is not configured")
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
	a.closers = nil
}

// unavailableModel stands in for the language model when no credential
// is configured.
type unavailableModel struct {
	err error
}

func (m unavailableModel) Complete(ctx context.Context, system, user string) (string, error) {
	return "", m.err
}
