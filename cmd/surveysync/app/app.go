// Package app provides the application context and dependency management
// for the surveysync CLI. It centralizes configuration, logging and the
// lazily created survey service client and database handle.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/surveysync/internal/appcontext"
	"github.com/agentstation/surveysync/internal/mapping"
	"github.com/agentstation/surveysync/internal/retry"
	"github.com/agentstation/surveysync/internal/store"
	"github.com/agentstation/surveysync/internal/surveyxact"
	"github.com/agentstation/surveysync/pkg/errors"
)

// App represents the surveysync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Lazily created, shared across a command run
	mu     sync.Mutex
	client *surveyxact.Client
	db     *store.DB
}

var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Tables returns the configured table names.
func (a *App) Tables() appcontext.Tables {
	return appcontext.Tables{
		Source: a.config.SourceTable,
		Log:    a.config.LogTable,
		Answer: a.config.AnswerTable,
	}
}

// FieldMap returns the field map from field_map, or the default
// BASESURVEY mapping when none is configured.
func (a *App) FieldMap() (mapping.FieldMap, error) {
	if a.config.FieldMapFile == "" {
		return mapping.Default(), nil
	}
	return mapping.LoadFile(a.config.FieldMapFile)
}

// RetryPolicy returns the retry policy for persistence steps.
func (a *App) RetryPolicy() retry.Policy {
	return retry.Default().WithAttempts(a.config.RetryAttempts)
}

// Concurrency returns how many respondents are processed at once.
func (a *App) Concurrency() int {
	return a.config.Concurrency
}

// SurveyClient returns the survey service client, creating it lazily.
func (a *App) SurveyClient() (*surveyxact.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	client, err := surveyxact.New(surveyxact.Config{
		BaseURL:   a.config.SurveyBaseURL,
		User:      a.config.SurveyUser,
		Password:  a.config.SurveyPassword,
		RateLimit: a.config.SurveyRateLimit,
		Timeout:   a.config.SurveyTimeout,
		Charset:   a.config.PayloadCharset,
	})
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// Database returns the database handle, connecting lazily.
func (a *App) Database(ctx context.Context) (*store.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db != nil {
		return a.db, nil
	}
	if a.config.DBDSN == "" {
		return nil, errors.NewConfigError("database", "db_dsn must be set", nil)
	}

	db, err := store.Open(ctx, store.Config{
		Driver:       a.config.DBDriver,
		DSN:          a.config.DBDSN,
		MaxOpenConns: a.config.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

// Shutdown closes the database connection if one was opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return errors.WrapResource("close", "database", "", err)
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithDatabase sets an already opened database (useful for testing).
func WithDatabase(db *store.DB) Option {
	return func(a *App) error {
		a.db = db
		return nil
	}
}
