// Package appcontext provides the shared application context interface
// used by all commands. Commands accept this interface rather than the
// concrete App type so they can be tested with Mock.
package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/surveysync/internal/mapping"
	"github.com/agentstation/surveysync/internal/retry"
	"github.com/agentstation/surveysync/internal/store"
	"github.com/agentstation/surveysync/internal/surveyxact"
)

// Tables names the database tables the commands work with.
type Tables struct {
	Source string
	Log    string
	Answer string
}

// Interface defines the application context interface that commands need.
type Interface interface {
	// SurveyClient returns the survey service client, creating it lazily.
	SurveyClient() (*surveyxact.Client, error)

	// Database returns the shared database handle, connecting lazily.
	Database(ctx context.Context) (*store.DB, error)

	// Tables returns the configured table names.
	Tables() Tables

	// FieldMap returns the configured payload mapping.
	FieldMap() (mapping.FieldMap, error)

	// RetryPolicy returns the retry policy for persistence steps.
	RetryPolicy() retry.Policy

	// Concurrency returns how many respondents are processed at once.
	Concurrency() int

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
