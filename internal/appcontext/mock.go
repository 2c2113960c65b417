package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/surveysync/internal/mapping"
	"github.com/agentstation/surveysync/internal/retry"
	"github.com/agentstation/surveysync/internal/store"
	"github.com/agentstation/surveysync/internal/surveyxact"
	"github.com/agentstation/surveysync/pkg/constants"
	"github.com/agentstation/surveysync/pkg/errors"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
//
// Example Usage:
//
//	mock := &appcontext.Mock{
//	    DatabaseFunc: func(ctx context.Context) (*store.DB, error) {
//	        return testDB, nil
//	    },
//	}
//	cmd := schema.NewCommand(mock)
type Mock struct {
	SurveyClientFunc func() (*surveyxact.Client, error)
	DatabaseFunc     func(ctx context.Context) (*store.DB, error)
	TablesFunc       func() Tables
	FieldMapFunc     func() (mapping.FieldMap, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
}

var _ Interface = (*Mock)(nil)

// SurveyClient returns a client using the mock function or an error.
func (m *Mock) SurveyClient() (*surveyxact.Client, error) {
	if m.SurveyClientFunc != nil {
		return m.SurveyClientFunc()
	}
	return nil, errors.ErrCredentialsRequired
}

// Database returns a database using the mock function or an error.
func (m *Mock) Database(ctx context.Context) (*store.DB, error) {
	if m.DatabaseFunc != nil {
		return m.DatabaseFunc(ctx)
	}
	return nil, errors.NewConfigError("database", "no database configured", nil)
}

// Tables returns table names using the mock function or the defaults.
func (m *Mock) Tables() Tables {
	if m.TablesFunc != nil {
		return m.TablesFunc()
	}
	return Tables{
		Source: constants.DefaultSourceTable,
		Log:    constants.DefaultLogTable,
		Answer: constants.DefaultAnswerTable,
	}
}

// FieldMap returns a field map using the mock function or the default map.
func (m *Mock) FieldMap() (mapping.FieldMap, error) {
	if m.FieldMapFunc != nil {
		return m.FieldMapFunc()
	}
	return mapping.Default(), nil
}

// RetryPolicy returns the default policy.
func (m *Mock) RetryPolicy() retry.Policy {
	return retry.Default()
}

// Concurrency returns 1.
func (m *Mock) Concurrency() int {
	return 1
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns "dev".
func (m *Mock) Version() string { return "dev" }

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }
