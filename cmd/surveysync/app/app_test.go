package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/surveysync/internal/store"
	"github.com/agentstation/surveysync/pkg/errors"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		SurveyUser:     "u",
		SurveyPassword: "p",
		SurveyBaseURL:  "http://127.0.0.1:0",
		DBDriver:       "sqlite",
		DBDSN:          filepath.Join(t.TempDir(), "app.db"),
		SourceTable:    "source",
		LogTable:       "sx_log",
		AnswerTable:    "sx_answer",
		RetryAttempts:  2,
		Concurrency:    3,
		LogFormat:      "json",
		LogOutput:      "discard",
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	logger := zerolog.Nop()
	app, err := New("1.0.0", "abc123", "2024-01-01", "test", WithConfig(testConfig(t)), WithLogger(&logger))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app := newTestApp(t)

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if got := app.Tables().Log; got != "sx_log" {
		t.Errorf("Tables().Log = %s, want sx_log", got)
	}
	if got := app.RetryPolicy().Attempts; got != 2 {
		t.Errorf("RetryPolicy().Attempts = %d, want 2", got)
	}
	if got := app.Concurrency(); got != 3 {
		t.Errorf("Concurrency() = %d, want 3", got)
	}
}

func TestApp_FieldMap(t *testing.T) {
	app := newTestApp(t)

	fields, err := app.FieldMap()
	if err != nil {
		t.Fatalf("FieldMap() failed: %v", err)
	}
	if len(fields) == 0 {
		t.Error("default field map is empty")
	}

	app.config.FieldMapFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := app.FieldMap(); err == nil {
		t.Error("expected error for missing field map file")
	}
}

// TestApp_SurveyClient_Singleton verifies the client is created once.
func TestApp_SurveyClient_Singleton(t *testing.T) {
	app := newTestApp(t)

	const goroutines = 20
	var wg sync.WaitGroup
	seen := make(chan any, goroutines)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := app.SurveyClient()
			if err != nil {
				t.Errorf("SurveyClient() failed: %v", err)
				return
			}
			seen <- c
		}()
	}
	wg.Wait()
	close(seen)

	var first any
	for c := range seen {
		if first == nil {
			first = c
		} else if c != first {
			t.Fatal("SurveyClient() returned different instances")
		}
	}
}

func TestApp_SurveyClient_MissingCredentials(t *testing.T) {
	app := newTestApp(t)
	app.config.SurveyPassword = ""

	if _, err := app.SurveyClient(); !errors.Is(err, errors.ErrCredentialsRequired) {
		t.Errorf("SurveyClient() error = %v, want credentials error", err)
	}
}

func TestApp_Database(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	db1, err := app.Database(ctx)
	if err != nil {
		t.Fatalf("Database() failed: %v", err)
	}
	db2, err := app.Database(ctx)
	if err != nil {
		t.Fatalf("Database() failed on second call: %v", err)
	}
	if db1 != db2 {
		t.Error("Database() returned different handles")
	}
	if db1.Dialect() != store.SQLite {
		t.Errorf("Dialect() = %s, want sqlite", db1.Dialect())
	}

	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
	if err := db1.PingContext(ctx); err == nil {
		t.Error("database still open after Shutdown()")
	}
}

func TestApp_DatabaseRequiresDSN(t *testing.T) {
	app := newTestApp(t)
	app.config.DBDSN = ""

	if _, err := app.Database(context.Background()); err == nil {
		t.Error("expected error without db_dsn")
	}
}

// TestApp_Execute runs commands through the root command.
func TestApp_Execute(t *testing.T) {
	app := newTestApp(t)

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--log-level", "error"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), "surveysync version 1.0.0") {
		t.Errorf("unexpected version output: %q", out.String())
	}
	if app.Config().LogLevel != "error" {
		t.Errorf("LogLevel = %s, want error", app.Config().LogLevel)
	}

	out.Reset()
	root = app.createRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"schema", "init"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("schema init failed: %v", err)
	}
	if !strings.Contains(out.String(), "sx_answer") {
		t.Errorf("unexpected schema output: %q", out.String())
	}
}

func TestApp_ExecuteRejectsBadFormat(t *testing.T) {
	app := newTestApp(t)

	err := app.Execute(context.Background(), []string{"reconcile", "--questionnaire", "q.xml", "--answers", "a.xml", "-o", "xml"})
	if !errors.IsValidationError(err) {
		t.Errorf("Execute() error = %v, want validation error", err)
	}
}
