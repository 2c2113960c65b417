package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/surveysync/internal/store"
	"github.com/agentstation/surveysync/pkg/constants"
	"github.com/agentstation/surveysync/pkg/errors"
)

// TestLoadConfig verifies defaults.
func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.SurveyBaseURL != constants.DefaultBaseURL {
		t.Errorf("SurveyBaseURL = %s, want %s", config.SurveyBaseURL, constants.DefaultBaseURL)
	}
	if config.LogTable != constants.DefaultLogTable {
		t.Errorf("LogTable = %s, want %s", config.LogTable, constants.DefaultLogTable)
	}
	if config.RetryAttempts != constants.MaxRetries {
		t.Errorf("RetryAttempts = %d, want %d", config.RetryAttempts, constants.MaxRetries)
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
}

// TestConfig_EnvironmentVariables verifies environment variable loading.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("SURVEYXACT_USER", "alice")
	t.Setenv("SURVEYXACT_PASSWORD", "secret")
	t.Setenv("SURVEYXACT_RATE_LIMIT", "2.5")
	t.Setenv("SURVEYXACT_TIMEOUT", "45s")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CONCURRENCY", "8")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.SurveyUser != "alice" || config.SurveyPassword != "secret" {
		t.Errorf("credentials = %q/%q, want alice/secret", config.SurveyUser, config.SurveyPassword)
	}
	if config.SurveyRateLimit != 2.5 {
		t.Errorf("SurveyRateLimit = %v, want 2.5", config.SurveyRateLimit)
	}
	if config.SurveyTimeout != 45*time.Second {
		t.Errorf("SurveyTimeout = %v, want 45s", config.SurveyTimeout)
	}
	if config.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %s, want sqlite", config.DBDriver)
	}
	if config.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", config.Concurrency)
	}
}

// TestConfig_File verifies an explicit config file is read.
func TestConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surveysync.yaml")
	content := "db_driver: sqlite\ndb_dsn: /tmp/survey.db\nanswer_table: answers\npayload_charset: iso-8859-1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %s, want %s", config.ConfigFile, path)
	}
	if config.DBDSN != "/tmp/survey.db" {
		t.Errorf("DBDSN = %s", config.DBDSN)
	}
	if config.AnswerTable != "answers" {
		t.Errorf("AnswerTable = %s, want answers", config.AnswerTable)
	}
	if config.PayloadCharset != "iso-8859-1" {
		t.Errorf("PayloadCharset = %s", config.PayloadCharset)
	}
	// untouched keys keep defaults
	if config.LogTable != constants.DefaultLogTable {
		t.Errorf("LogTable = %s, want default", config.LogTable)
	}
}

// TestConfig_OracleParts verifies an Oracle DSN is assembled from its parts.
func TestConfig_OracleParts(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("DB_SERVICE", "ORCL")
	t.Setenv("DB_USER", "surveyxact")
	t.Setenv("DB_PASSWORD", "secret")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	want := store.OracleDSN("db.example.com", constants.DefaultOraclePort, "ORCL", "surveyxact", "secret")
	if config.DBDSN != want {
		t.Errorf("DBDSN = %s, want %s", config.DBDSN, want)
	}
	if !strings.Contains(config.DBDSN, "db.example.com:1521") {
		t.Errorf("DBDSN = %s, want default port", config.DBDSN)
	}

	t.Setenv("DB_DSN", "oracle://explicit:pw@other:1600/SVC")
	config, err = LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.DBDSN != "oracle://explicit:pw@other:1600/SVC" {
		t.Errorf("explicit DBDSN overridden: %s", config.DBDSN)
	}
}

// TestConfig_PartsIgnoredForOtherDrivers keeps non-Oracle drivers on db_dsn only.
func TestConfig_PartsIgnoredForOtherDrivers(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.example.com")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.DBDSN != "" {
		t.Errorf("DBDSN = %s, want empty", config.DBDSN)
	}
}

func TestConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv("RETRY_ATTEMPTS", "0")

	_, err := LoadConfig("")
	if !errors.IsValidationError(err) {
		t.Fatalf("LoadConfig() error = %v, want validation error", err)
	}
}

// TestConfig_UpdateFromFlags verifies flags override config.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "warn"}

	config.UpdateFromFlags(true, false, true, "", "")
	if !config.Verbose || !config.NoColor {
		t.Error("boolean flags not applied")
	}
	if config.Format != "yaml" || config.LogLevel != "warn" {
		t.Error("empty flag values must not clear config")
	}

	config.UpdateFromFlags(false, false, false, "json", "debug")
	if config.Format != "json" || config.LogLevel != "debug" {
		t.Errorf("Format/LogLevel = %s/%s, want json/debug", config.Format, config.LogLevel)
	}
}
