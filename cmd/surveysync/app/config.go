package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/surveysync/internal/store"
	"github.com/agentstation/surveysync/pkg/constants"
	"github.com/agentstation/surveysync/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Survey service
	SurveyUser      string
	SurveyPassword  string
	SurveyBaseURL   string
	SurveyRateLimit float64
	SurveyTimeout   time.Duration
	PayloadCharset  string

	// Database
	DBDriver     string
	DBDSN        string
	MaxOpenConns int

	// Oracle connection parts, used when DBDSN is empty
	DBHost     string
	DBPort     int
	DBService  string
	DBUser     string
	DBPassword string

	// Tables
	SourceTable string
	LogTable    string
	AnswerTable string

	// Pipelines
	FieldMapFile  string
	RetryAttempts int
	Concurrency   int

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.surveysync.yaml or --config)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".surveysync")
		// Missing default config file is fine
		_ = v.ReadInConfig()
	}

	config := &Config{
		ConfigFile: v.ConfigFileUsed(),

		SurveyUser:      v.GetString("surveyxact_user"),
		SurveyPassword:  v.GetString("surveyxact_password"),
		SurveyBaseURL:   v.GetString("surveyxact_base_url"),
		SurveyRateLimit: v.GetFloat64("surveyxact_rate_limit"),
		SurveyTimeout:   v.GetDuration("surveyxact_timeout"),
		PayloadCharset:  v.GetString("payload_charset"),

		DBDriver:     v.GetString("db_driver"),
		DBDSN:        v.GetString("db_dsn"),
		MaxOpenConns: v.GetInt("db_max_open_conns"),
		DBHost:       v.GetString("db_host"),
		DBPort:       v.GetInt("db_port"),
		DBService:    v.GetString("db_service"),
		DBUser:       v.GetString("db_user"),
		DBPassword:   v.GetString("db_password"),

		SourceTable: v.GetString("source_table"),
		LogTable:    v.GetString("log_table"),
		AnswerTable: v.GetString("answer_table"),

		FieldMapFile:  v.GetString("field_map"),
		RetryAttempts: v.GetInt("retry_attempts"),
		Concurrency:   v.GetInt("concurrency"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.resolveDSN()
	return config, nil
}

// resolveDSN assembles an Oracle DSN from its parts when none was given.
func (c *Config) resolveDSN() {
	if c.DBDSN != "" || c.DBHost == "" {
		return
	}
	if dialect, err := store.ParseDialect(c.DBDriver); err != nil || dialect != store.Oracle {
		return
	}
	c.DBDSN = store.OracleDSN(c.DBHost, c.DBPort, c.DBService, c.DBUser, c.DBPassword)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("surveyxact_base_url", constants.DefaultBaseURL)
	v.SetDefault("surveyxact_rate_limit", constants.DefaultRateLimit)
	v.SetDefault("surveyxact_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("db_driver", "postgres")
	v.SetDefault("db_port", constants.DefaultOraclePort)
	v.SetDefault("source_table", constants.DefaultSourceTable)
	v.SetDefault("log_table", constants.DefaultLogTable)
	v.SetDefault("answer_table", constants.DefaultAnswerTable)
	v.SetDefault("retry_attempts", constants.MaxRetries)
	v.SetDefault("concurrency", constants.MaxConcurrentRespondents)
}

// Validate checks values that would otherwise fail late in a run.
func (c *Config) Validate() error {
	if c.RetryAttempts < 1 {
		return errors.NewValidationError("retry_attempts", c.RetryAttempts, "must be at least 1")
	}
	if c.Concurrency < 1 {
		return errors.NewValidationError("concurrency", c.Concurrency, "must be at least 1")
	}
	if c.SurveyRateLimit < 0 {
		return errors.NewValidationError("surveyxact_rate_limit", c.SurveyRateLimit, "must not be negative")
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags so that
// flags take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local does not override variables set by .env or the shell.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
