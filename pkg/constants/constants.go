// Package constants provides shared constants used throughout the surveysync codebase.
// This includes timeouts, retry limits, default table names and the sentinel
// texts used when answers reference questions or choices the questionnaire
// does not define.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the survey service
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 2 * time.Hour

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxRetries is the maximum number of attempts for retried persistence operations
	MaxRetries = 3

	// MaxConcurrentRespondents is the default number of respondents reconciled concurrently
	MaxConcurrentRespondents = 5

	// MaxResponseSize caps the number of bytes read from a survey service response
	MaxResponseSize = 32 << 20
)

// Rate limiting constants
const (
	// DefaultRateLimit is the default requests per second against the survey service
	DefaultRateLimit = 5

	// BurstSize is the token bucket burst size for rate limiting
	BurstSize = 5

	// BreakerMinRequests is the number of requests before the circuit breaker may trip
	BreakerMinRequests = 5

	// BreakerFailureRatio is the failure ratio that opens the circuit breaker
	BreakerFailureRatio = 0.6

	// BreakerOpenTimeout is how long the circuit breaker stays open
	BreakerOpenTimeout = 60 * time.Second
)

// Survey service constants
const (
	// DefaultBaseURL is the SurveyXact REST API root
	DefaultBaseURL = "https://rest.survey-xact.dk/rest"

	// ServiceName identifies the survey service in errors and logs
	ServiceName = "surveyxact"

	// CreateTimestampFormat is the layout of the createts field returned on respondent creation
	CreateTimestampFormat = "2006-01-02 15:04:05"

	// RequestIDTimeFormat is appended to the account id to build a request id
	RequestIDTimeFormat = "20060102150405"
)

// Reconciliation sentinels
const (
	// UnknownQuestion is the question text used when an answer references an unindexed question
	UnknownQuestion = "Unknown Question"

	// UnknownChoice is the choice text used when a coded value is not defined for its question
	UnknownChoice = "Unknown Choice"
)

// Database defaults
const (
	// DefaultSourceTable holds the respondents to upload
	DefaultSourceTable = "basesurvey_cpr_level"

	// DefaultLogTable records every respondent created in the survey service
	DefaultLogTable = "sx_respondent_log"

	// DefaultAnswerTable stores reconciled answers
	DefaultAnswerTable = "sx_respondent_answer"

	// DefaultOraclePort is the listener port used when db_port is unset
	DefaultOraclePort = 1521

	// StatusNotAnswered marks a logged respondent whose answers have not been collected
	StatusNotAnswered = "Not Answered"

	// StatusAnswered marks a logged respondent whose answers have been collected
	StatusAnswered = "Answered"
)
