// Package upload registers respondents from extracted source rows with the
// survey service and records each created respondent in the respondent log.
package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/surveysync/internal/mapping"
	"github.com/agentstation/surveysync/internal/store"
	"github.com/agentstation/surveysync/internal/surveyxact"
	"github.com/agentstation/surveysync/pkg/constants"
	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/logging"
)

// Creator creates respondents on the survey service.
type Creator interface {
	CreateRespondent(ctx context.Context, surveyID string, payload mapping.Payload) (*surveyxact.CreatedRespondent, error)
}

// LogWriter records created respondents.
type LogWriter interface {
	Insert(ctx context.Context, e store.LogEntry) error
}

// Uploader pushes source rows to the survey service.
type Uploader struct {
	creator  Creator
	log      LogWriter
	fields   mapping.FieldMap
	failFast bool
	now      func() time.Time
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithFieldMap sets the payload mapping. Defaults to mapping.Default().
func WithFieldMap(m mapping.FieldMap) Option {
	return func(u *Uploader) {
		if len(m) > 0 {
			u.fields = m
		}
	}
}

// WithFailFast stops the run at the first failing row.
func WithFailFast(enabled bool) Option {
	return func(u *Uploader) {
		u.failFast = enabled
	}
}

// WithClock replaces the time source used for request ids.
func WithClock(now func() time.Time) Option {
	return func(u *Uploader) {
		if now != nil {
			u.now = now
		}
	}
}

// New creates an Uploader.
func New(creator Creator, log LogWriter, opts ...Option) *Uploader {
	u := &Uploader{
		creator: creator,
		log:     log,
		fields:  mapping.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RowError reports a failed row.
type RowError struct {
	Row       int
	AccountID string
	Err       error
}

// Error implements the error interface
func (e *RowError) Error() string {
	if e.AccountID != "" {
		return fmt.Sprintf("row %d (account %s): %v", e.Row, e.AccountID, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *RowError) Unwrap() error {
	return e.Err
}

// Result summarizes an upload run.
type Result struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	SurveyID string        `json:"survey_id" yaml:"survey_id"`
	Job      string        `json:"job" yaml:"job"`
	Total    int           `json:"total" yaml:"total"`
	Created  int           `json:"created" yaml:"created"`
	Failed   int           `json:"failed" yaml:"failed"`
	Keys     []string      `json:"keys" yaml:"keys"`
	Errors   []*RowError   `json:"-" yaml:"-"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Run uploads every row. Without fail-fast, failing rows are logged and
// counted and the run continues; the returned error is then nil.
func (u *Uploader) Run(ctx context.Context, surveyID, job string, rows []store.Row) (*Result, error) {
	if err := u.fields.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{
		RunID:    uuid.NewString(),
		SurveyID: surveyID,
		Job:      job,
		Total:    len(rows),
		Keys:     []string{},
	}
	ctx = logging.WithRunID(logging.WithJob(logging.WithSurvey(ctx, surveyID), job), result.RunID)
	logger := logging.FromContext(ctx)
	logger.Info().Int("rows", len(rows)).Msg("Starting respondent upload")

	defer func() { result.Duration = time.Since(start) }()

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		key, err := u.uploadRow(ctx, surveyID, job, row)
		if err != nil {
			account, _ := lookupAccount(u.fields, row)
			rowErr := &RowError{Row: i + 1, AccountID: account, Err: err}
			result.Failed++
			result.Errors = append(result.Errors, rowErr)
			logger.Error().Err(err).Int("row", i+1).Str("account", account).Msg("Respondent upload failed")
			if u.failFast {
				return result, rowErr
			}
			continue
		}

		result.Created++
		result.Keys = append(result.Keys, key)
	}

	logger.Info().
		Int("created", result.Created).
		Int("failed", result.Failed).
		Msg("Respondent upload finished")
	return result, nil
}

func (u *Uploader) uploadRow(ctx context.Context, surveyID, job string, row store.Row) (string, error) {
	payload, err := u.fields.Apply(row)
	if err != nil {
		return "", err
	}

	account, _ := payload.Get(mapping.AccountKey)
	sent := u.now()
	requestID := account + sent.Format(constants.RequestIDTimeFormat)
	payload.Set(mapping.RequestKey, requestID)

	created, err := u.creator.CreateRespondent(ctx, surveyID, payload)
	if err != nil {
		return "", errors.WrapResource("create", "respondent", account, err)
	}
	if !created.CreatedAt.IsZero() {
		sent = created.CreatedAt
	}

	logging.FromContext(ctx).Debug().
		Str("respondent", created.ExternalKey).
		Str("request_id", requestID).
		Msg("Respondent created")

	err = u.log.Insert(ctx, store.LogEntry{
		AccountID:   account,
		ExternalKey: created.ExternalKey,
		JobName:     job,
		JSON:        created.Raw,
		Sent:        sent,
		StatusCode:  created.StatusCode,
		SurveyID:    surveyID,
		RequestID:   requestID,
	})
	if err != nil {
		return "", err
	}
	return created.ExternalKey, nil
}

func lookupAccount(fields mapping.FieldMap, row store.Row) (string, bool) {
	for _, f := range fields {
		if f.Key == mapping.AccountKey {
			v, ok := row[f.Column]
			return v, ok
		}
	}
	return "", false
}
