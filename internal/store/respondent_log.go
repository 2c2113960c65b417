package store

import (
	"context"
	"strconv"
	"time"

	"github.com/agentstation/surveysync/internal/retry"
	"github.com/agentstation/surveysync/pkg/constants"
	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/logging"
)

// LogEntry is one uploaded respondent.
type LogEntry struct {
	AccountID   string
	ExternalKey string
	JobName     string
	JSON        string
	Sent        time.Time
	StatusCode  int
	SurveyID    string
	RequestID   string
}

// RespondentLog records uploaded respondents and their answer status.
type RespondentLog struct {
	db     *DB
	table  string
	policy retry.Policy
}

// NewRespondentLog returns the log stored in table.
func NewRespondentLog(db *DB, table string, policy retry.Policy) (*RespondentLog, error) {
	if err := ValidateIdentifier("log_table", table); err != nil {
		return nil, err
	}
	return &RespondentLog{db: db, table: table, policy: policy}, nil
}

// Insert stores an entry with status "Not Answered". Failed inserts are
// retried per the log's policy; the connection is pinged between attempts
// so the pool drops dead connections.
func (l *RespondentLog) Insert(ctx context.Context, e LogEntry) error {
	b := l.db.binder()
	query := "INSERT INTO " + l.table +
		" (ACCOUNTID, EXTERNALKEY, JOBNAME, JSON, SENDT, STATUSCODE, SURVEYID, REQUESTID, SURVEY_STATUS) VALUES (" +
		b.bind(e.AccountID) + ", " +
		b.bind(e.ExternalKey) + ", " +
		b.bind(e.JobName) + ", " +
		b.bind(e.JSON) + ", " +
		b.bind(e.Sent) + ", " +
		b.bind(strconv.Itoa(e.StatusCode)) + ", " +
		b.bind(e.SurveyID) + ", " +
		b.bind(e.RequestID) + ", " +
		b.bind(constants.StatusNotAnswered) + ")"

	logger := logging.FromContext(ctx)
	policy := l.policy
	policy.OnRetry = func(err error, attempt int, wait time.Duration) {
		logger.Warn().Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Str("respondent", e.ExternalKey).
			Msg("Respondent log insert failed, retrying")
	}

	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		if _, err := l.db.ExecContext(ctx, query, b.args...); err != nil {
			if pingErr := l.db.PingContext(ctx); pingErr != nil {
				logger.Warn().Err(pingErr).Msg("Database ping failed")
			}
			return err
		}
		return nil
	})
	return errors.WrapResource("insert", "respondent log", e.ExternalKey, err)
}

// Pending returns the external keys of a survey's respondents that have not
// answered yet.
func (l *RespondentLog) Pending(ctx context.Context, surveyID string) ([]string, error) {
	return NewExtractor(l.db).FetchColumnWhere(ctx, l.table, "EXTERNALKEY", map[string]string{
		"SURVEYID":      surveyID,
		"SURVEY_STATUS": constants.StatusNotAnswered,
	})
}

// MarkAnswered flags a respondent's answers as collected.
func (l *RespondentLog) MarkAnswered(ctx context.Context, surveyID, externalKey string) error {
	b := l.db.binder()
	query := "UPDATE " + l.table +
		" SET SURVEY_STATUS = " + b.bind(constants.StatusAnswered) +
		" WHERE SURVEYID = " + b.bind(surveyID) +
		" AND EXTERNALKEY = " + b.bind(externalKey)

	res, err := l.db.ExecContext(ctx, query, b.args...)
	if err != nil {
		return errors.WrapResource("update", "respondent log", externalKey, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("respondent", externalKey)
	}
	return nil
}
