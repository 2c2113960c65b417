package upload

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/surveysync/internal/mapping"
	"github.com/agentstation/surveysync/internal/store"
	"github.com/agentstation/surveysync/internal/surveyxact"
	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/logging"
)

type fakeCreator struct {
	payloads []mapping.Payload
	failFor  map[string]error
}

func (f *fakeCreator) CreateRespondent(_ context.Context, _ string, payload mapping.Payload) (*surveyxact.CreatedRespondent, error) {
	f.payloads = append(f.payloads, payload)
	account, _ := payload.Get(mapping.AccountKey)
	if err, ok := f.failFor[account]; ok {
		return nil, err
	}
	return &surveyxact.CreatedRespondent{
		ExternalKey: "KEY-" + account,
		CreatedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		StatusCode:  200,
		Raw:         fmt.Sprintf(`{"externalkey":"KEY-%s"}`, account),
	}, nil
}

type fakeLog struct {
	entries []store.LogEntry
	err     error
}

func (f *fakeLog) Insert(_ context.Context, e store.LogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

var testFields = mapping.FieldMap{
	{Key: "email", Column: "EMAIL"},
	{Key: mapping.AccountKey, Column: "ACCOUNTID"},
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
}

func TestRun(t *testing.T) {
	logging.DisableLoggingForTest(t)
	creator := &fakeCreator{}
	log := &fakeLog{}
	u := New(creator, log, WithFieldMap(testFields), WithClock(fixedClock))

	rows := []store.Row{
		{"EMAIL": " a@example.dk ", "ACCOUNTID": "1001"},
		{"EMAIL": "b@example.dk", "ACCOUNTID": "1002"},
	}
	result, err := u.Run(context.Background(), "1596625", "BASESURVEY", rows)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Failed)
	assert.Equal(t, []string{"KEY-1001", "KEY-1002"}, result.Keys)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, creator.payloads, 2)
	assert.Equal(t, mapping.Payload{
		{Key: "email", Value: "a@example.dk"},
		{Key: mapping.AccountKey, Value: "1001"},
		{Key: mapping.RequestKey, Value: "100120240301090507"},
	}, creator.payloads[0])

	require.Len(t, log.entries, 2)
	entry := log.entries[0]
	assert.Equal(t, "1001", entry.AccountID)
	assert.Equal(t, "KEY-1001", entry.ExternalKey)
	assert.Equal(t, "BASESURVEY", entry.JobName)
	assert.Equal(t, "1596625", entry.SurveyID)
	assert.Equal(t, "100120240301090507", entry.RequestID)
	assert.Equal(t, 200, entry.StatusCode)
	assert.Equal(t, 12, entry.Sent.Hour())
	assert.Contains(t, entry.JSON, "KEY-1001")
}

func TestRunContinuesPastFailures(t *testing.T) {
	logging.DisableLoggingForTest(t)
	creator := &fakeCreator{failFor: map[string]error{
		"1001": errors.NewAPIError("surveyxact", 400, "bad email"),
	}}
	log := &fakeLog{}
	u := New(creator, log, WithFieldMap(testFields))

	rows := []store.Row{
		{"EMAIL": "a", "ACCOUNTID": "1001"},
		{"ACCOUNTID": "1002"},
		{"EMAIL": "c", "ACCOUNTID": "1003"},
	}
	result, err := u.Run(context.Background(), "S", "JOB", rows)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 1, result.Errors[0].Row)
	assert.Equal(t, "1001", result.Errors[0].AccountID)

	var apiErr *errors.APIError
	assert.ErrorAs(t, result.Errors[0], &apiErr)
	assert.True(t, errors.IsValidationError(result.Errors[1]))
	assert.Contains(t, result.Errors[1].Error(), "row 2")
	assert.Len(t, log.entries, 1)
}

func TestRunFailFast(t *testing.T) {
	logging.DisableLoggingForTest(t)
	log := &fakeLog{err: errors.New("database is locked")}
	u := New(&fakeCreator{}, log, WithFieldMap(testFields), WithFailFast(true))

	rows := []store.Row{
		{"EMAIL": "a", "ACCOUNTID": "1001"},
		{"EMAIL": "b", "ACCOUNTID": "1002"},
	}
	result, err := u.Run(context.Background(), "S", "JOB", rows)
	require.Error(t, err)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 1, rowErr.Row)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Created)
}

func TestRunCanceled(t *testing.T) {
	logging.DisableLoggingForTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := New(&fakeCreator{}, &fakeLog{}, WithFieldMap(testFields))
	_, err := u.Run(ctx, "S", "JOB", []store.Row{{"EMAIL": "a", "ACCOUNTID": "1"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunInvalidFieldMap(t *testing.T) {
	u := New(&fakeCreator{}, &fakeLog{}, WithFieldMap(mapping.FieldMap{{Key: "a"}}))
	_, err := u.Run(context.Background(), "S", "JOB", nil)
	assert.True(t, errors.IsValidationError(err))
}
