package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/surveysync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "survey",
			ID:       "1596625",
		}
		assert.Equal(t, "survey with ID 1596625 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("respondent", "abc")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "survey_id",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field survey_id: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid configuration"}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestDocumentFormatError(t *testing.T) {
	t.Run("without message", func(t *testing.T) {
		err := pkgerrors.NewDocumentFormatError("questionnaire", "foreground", "")
		assert.Equal(t, "malformed questionnaire document: missing foreground", err.Error())
		assert.True(t, pkgerrors.IsDocumentFormat(err))
	})

	t.Run("with message", func(t *testing.T) {
		err := pkgerrors.NewDocumentFormatError("respondentanswer", "variable@name", "entry 3")
		assert.Contains(t, err.Error(), "variable@name")
		assert.Contains(t, err.Error(), "entry 3")
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("reconcile: %w", pkgerrors.NewDocumentFormatError("respondentanswer", "answer", ""))
		var docErr *pkgerrors.DocumentFormatError
		require.True(t, errors.As(err, &docErr))
		assert.Equal(t, "answer", docErr.Container)
		assert.False(t, pkgerrors.IsRemoteFetch(err))
	})
}

func TestRemoteFetchError(t *testing.T) {
	apiErr := pkgerrors.NewAPIError("surveyxact", 503, "maintenance")
	err := pkgerrors.NewRemoteFetchError("questionnaire", "1596625", apiErr)

	assert.Contains(t, err.Error(), "questionnaire 1596625")
	assert.Contains(t, err.Error(), "503")
	assert.True(t, pkgerrors.IsRemoteFetch(err))
	assert.True(t, pkgerrors.IsServiceUnavailable(err))

	var unwrapped *pkgerrors.APIError
	require.True(t, errors.As(err, &unwrapped))
	assert.Equal(t, 503, unwrapped.StatusCode)

	assert.Nil(t, pkgerrors.WrapFetch("answers", "x", nil))
	assert.True(t, pkgerrors.IsRemoteFetch(pkgerrors.WrapFetch("answers", "", errors.New("eof"))))
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
		unavailable bool
	}{
		{name: "rate limited", status: 429, rateLimited: true},
		{name: "server error", status: 500, unavailable: true},
		{name: "client error", status: 400},
		{name: "no status", status: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewAPIError("surveyxact", tt.status, "boom")
			assert.Contains(t, err.Error(), "surveyxact")
			assert.Equal(t, tt.rateLimited, pkgerrors.IsRateLimited(err))
			assert.Equal(t, tt.unavailable, pkgerrors.IsServiceUnavailable(err))
		})
	}
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("database", "dsn cannot be empty", nil)
	assert.Contains(t, err.Error(), "database")
	assert.Contains(t, err.Error(), "dsn cannot be empty")
	assert.Nil(t, err.Unwrap())
}

func TestAuthenticationError(t *testing.T) {
	err := &pkgerrors.AuthenticationError{
		Service: "surveyxact",
		Method:  "basic",
		Message: "user not configured",
	}
	assert.Equal(t, "authentication error for surveyxact (basic): user not configured", err.Error())
	assert.True(t, errors.Is(err, pkgerrors.ErrCredentialsRequired))
}

func TestWrapHelpers(t *testing.T) {
	base := errors.New("disk full")

	t.Run("nil passthrough", func(t *testing.T) {
		assert.Nil(t, pkgerrors.WrapIO("write", "out.json", nil))
		assert.Nil(t, pkgerrors.WrapResource("insert", "respondent log", "", nil))
		assert.Nil(t, pkgerrors.WrapParse("xml", "", nil))
	})

	t.Run("io", func(t *testing.T) {
		err := pkgerrors.WrapIO("write", "out.json", base)
		assert.Equal(t, "IO error during write of out.json: disk full", err.Error())
		assert.ErrorIs(t, err, base)
	})

	t.Run("resource", func(t *testing.T) {
		err := pkgerrors.WrapResource("insert", "respondent log", "acc-1", base)
		assert.Equal(t, "failed to insert respondent log acc-1: disk full", err.Error())
		assert.ErrorIs(t, err, base)
	})

	t.Run("parse", func(t *testing.T) {
		err := pkgerrors.WrapParse("xml", "answers.xml", base)
		assert.Equal(t, "parse error in xml file answers.xml: disk full", err.Error())
	})
}
