package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/surveysync/pkg/errors"
)

func TestBasicAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	auth := &BasicAuth{User: "user@example.com", Password: "secret"}
	auth.Apply(req)

	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "user@example.com", user)
	assert.Equal(t, "secret", pass)
	assert.True(t, auth.Valid())
	assert.False(t, (&BasicAuth{User: "u"}).Valid())
}

func TestNoAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	(&NoAuth{}).Apply(req)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/surveys/42/questionnaire", r.URL.Path)
		assert.Equal(t, "application/xml", r.Header.Get("Accept"))
		_, _, ok := r.BasicAuth()
		assert.True(t, ok)
		_, _ = io.WriteString(w, "<questionnaire/>")
	}))
	defer srv.Close()

	c := New(&BasicAuth{User: "u", Password: "p"}, WithRateLimit(0, 0))
	resp, err := c.Get(context.Background(), JoinURL(srv.URL, "surveys", "42", "questionnaire"), "application/xml")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<questionnaire/>", string(resp.Body))
}

func TestPostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "1", r.URL.Query().Get("distributionTs"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "a@b.dk", r.PostForm.Get("email"))
		_, _ = io.WriteString(w, `{"externalkey":"K1"}`)
	}))
	defer srv.Close()

	c := New(nil, WithRateLimit(0, 0))
	resp, err := c.PostForm(context.Background(), srv.URL+"/surveys/1/respondents",
		url.Values{"distributionTs": {"1"}}, []byte("email=a%40b.dk"), "")
	require.NoError(t, err)

	var out struct {
		ExternalKey string `json:"externalkey"`
	}
	require.NoError(t, DecodeJSON(resp, &out))
	assert.Equal(t, "K1", out.ExternalKey)
}

func TestNon2xxIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, " no such survey \n")
	}))
	defer srv.Close()

	c := New(nil, WithRateLimit(0, 0))
	_, err := c.Get(context.Background(), srv.URL+"/x", "")
	require.Error(t, err)

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "no such survey", apiErr.Message)
	assert.Equal(t, "/x", apiErr.Endpoint)
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestOversizedResponseIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<respondentanswer key=\"K1\"/>")
	}))
	defer srv.Close()

	c := New(nil, WithRateLimit(0, 0), WithMaxResponseSize(10))
	_, err := c.Get(context.Background(), srv.URL+"/big", "")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Contains(t, err.Error(), "response too large")
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())

	exact := New(nil, WithRateLimit(0, 0), WithMaxResponseSize(int64(len(`<respondentanswer key="K1"/>`))))
	resp, err := exact.Get(context.Background(), srv.URL+"/big", "")
	require.NoError(t, err)
	assert.Equal(t, `<respondentanswer key="K1"/>`, string(resp.Body))
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(nil, WithRateLimit(0, 0))
	for range 10 {
		_, err := c.Get(context.Background(), srv.URL, "")
		require.Error(t, err)
		assert.False(t, errors.IsServiceUnavailable(err))
	}
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestBreakerCountsRateLimits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(nil, WithRateLimit(0, 0))
	for range 5 {
		_, err := c.Get(context.Background(), srv.URL, "")
		require.True(t, errors.IsRateLimited(err))
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(nil, WithRateLimit(0, 0), WithService("test"))
	for range 5 {
		_, err := c.Get(context.Background(), srv.URL, "")
		require.True(t, errors.IsServiceUnavailable(err))
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	_, err := c.Get(context.Background(), srv.URL, "")
	require.True(t, errors.IsServiceUnavailable(err))
	assert.Equal(t, 5, calls)
}

func TestRateLimitHonorsContext(t *testing.T) {
	c := New(nil, WithRateLimit(0.001, 1))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	_, err := c.Get(ctx, srv.URL, "")
	require.NoError(t, err)

	_, err = c.Get(ctx, srv.URL, "")
	require.Error(t, err)
}

func TestDecodeXML(t *testing.T) {
	var doc struct {
		Key string `xml:"key,attr"`
	}
	require.NoError(t, DecodeXML(&Response{Body: []byte(`<respondentanswer key="k1"/>`)}, &doc))
	assert.Equal(t, "k1", doc.Key)

	err := DecodeJSON(&Response{Body: []byte("{")}, &doc)
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://h/rest/respondents/a%2Fb/answer", JoinURL("https://h/rest/", "respondents", "a/b", "answer"))
}
