// Package surveyxact is the client for the SurveyXact REST API: creating
// respondents and fetching questionnaires and respondent answers.
package surveyxact

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding"

	"github.com/agentstation/surveysync/internal/mapping"
	"github.com/agentstation/surveysync/internal/transport"
	"github.com/agentstation/surveysync/pkg/constants"
	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/logging"
	"github.com/agentstation/surveysync/pkg/questionnaire"
	"github.com/agentstation/surveysync/pkg/respondent"
)

// Config holds the connection settings.
type Config struct {
	BaseURL   string
	User      string
	Password  string
	RateLimit float64
	Timeout   time.Duration
	// Charset of the respondent form payload, e.g. "iso-8859-1". Empty means UTF-8.
	Charset string
}

// Client talks to the survey service.
type Client struct {
	http    *transport.Client
	baseURL string
	charset encoding.Encoding
}

// CreatedRespondent is the service's answer to a respondent upload.
type CreatedRespondent struct {
	ExternalKey string
	CreatedAt   time.Time
	StatusCode  int
	// Raw is the response body as returned, stored in the respondent log.
	Raw string
}

type createResponse struct {
	ExternalKey string `json:"externalkey"`
	CreateTS    string `json:"createts"`
}

// New creates a client. Credentials are required.
func New(cfg Config, opts ...transport.Option) (*Client, error) {
	auth := &transport.BasicAuth{User: cfg.User, Password: cfg.Password}
	if !auth.Valid() {
		return nil, &errors.AuthenticationError{
			Service: constants.ServiceName,
			Method:  "basic",
			Message: "surveyxact_user and surveyxact_password must be set",
		}
	}

	enc, err := ResolveCharset(cfg.Charset)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = constants.DefaultBaseURL
	}
	rps := cfg.RateLimit
	if rps == 0 {
		rps = constants.DefaultRateLimit
	}

	all := []transport.Option{
		transport.WithService(constants.ServiceName),
		transport.WithTimeout(cfg.Timeout),
		transport.WithRateLimit(rps, constants.BurstSize),
	}
	all = append(all, opts...)

	return &Client{
		http:    transport.New(auth, all...),
		baseURL: strings.TrimRight(baseURL, "/"),
		charset: enc,
	}, nil
}

// QuestionnaireDocument fetches and decodes the questionnaire of a survey.
func (c *Client) QuestionnaireDocument(ctx context.Context, surveyID string) (*questionnaire.Document, error) {
	resp, err := c.http.Get(ctx, transport.JoinURL(c.baseURL, "surveys", surveyID, "questionnaire"), "application/xml")
	if err != nil {
		return nil, errors.WrapFetch("questionnaire", surveyID, err)
	}
	var doc questionnaire.Document
	if err := transport.DecodeXML(resp, &doc); err != nil {
		return nil, errors.WrapFetch("questionnaire", surveyID, err)
	}
	return &doc, nil
}

// Questionnaire fetches the questionnaire of a survey and indexes it.
func (c *Client) Questionnaire(ctx context.Context, surveyID string) (questionnaire.Index, error) {
	doc, err := c.QuestionnaireDocument(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	index, err := questionnaire.BuildIndex(doc)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug().
		Str("survey_id", surveyID).
		Int("questions", len(index)).
		Msg("Indexed questionnaire")
	return index, nil
}

// Answers fetches and decodes the answer document of one respondent.
func (c *Client) Answers(ctx context.Context, respondentKey string) (*respondent.Document, error) {
	resp, err := c.http.Get(ctx, transport.JoinURL(c.baseURL, "respondents", respondentKey, "answer"), "application/xml")
	if err != nil {
		return nil, errors.WrapFetch("answers", respondentKey, err)
	}
	var doc respondent.Document
	if err := transport.DecodeXML(resp, &doc); err != nil {
		return nil, errors.WrapFetch("answers", respondentKey, err)
	}
	return &doc, nil
}

// CreateRespondent registers a respondent on a survey. The service assigns
// the external key used to fetch answers later.
func (c *Client) CreateRespondent(ctx context.Context, surveyID string, payload mapping.Payload) (*CreatedRespondent, error) {
	body, err := EncodeForm(payload, c.charset)
	if err != nil {
		return nil, err
	}

	contentType := "application/x-www-form-urlencoded"
	if c.charset != nil {
		contentType += "; charset=" + charsetName(c.charset)
	}

	resp, err := c.http.PostForm(ctx,
		transport.JoinURL(c.baseURL, "surveys", surveyID, "respondents"),
		url.Values{"distributionTs": {"1"}},
		body, contentType)
	if err != nil {
		return nil, err
	}

	var out createResponse
	if err := transport.DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if out.ExternalKey == "" {
		return nil, errors.NewValidationError("externalkey", nil, "missing from create response")
	}

	created := &CreatedRespondent{
		ExternalKey: out.ExternalKey,
		StatusCode:  resp.StatusCode,
		Raw:         string(bytes.TrimSpace(resp.Body)),
	}
	if out.CreateTS != "" {
		ts, err := time.ParseInLocation(constants.CreateTimestampFormat, out.CreateTS, time.Local)
		if err != nil {
			return nil, errors.WrapParse("timestamp", "createts", err)
		}
		created.CreatedAt = ts
	}
	return created, nil
}
