// Package collect fetches respondent answers from the survey service,
// reconciles them against the survey's questionnaire and stores the
// normalized records.
package collect

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/surveysync/pkg/constants"
	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/logging"
	"github.com/agentstation/surveysync/pkg/questionnaire"
	"github.com/agentstation/surveysync/pkg/reconciler"
	"github.com/agentstation/surveysync/pkg/respondent"
)

// Fetcher retrieves survey documents.
type Fetcher interface {
	Questionnaire(ctx context.Context, surveyID string) (questionnaire.Index, error)
	Answers(ctx context.Context, respondentKey string) (*respondent.Document, error)
}

// Tracker knows which respondents still have answers to collect.
type Tracker interface {
	Pending(ctx context.Context, surveyID string) ([]string, error)
	MarkAnswered(ctx context.Context, surveyID, externalKey string) error
}

// Saver persists reconciled answers.
type Saver interface {
	Save(ctx context.Context, answers []reconciler.Answer) error
}

// Collector runs answer collection for a survey.
type Collector struct {
	fetcher     Fetcher
	tracker     Tracker
	saver       Saver
	reconciler  reconciler.Reconciler
	concurrency int
}

// Option configures a Collector.
type Option func(*Collector)

// WithTracker sets where pending respondents come from and where collected
// ones are marked.
func WithTracker(t Tracker) Option {
	return func(c *Collector) {
		c.tracker = t
	}
}

// WithSaver persists answers. Without a saver answers are only returned.
func WithSaver(s Saver) Option {
	return func(c *Collector) {
		c.saver = s
	}
}

// WithReconciler replaces the default reconciler.
func WithReconciler(r reconciler.Reconciler) Option {
	return func(c *Collector) {
		if r != nil {
			c.reconciler = r
		}
	}
}

// WithConcurrency sets how many respondents are processed at once.
func WithConcurrency(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a Collector.
func New(fetcher Fetcher, opts ...Option) (*Collector, error) {
	r, err := reconciler.New()
	if err != nil {
		return nil, err
	}
	c := &Collector{
		fetcher:     fetcher,
		reconciler:  r,
		concurrency: constants.MaxConcurrentRespondents,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Failure is a respondent that was skipped.
type Failure struct {
	Key string `json:"key" yaml:"key"`
	Err error  `json:"-" yaml:"-"`
}

// Error implements the error interface
func (f Failure) Error() string {
	return f.Key + ": " + f.Err.Error()
}

// Result summarizes a collection run.
type Result struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	SurveyID    string              `json:"survey_id" yaml:"survey_id"`
	Respondents int                 `json:"respondents" yaml:"respondents"`
	Collected   int                 `json:"collected" yaml:"collected"`
	Answers     []reconciler.Answer `json:"answers" yaml:"answers"`
	Failed      []Failure           `json:"failed" yaml:"failed"`
	Stats       reconciler.Stats    `json:"stats" yaml:"stats"`
	Duration    time.Duration       `json:"duration" yaml:"duration"`
}

type outcome struct {
	result *reconciler.Result
	err    error
}

// Run collects answers for keys, or for every pending respondent of the
// survey when keys is empty. The questionnaire is fetched and indexed once.
// Respondents whose documents cannot be fetched or are malformed are
// skipped and reported in Result.Failed; persistence errors abort the run.
func (c *Collector) Run(ctx context.Context, surveyID string, keys []string) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:    uuid.NewString(),
		SurveyID: surveyID,
		Answers:  []reconciler.Answer{},
		Failed:   []Failure{},
	}
	defer func() { result.Duration = time.Since(start) }()

	ctx = logging.WithRunID(logging.WithSurvey(ctx, surveyID), result.RunID)
	logger := logging.FromContext(ctx)

	if len(keys) == 0 {
		if c.tracker == nil {
			return nil, errors.NewValidationError("respondent", nil, "no respondent keys given and no respondent log configured")
		}
		pending, err := c.tracker.Pending(ctx, surveyID)
		if err != nil {
			return nil, err
		}
		keys = pending
	}
	result.Respondents = len(keys)
	if len(keys) == 0 {
		logger.Info().Msg("No pending respondents")
		return result, nil
	}

	index, err := c.fetcher.Questionnaire(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("respondents", len(keys)).Int("questions", len(index)).Msg("Collecting answers")

	outcomes := make([]outcome, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			res, err := c.collectOne(gctx, surveyID, key, index)
			if err != nil && !skippable(err) {
				return err
			}
			outcomes[i] = outcome{result: res, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	for i, o := range outcomes {
		if o.err != nil {
			result.Failed = append(result.Failed, Failure{Key: keys[i], Err: o.err})
			continue
		}
		result.Collected++
		result.Answers = append(result.Answers, o.result.Answers...)
		result.Stats.Add(o.result.Stats)
	}

	logger.Info().
		Int("collected", result.Collected).
		Int("failed", len(result.Failed)).
		Int("answers", len(result.Answers)).
		Msg("Answer collection finished")
	return result, nil
}

func (c *Collector) collectOne(ctx context.Context, surveyID, key string, index questionnaire.Index) (*reconciler.Result, error) {
	ctx = logging.WithRespondent(ctx, key)
	logger := logging.FromContext(ctx)

	doc, err := c.fetcher.Answers(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Msg("Skipping respondent")
		return nil, err
	}
	if docKey := strings.TrimSpace(doc.Key); docKey != "" && docKey != key {
		err := errors.NewDocumentFormatError(respondent.RootElement, respondent.RootElement+"@key",
			"fetched for "+key+" but names "+docKey)
		logger.Warn().Err(err).Msg("Skipping respondent")
		return nil, err
	}
	res, err := c.reconciler.Document(ctx, doc, index, surveyID)
	if err != nil {
		logger.Warn().Err(err).Msg("Skipping respondent")
		return nil, err
	}

	if c.saver == nil || len(res.Answers) == 0 {
		return res, nil
	}
	if err := c.saver.Save(ctx, res.Answers); err != nil {
		return nil, err
	}
	if c.tracker != nil {
		if err := c.tracker.MarkAnswered(ctx, surveyID, key); err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
	}
	return res, nil
}

// skippable reports whether a respondent error only affects that respondent.
func skippable(err error) bool {
	return errors.IsDocumentFormat(err) || errors.IsRemoteFetch(err)
}
