// Package reconciler turns a respondent's raw answers into one normalized
// record per answered question, resolving display texts from a
// questionnaire index.
package reconciler

import (
	"context"

	"github.com/agentstation/surveysync/pkg/constants"
	"github.com/agentstation/surveysync/pkg/logging"
	"github.com/agentstation/surveysync/pkg/questionnaire"
	"github.com/agentstation/surveysync/pkg/respondent"
)

// Reconciler normalizes respondent answers against a questionnaire index.
type Reconciler interface {
	// Document validates an answer document and reconciles it.
	Document(ctx context.Context, doc *respondent.Document, index questionnaire.Index, surveyID string) (*Result, error)

	// Sheet reconciles already typed answers. It cannot fail.
	Sheet(ctx context.Context, sheet *respondent.Sheet, index questionnaire.Index, surveyID string) *Result
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	textOverride bool
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{textOverride: options.textOverride}, nil
}

// Reconcile reconciles an answer document with the default options.
func Reconcile(doc *respondent.Document, index questionnaire.Index, surveyID string) (*Result, error) {
	r := &reconciler{textOverride: true}
	return r.Document(context.Background(), doc, index, surveyID)
}

// Document implements Reconciler.
func (r *reconciler) Document(ctx context.Context, doc *respondent.Document, index questionnaire.Index, surveyID string) (*Result, error) {
	sheet, err := doc.Sheet()
	if err != nil {
		return nil, err
	}
	return r.Sheet(ctx, sheet, index, surveyID), nil
}

// Sheet implements Reconciler.
//
// Coded answers are emitted first, in sheet order, followed by free-text
// answers to questions that had no coded answer. A question is emitted at
// most once.
func (r *reconciler) Sheet(ctx context.Context, sheet *respondent.Sheet, index questionnaire.Index, surveyID string) *Result {
	result := NewResult()
	defer result.Finalize()

	choices := sheet.Choices()
	texts := sheet.Texts()
	result.Stats.ChoiceAnswers = len(choices)
	result.Stats.TextAnswers = len(texts)

	overrides := firstTexts(texts)
	seen := make(map[string]struct{}, len(choices)+len(texts))

	for _, c := range choices {
		if _, ok := seen[c.Question]; ok {
			result.Stats.DuplicatesDropped++
			continue
		}
		seen[c.Question] = struct{}{}

		def, known := index.Question(c.Question)
		if !known {
			result.Stats.UnknownQuestions++
		}
		choiceText, ok := def.Choices[c.Value]
		if !ok {
			choiceText = constants.UnknownChoice
			result.Stats.UnknownChoices++
		}

		value := c.Value
		answer := Answer{
			RespondentID:  sheet.RespondentID,
			SurveyID:      surveyID,
			QuestionName:  c.Question,
			QuestionText:  index.QuestionText(c.Question),
			QuestionValue: &value,
			ChoiceText:    choiceText,
		}
		if text, ok := overrides[c.Question]; ok && r.textOverride {
			answer.ChoiceText = text
			answer.TextOverride = true
			result.Stats.Overrides++
		}
		result.Answers = append(result.Answers, answer)
	}

	for _, t := range texts {
		if _, ok := seen[t.Question]; ok {
			continue
		}
		if t.Text == "" {
			result.Stats.EmptyTextsSkipped++
			continue
		}
		seen[t.Question] = struct{}{}

		if _, known := index.Question(t.Question); !known {
			result.Stats.UnknownQuestions++
		}
		result.Answers = append(result.Answers, Answer{
			RespondentID: sheet.RespondentID,
			SurveyID:     surveyID,
			QuestionName: t.Question,
			QuestionText: index.QuestionText(t.Question),
			ChoiceText:   t.Text,
		})
	}

	logging.FromContext(ctx).Debug().
		Str("respondent", sheet.RespondentID).
		Int("answers", len(result.Answers)).
		Int("overrides", result.Stats.Overrides).
		Int("duplicates", result.Stats.DuplicatesDropped).
		Msg("Reconciled respondent")

	return result
}

// firstTexts maps each question to its first non-empty free text.
func firstTexts(texts []respondent.TextAnswer) map[string]string {
	out := make(map[string]string, len(texts))
	for _, t := range texts {
		if t.Text == "" {
			continue
		}
		if _, ok := out[t.Question]; !ok {
			out[t.Question] = t.Text
		}
	}
	return out
}
