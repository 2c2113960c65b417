package reconciler

import (
	"fmt"
	"time"
)

// Answer is the normalized record for one answered question of one respondent.
type Answer struct {
	RespondentID  string  `json:"respondent_id" yaml:"respondent_id"`
	SurveyID      string  `json:"survey_id" yaml:"survey_id"`
	QuestionName  string  `json:"question_name" yaml:"question_name"`
	QuestionText  string  `json:"question_text" yaml:"question_text"`
	QuestionValue *string `json:"question_value" yaml:"question_value"`
	ChoiceText    string  `json:"choice_text" yaml:"choice_text"`
	TextOverride  bool    `json:"text_override" yaml:"text_override"`
}

// Value returns the coded value or "" for free-text answers.
func (a Answer) Value() string {
	if a.QuestionValue == nil {
		return ""
	}
	return *a.QuestionValue
}

// Result represents the outcome of reconciling one respondent.
type Result struct {
	Answers []Answer
	Stats   Stats

	StartTime time.Time
	Duration  time.Duration
}

// Stats counts what happened to the raw answers.
type Stats struct {
	ChoiceAnswers     int `json:"choice_answers" yaml:"choice_answers"`
	TextAnswers       int `json:"text_answers" yaml:"text_answers"`
	Overrides         int `json:"overrides" yaml:"overrides"`
	UnknownQuestions  int `json:"unknown_questions" yaml:"unknown_questions"`
	UnknownChoices    int `json:"unknown_choices" yaml:"unknown_choices"`
	EmptyTextsSkipped int `json:"empty_texts_skipped" yaml:"empty_texts_skipped"`
	DuplicatesDropped int `json:"duplicates_dropped" yaml:"duplicates_dropped"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.ChoiceAnswers += other.ChoiceAnswers
	s.TextAnswers += other.TextAnswers
	s.Overrides += other.Overrides
	s.UnknownQuestions += other.UnknownQuestions
	s.UnknownChoices += other.UnknownChoices
	s.EmptyTextsSkipped += other.EmptyTextsSkipped
	s.DuplicatesDropped += other.DuplicatesDropped
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	if len(r.Answers) == 0 {
		return "No answers reconciled."
	}
	return fmt.Sprintf("Reconciled %d answers (%d overrides, %d unknown questions, %d unknown choices).",
		len(r.Answers), r.Stats.Overrides, r.Stats.UnknownQuestions, r.Stats.UnknownChoices)
}

// NewResult creates a new result with defaults.
func NewResult() *Result {
	return &Result{
		Answers:   []Answer{},
		StartTime: time.Now(),
	}
}

// Finalize records the duration.
func (r *Result) Finalize() {
	r.Duration = time.Since(r.StartTime)
}
