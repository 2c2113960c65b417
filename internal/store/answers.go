package store

import (
	"context"
	"database/sql"

	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/reconciler"
)

// AnswerStore persists reconciled answers.
type AnswerStore struct {
	db    *DB
	table string
}

// NewAnswerStore returns the answer store kept in table.
func NewAnswerStore(db *DB, table string) (*AnswerStore, error) {
	if err := ValidateIdentifier("answer_table", table); err != nil {
		return nil, err
	}
	return &AnswerStore{db: db, table: table}, nil
}

type respondentKey struct {
	respondent string
	survey     string
}

// Save replaces the stored answers of every respondent present in answers,
// in one transaction. Answer order is kept.
func (s *AnswerStore) Save(ctx context.Context, answers []reconciler.Answer) (err error) {
	if len(answers) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("begin", "answers", "", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cleared := make(map[respondentKey]struct{})
	order := make(map[respondentKey]int)
	for _, a := range answers {
		key := respondentKey{respondent: a.RespondentID, survey: a.SurveyID}
		if _, ok := cleared[key]; !ok {
			b := s.db.binder()
			query := "DELETE FROM " + s.table +
				" WHERE RESPONDENT_ID = " + b.bind(a.RespondentID) +
				" AND SURVEY_ID = " + b.bind(a.SurveyID)
			if _, err = tx.ExecContext(ctx, query, b.args...); err != nil {
				return errors.WrapResource("delete", "answers", a.RespondentID, err)
			}
			cleared[key] = struct{}{}
		}

		var value sql.NullString
		if a.QuestionValue != nil {
			value = sql.NullString{String: *a.QuestionValue, Valid: true}
		}
		override := 0
		if a.TextOverride {
			override = 1
		}

		b := s.db.binder()
		query := "INSERT INTO " + s.table +
			" (RESPONDENT_ID, SURVEY_ID, QUESTION_NAME, QUESTION_TEXT, QUESTION_VALUE, CHOICE_TEXT, TEXT_OVERRIDE, ANSWER_ORDER) VALUES (" +
			b.bind(a.RespondentID) + ", " +
			b.bind(a.SurveyID) + ", " +
			b.bind(a.QuestionName) + ", " +
			b.bind(a.QuestionText) + ", " +
			b.bind(value) + ", " +
			b.bind(a.ChoiceText) + ", " +
			b.bind(override) + ", " +
			b.bind(order[key]) + ")"
		if _, err = tx.ExecContext(ctx, query, b.args...); err != nil {
			return errors.WrapResource("insert", "answers", a.RespondentID, err)
		}
		order[key]++
	}

	if err = tx.Commit(); err != nil {
		return errors.WrapResource("commit", "answers", "", err)
	}
	return nil
}

// List returns the stored answers of one respondent in saved order.
func (s *AnswerStore) List(ctx context.Context, surveyID, respondentID string) ([]reconciler.Answer, error) {
	b := s.db.binder()
	query := "SELECT QUESTION_NAME, QUESTION_TEXT, QUESTION_VALUE, CHOICE_TEXT, TEXT_OVERRIDE FROM " + s.table +
		" WHERE SURVEY_ID = " + b.bind(surveyID) +
		" AND RESPONDENT_ID = " + b.bind(respondentID) +
		" ORDER BY ANSWER_ORDER"

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, errors.WrapResource("query", "answers", respondentID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []reconciler.Answer
	for rows.Next() {
		var (
			questionText, choiceText sql.NullString
			value                    sql.NullString
			override                 int
		)
		a := reconciler.Answer{RespondentID: respondentID, SurveyID: surveyID}
		if err := rows.Scan(&a.QuestionName, &questionText, &value, &choiceText, &override); err != nil {
			return nil, errors.WrapResource("scan", "answers", respondentID, err)
		}
		a.QuestionText = questionText.String
		a.ChoiceText = choiceText.String
		a.TextOverride = override != 0
		if value.Valid {
			v := value.String
			a.QuestionValue = &v
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("query", "answers", respondentID, err)
	}
	return out, nil
}
