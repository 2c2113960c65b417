package store

import (
	"context"
	"fmt"

	"github.com/agentstation/surveysync/pkg/constants"
	"github.com/agentstation/surveysync/pkg/errors"
)

const logTableSchema = `CREATE TABLE IF NOT EXISTS %[1]s (
    ACCOUNTID TEXT NOT NULL,
    EXTERNALKEY TEXT NOT NULL,
    JOBNAME TEXT NOT NULL,
    JSON TEXT,
    SENDT TIMESTAMP,
    STATUSCODE TEXT,
    SURVEYID TEXT NOT NULL,
    REQUESTID TEXT NOT NULL,
    SURVEY_STATUS TEXT NOT NULL DEFAULT '` + constants.StatusNotAnswered + `'
)`

const logTableIndex = `CREATE INDEX IF NOT EXISTS idx_%[2]s_status ON %[1]s(SURVEYID, SURVEY_STATUS)`

const answerTableSchema = `CREATE TABLE IF NOT EXISTS %[1]s (
    RESPONDENT_ID TEXT NOT NULL,
    SURVEY_ID TEXT NOT NULL,
    QUESTION_NAME TEXT NOT NULL,
    QUESTION_TEXT TEXT,
    QUESTION_VALUE TEXT,
    CHOICE_TEXT TEXT,
    TEXT_OVERRIDE INTEGER NOT NULL DEFAULT 0,
    ANSWER_ORDER INTEGER NOT NULL,
    PRIMARY KEY (RESPONDENT_ID, SURVEY_ID, QUESTION_NAME)
)`

// CreateSchema creates the respondent log and answer tables.
// Safe to call multiple times - uses IF NOT EXISTS.
func (db *DB) CreateSchema(ctx context.Context, logTable, answerTable string) error {
	if db.dialect == Oracle {
		return errors.NewValidationError("db_driver", string(db.dialect), "schema creation is not supported; create the tables with your DBA tooling")
	}
	if err := ValidateIdentifier("log_table", logTable); err != nil {
		return err
	}
	if err := ValidateIdentifier("answer_table", answerTable); err != nil {
		return err
	}

	statements := []string{
		fmt.Sprintf(logTableSchema, logTable),
		fmt.Sprintf(logTableIndex, logTable, baseName(logTable)),
		fmt.Sprintf(answerTableSchema, answerTable),
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.WrapResource("create", "schema", "", err)
		}
	}
	return nil
}
