// Package table converts survey records into rows for table output.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/surveysync/internal/collect"
	"github.com/agentstation/surveysync/internal/mapping"
	"github.com/agentstation/surveysync/internal/upload"
	"github.com/agentstation/surveysync/pkg/questionnaire"
	"github.com/agentstation/surveysync/pkg/reconciler"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align
}

const maxCellWidth = 60

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= maxCellWidth {
		return s
	}
	return string([]rune(s)[:maxCellWidth-3]) + "..."
}

// AnswersToTableData converts reconciled answers to table format.
func AnswersToTableData(answers []reconciler.Answer, wide bool) Data {
	headers := []string{"Respondent", "Question", "Value", "Answer"}
	if wide {
		headers = append(headers, "Question Text", "Override")
	}

	rows := make([][]string, 0, len(answers))
	for _, a := range answers {
		value := "-"
		if a.QuestionValue != nil {
			value = *a.QuestionValue
		}
		row := []string{a.RespondentID, a.QuestionName, value, truncate(a.ChoiceText)}
		if wide {
			override := ""
			if a.TextOverride {
				override = "yes"
			}
			row = append(row, truncate(a.QuestionText), override)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows}
}

// QuestionsToTableData lists an index in name order.
func QuestionsToTableData(index questionnaire.Index) Data {
	rows := make([][]string, 0, len(index))
	for _, name := range index.Names() {
		q := index[name]
		rows = append(rows, []string{name, truncate(q.Text), strconv.Itoa(len(q.Choices))})
	}
	return Data{
		Headers:         []string{"Question", "Text", "Choices"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight},
	}
}

// UploadResultToTableData summarizes an upload run, one row per failure
// after the totals.
func UploadResultToTableData(r *upload.Result) Data {
	rows := [][]string{
		{"Run", r.RunID},
		{"Survey", r.SurveyID},
		{"Job", r.Job},
		{"Rows", strconv.Itoa(r.Total)},
		{"Created", strconv.Itoa(r.Created)},
		{"Failed", strconv.Itoa(r.Failed)},
		{"Duration", r.Duration.Round(1e6).String()},
	}
	for _, e := range r.Errors {
		rows = append(rows, []string{fmt.Sprintf("Row %d", e.Row), truncate(e.Err.Error())})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// CollectResultToTableData summarizes a collection run.
func CollectResultToTableData(r *collect.Result) Data {
	rows := [][]string{
		{"Run", r.RunID},
		{"Survey", r.SurveyID},
		{"Respondents", strconv.Itoa(r.Respondents)},
		{"Collected", strconv.Itoa(r.Collected)},
		{"Answers", strconv.Itoa(len(r.Answers))},
		{"Overrides", strconv.Itoa(r.Stats.Overrides)},
		{"Unknown Questions", strconv.Itoa(r.Stats.UnknownQuestions)},
		{"Unknown Choices", strconv.Itoa(r.Stats.UnknownChoices)},
		{"Duration", r.Duration.Round(1e6).String()},
	}
	for _, f := range r.Failed {
		rows = append(rows, []string{"Skipped " + f.Key, truncate(f.Err.Error())})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// PayloadsToTableData shows upload payloads, one column per remote key in
// the order of the first payload.
func PayloadsToTableData(payloads []mapping.Payload) Data {
	if len(payloads) == 0 {
		return Data{}
	}
	headers := make([]string, 0, len(payloads[0]))
	for _, p := range payloads[0] {
		headers = append(headers, p.Key)
	}
	rows := make([][]string, 0, len(payloads))
	for _, p := range payloads {
		row := make([]string, len(headers))
		for i, key := range headers {
			v, _ := p.Get(key)
			row[i] = truncate(v)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}
