package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/surveysync/internal/appcontext"
	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/reconciler"
)

const questionnaireXML = `<questionnaire key="S1">
  <foreground>
    <variable name="Q1"><text>Would you recommend us?</text>
      <varChoice value="1"><text>Yes</text></varChoice>
    </variable>
    <variable name="Q2"><text>Anything else?</text></variable>
  </foreground>
</questionnaire>`

const answersXML = `<respondentanswer key="R1">
  <answer>
    <valueSingle name="Q1"><choice value="1"/></valueSingle>
    <valueText name="Q1">Yes, absolutely</valueText>
    <valueText name="Q2">Nothing</valueText>
  </answer>
</respondentanswer>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, app appcontext.Interface, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReconcileCommand(t *testing.T) {
	q := writeFile(t, "questionnaire.xml", questionnaireXML)
	a := writeFile(t, "answers.xml", answersXML)

	out, err := execute(t, &appcontext.Mock{}, "--questionnaire", q, "--answers", a, "--survey", "S1")
	require.NoError(t, err)

	var answers []reconciler.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &answers))
	require.Len(t, answers, 2)

	assert.Equal(t, "R1", answers[0].RespondentID)
	assert.Equal(t, "S1", answers[0].SurveyID)
	assert.Equal(t, "Yes, absolutely", answers[0].ChoiceText)
	assert.True(t, answers[0].TextOverride)
	assert.Equal(t, "Nothing", answers[1].ChoiceText)
}

func TestReconcileCommandNoOverride(t *testing.T) {
	q := writeFile(t, "questionnaire.xml", questionnaireXML)
	a := writeFile(t, "answers.xml", answersXML)

	out, err := execute(t, &appcontext.Mock{}, "--questionnaire", q, "--answers", a, "--no-override")
	require.NoError(t, err)

	var answers []reconciler.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &answers))
	require.NotEmpty(t, answers)
	assert.Equal(t, "Yes", answers[0].ChoiceText)
	assert.False(t, answers[0].TextOverride)
}

func TestReconcileCommandTable(t *testing.T) {
	q := writeFile(t, "questionnaire.xml", questionnaireXML)
	a := writeFile(t, "answers.xml", answersXML)
	mock := &appcontext.Mock{OutputFormatFunc: func() string { return "table" }}

	out, err := execute(t, mock, "--questionnaire", q, "--answers", a)
	require.NoError(t, err)
	assert.Contains(t, out, "absolutely")
	assert.Contains(t, out, "Q2")
}

func TestReconcileCommandErrors(t *testing.T) {
	q := writeFile(t, "questionnaire.xml", questionnaireXML)
	malformed := writeFile(t, "answers.xml", `<respondentanswer key="R1"/>`)

	_, err := execute(t, &appcontext.Mock{}, "--questionnaire", q, "--answers", malformed)
	assert.True(t, errors.IsDocumentFormat(err))

	_, err = execute(t, &appcontext.Mock{}, "--questionnaire", q, "--answers", filepath.Join(t.TempDir(), "missing.xml"))
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}
