package questionnaire

import (
	"fmt"
	"slices"

	"github.com/agentstation/surveysync/pkg/constants"
	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/xmldoc"
)

// QuestionDefinition is the display text and coded choices of one question.
type QuestionDefinition struct {
	Name    string            `json:"name" yaml:"name"`
	Text    string            `json:"text" yaml:"text"`
	Choices map[string]string `json:"choices" yaml:"choices"`
}

// Index maps question name to its definition. It is built once per survey
// and only read afterwards, so it may be shared between goroutines.
type Index map[string]QuestionDefinition

// BuildIndex indexes every foreground variable of doc.
//
// A variable without a name, or a choice without a value, makes the whole
// document invalid. Missing text bodies become "". When a name repeats, the
// later definition wins.
func BuildIndex(doc *Document) (Index, error) {
	if doc == nil || (doc.XMLName.Local != "" && doc.XMLName.Local != RootElement) {
		return nil, errors.NewDocumentFormatError(RootElement, RootElement, "unexpected root element")
	}
	if doc.Foreground == nil {
		return nil, errors.NewDocumentFormatError(RootElement, "foreground", "")
	}

	index := make(Index, len(doc.Foreground.Variables))
	for i, variable := range doc.Foreground.Variables {
		name, ok := xmldoc.Attr(variable.Name)
		if !ok || name == "" {
			return nil, errors.NewDocumentFormatError(RootElement, "variable@name", fmt.Sprintf("variable %d", i+1))
		}

		choices := make(map[string]string, len(variable.Choices))
		for j, choice := range variable.Choices {
			value, ok := xmldoc.Attr(choice.Value)
			if !ok {
				return nil, errors.NewDocumentFormatError(RootElement, "varChoice@value", fmt.Sprintf("variable %s choice %d", name, j+1))
			}
			choices[value] = choice.Text.String()
		}

		index[name] = QuestionDefinition{
			Name:    name,
			Text:    variable.Text.String(),
			Choices: choices,
		}
	}

	return index, nil
}

// Question returns the definition for name.
func (ix Index) Question(name string) (QuestionDefinition, bool) {
	q, ok := ix[name]
	return q, ok
}

// QuestionText returns the question prompt, or constants.UnknownQuestion.
func (ix Index) QuestionText(name string) string {
	if q, ok := ix[name]; ok {
		return q.Text
	}
	return constants.UnknownQuestion
}

// ChoiceText returns the display text of a coded value, or constants.UnknownChoice.
func (ix Index) ChoiceText(name, value string) string {
	if text, ok := ix[name].Choices[value]; ok {
		return text
	}
	return constants.UnknownChoice
}

// Names returns the indexed question names in sorted order.
func (ix Index) Names() []string {
	names := make([]string, 0, len(ix))
	for name := range ix {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
