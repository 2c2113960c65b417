// Package respondent parses a respondent's answer document into typed raw
// answers. Shape checks happen once here so the reconciler only ever sees
// ChoiceAnswer and TextAnswer values.
package respondent

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/xmldoc"
)

// RootElement is the name of the answer document root.
const RootElement = "respondentanswer"

// Document is the answer XML as returned by the survey service:
//
//	<respondentanswer key="abc123">
//	  <answer>
//	    <valueSingle name="q1"><choice value="1"/></valueSingle>
//	    <valueText name="q2">free text</valueText>
//	  </answer>
//	</respondentanswer>
type Document struct {
	XMLName xml.Name
	Key     string     `xml:"key,attr"`
	Answer  *AnswerSet `xml:"answer"`
}

// AnswerSet holds the answer entries of one respondent.
type AnswerSet struct {
	Singles []ValueSingle `xml:"valueSingle"`
	Texts   []ValueText   `xml:"valueText"`
}

// ValueSingle is a coded single-choice answer.
type ValueSingle struct {
	Name   *string    `xml:"name,attr"`
	Choice *ChoiceRef `xml:"choice"`
}

// ChoiceRef references the chosen coded value.
type ChoiceRef struct {
	Value *string `xml:"value,attr"`
}

// ValueText is a free-text answer.
type ValueText struct {
	Name *string `xml:"name,attr"`
	Text string  `xml:",chardata"`
}

// Parse decodes an answer document. Use Document.Sheet to validate and type it.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	if err := xmldoc.Decode(r, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load parses an answer document and converts it to a Sheet.
func Load(r io.Reader) (*Sheet, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return doc.Sheet()
}

// Sheet validates the document and returns its answers: every coded answer
// in document order followed by every text answer in document order.
func (d *Document) Sheet() (*Sheet, error) {
	if d == nil || (d.XMLName.Local != "" && d.XMLName.Local != RootElement) {
		return nil, errors.NewDocumentFormatError(RootElement, RootElement, "unexpected root element")
	}
	key := strings.TrimSpace(d.Key)
	if key == "" {
		return nil, errors.NewDocumentFormatError(RootElement, RootElement+"@key", "")
	}
	if d.Answer == nil {
		return nil, errors.NewDocumentFormatError(RootElement, "answer", "")
	}

	answers := make([]RawAnswer, 0, len(d.Answer.Singles)+len(d.Answer.Texts))
	for i, single := range d.Answer.Singles {
		name, ok := xmldoc.Attr(single.Name)
		if !ok || name == "" {
			return nil, errors.NewDocumentFormatError(RootElement, "valueSingle@name", fmt.Sprintf("entry %d", i+1))
		}
		if single.Choice == nil {
			return nil, errors.NewDocumentFormatError(RootElement, "choice", "question "+name)
		}
		value, ok := xmldoc.Attr(single.Choice.Value)
		if !ok {
			return nil, errors.NewDocumentFormatError(RootElement, "choice@value", "question "+name)
		}
		answers = append(answers, ChoiceAnswer{Question: name, Value: value})
	}

	for i, text := range d.Answer.Texts {
		name, ok := xmldoc.Attr(text.Name)
		if !ok || name == "" {
			return nil, errors.NewDocumentFormatError(RootElement, "valueText@name", fmt.Sprintf("entry %d", i+1))
		}
		answers = append(answers, TextAnswer{Question: name, Text: strings.TrimSpace(text.Text)})
	}

	return &Sheet{RespondentID: key, Answers: answers}, nil
}
