// Package questionnaire parses survey questionnaire definitions and indexes
// them by question name so coded answers can be resolved to display text.
package questionnaire

import (
	"encoding/xml"
	"io"

	"github.com/agentstation/surveysync/pkg/xmldoc"
)

// RootElement is the name of the questionnaire document root.
const RootElement = "questionnaire"

// Document is the questionnaire XML as returned by the survey service:
//
//	<questionnaire>
//	  <foreground>
//	    <variable name="q1">
//	      <text>Would you recommend us?</text>
//	      <varChoice value="1"><text>Yes</text></varChoice>
//	    </variable>
//	  </foreground>
//	</questionnaire>
type Document struct {
	XMLName    xml.Name
	Foreground *Foreground `xml:"foreground"`
}

// Foreground holds the question variables shown to respondents.
type Foreground struct {
	Variables []Variable `xml:"variable"`
}

// Variable is one question entry.
type Variable struct {
	Name    *string      `xml:"name,attr"`
	Text    *xmldoc.Text `xml:"text"`
	Choices []VarChoice  `xml:"varChoice"`
}

// VarChoice is one coded choice of a question.
type VarChoice struct {
	Value *string      `xml:"value,attr"`
	Text  *xmldoc.Text `xml:"text"`
}

// Parse decodes a questionnaire document. Structural validation happens in BuildIndex.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	if err := xmldoc.Decode(r, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load parses a questionnaire document and builds its index.
func Load(r io.Reader) (Index, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return BuildIndex(doc)
}
