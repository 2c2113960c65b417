// Package xmldoc holds the decoding helpers shared by the questionnaire and
// respondent answer documents returned by the survey service.
package xmldoc

import (
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/agentstation/surveysync/pkg/errors"
)

// Text is an element whose character data is the payload, e.g. <text lang="da">Ja</text>.
type Text struct {
	Value string `xml:",chardata"`
}

// String returns the trimmed character data, or "" for a missing element.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	return strings.TrimSpace(t.Value)
}

// Decode decodes a single XML document from r into v. Documents declaring a
// non UTF-8 encoding (the service defaults to ISO-8859-1 for older surveys)
// are transcoded on the fly.
func Decode(r io.Reader, v any) error {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = CharsetReader
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.NewParseError("xml", "", "empty document", err)
		}
		return errors.WrapParse("xml", "", err)
	}
	return nil
}

// CharsetReader returns a UTF-8 reader for input encoded with the IANA charset label.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, errors.NewValidationError("charset", label, "unsupported character set")
	}
	return enc.NewDecoder().Reader(input), nil
}

// Attr dereferences an optional attribute.
func Attr(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
