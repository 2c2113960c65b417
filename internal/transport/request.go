package transport

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/xmldoc"
)

// JoinURL appends path segments to base, escaping each segment.
func JoinURL(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// DecodeJSON decodes a JSON response into the target structure.
func DecodeJSON(resp *Response, target any) error {
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}

// DecodeXML decodes an XML response into the target structure.
func DecodeXML(resp *Response, target any) error {
	return xmldoc.Decode(bytes.NewReader(resp.Body), target)
}
