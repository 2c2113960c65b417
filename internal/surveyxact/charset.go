package surveyxact

import (
	"net/url"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/agentstation/surveysync/internal/mapping"
	"github.com/agentstation/surveysync/pkg/errors"
)

// ResolveCharset maps a charset label to an encoding. UTF-8 and "" return nil.
func ResolveCharset(label string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		return nil, errors.NewValidationError("payload_charset", label, "unsupported character set")
	}
	return enc, nil
}

func charsetName(enc encoding.Encoding) string {
	name, err := ianaindex.MIME.Name(enc)
	if err != nil {
		return "ISO-8859-1"
	}
	return name
}

// EncodeForm renders the payload as an x-www-form-urlencoded body in payload
// order. Values are transcoded to enc first; runes enc cannot represent are
// replaced.
func EncodeForm(payload mapping.Payload, enc encoding.Encoding) ([]byte, error) {
	var encoder *encoding.Encoder
	if enc != nil {
		encoder = encoding.ReplaceUnsupported(enc.NewEncoder())
	}

	var b strings.Builder
	for i, kv := range payload {
		value := kv.Value
		if encoder != nil {
			converted, err := encoder.String(value)
			if err != nil {
				return nil, errors.NewValidationError(kv.Key, value, "cannot encode value: "+err.Error())
			}
			value = converted
		}
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	return []byte(b.String()), nil
}
