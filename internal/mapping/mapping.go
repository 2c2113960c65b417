// Package mapping turns extracted source rows into respondent payloads
// for the survey service.
package mapping

import (
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/surveysync/pkg/errors"
)

// Payload keys with a fixed meaning.
const (
	AccountKey = "accounti"
	RequestKey = "requesti"
)

// Field maps one payload key to one source column.
type Field struct {
	Key    string `yaml:"key" json:"key"`
	Column string `yaml:"column" json:"column"`
}

// FieldMap is an ordered list of payload fields.
type FieldMap []Field

type fileFormat struct {
	Fields FieldMap `yaml:"fields"`
}

// Default returns the base survey field map.
func Default() FieldMap {
	return FieldMap{
		{Key: "email", Column: "EMAIL"},
		{Key: "entrytyp", Column: "ENTRYTYPE"},
		{Key: "telco", Column: "TELCO"},
		{Key: AccountKey, Column: "ACCOUNTID"},
		{Key: "firstnam", Column: "FIRSTNAME"},
		{Key: "lastnam", Column: "LASTNAME"},
		{Key: "zipcode", Column: "ZIPCODE"},
		{Key: "sex", Column: "SEX"},
		{Key: "age", Column: "AGE"},
		{Key: "kundeniv", Column: "KUNDENIVEAUPRIS"},
		{Key: "schannel", Column: "SALESCHANNEL"},
		{Key: "permissi", Column: "PERMISSION"},
		{Key: "gadato", Column: "FIRSTACTIVEDATE"},
		{Key: "salgsdat", Column: "SUBSCRIBEDATE"},
		{Key: "mix", Column: "MIX"},
		{Key: "voice", Column: "VOICE"},
		{Key: "fwa", Column: "FWA"},
		{Key: "mbb", Column: "MBB"},
		{Key: "phone", Column: "PHONE"},
	}
}

// Load reads a field map from YAML:
//
//	fields:
//	  - key: email
//	    column: EMAIL
func Load(r io.Reader) (FieldMap, error) {
	var f fileFormat
	if err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.NewValidationError("fields", nil, "field map is empty")
		}
		return nil, errors.WrapParse("yaml", "field map", err)
	}
	if err := f.Fields.Validate(); err != nil {
		return nil, err
	}
	return f.Fields, nil
}

// LoadFile reads a field map from a YAML file.
func LoadFile(path string) (FieldMap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = file.Close() }()

	m, err := Load(file)
	if err != nil {
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) {
			parseErr.File = path
		}
		return nil, err
	}
	return m, nil
}

// Validate checks that every field names a key and a column, and that keys
// are unique.
func (m FieldMap) Validate() error {
	if len(m) == 0 {
		return errors.NewValidationError("fields", nil, "field map is empty")
	}
	seen := make(map[string]struct{}, len(m))
	for i, f := range m {
		if f.Key == "" || f.Column == "" {
			return errors.NewValidationError("fields", i, "key and column are required")
		}
		if f.Key == RequestKey {
			return errors.NewValidationError("fields", f.Key, "key is reserved")
		}
		if _, ok := seen[f.Key]; ok {
			return errors.NewValidationError("fields", f.Key, "duplicate key "+f.Key)
		}
		seen[f.Key] = struct{}{}
	}
	return nil
}

// Columns returns the source columns in map order.
func (m FieldMap) Columns() []string {
	cols := make([]string, len(m))
	for i, f := range m {
		cols[i] = f.Column
	}
	return cols
}

// Apply builds a payload from a source row. String values are trimmed.
// Column lookup falls back to a case-insensitive match because some
// databases fold unquoted identifiers.
func (m FieldMap) Apply(row map[string]string) (Payload, error) {
	payload := make(Payload, 0, len(m)+1)
	for _, f := range m {
		value, ok := lookup(row, f.Column)
		if !ok {
			return nil, errors.NewValidationError(f.Column, nil, "column missing from source row")
		}
		payload = append(payload, Pair{Key: f.Key, Value: strings.TrimSpace(value)})
	}
	return payload, nil
}

func lookup(row map[string]string, column string) (string, bool) {
	if v, ok := row[column]; ok {
		return v, true
	}
	for k, v := range row {
		if strings.EqualFold(k, column) {
			return v, true
		}
	}
	return "", false
}

// Pair is one payload entry.
type Pair struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Payload is an ordered set of form fields.
type Payload []Pair

// Get returns the value for key.
func (p Payload) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Set replaces the value for key or appends it.
func (p *Payload) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Pair{Key: key, Value: value})
}

// Values converts the payload to url.Values.
func (p Payload) Values() url.Values {
	v := make(url.Values, len(p))
	for _, kv := range p {
		v.Add(kv.Key, kv.Value)
	}
	return v
}
