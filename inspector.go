package mediatype

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a transport message is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// Inspector parses a raw transport message into a View for field queries.
// Different inspectors handle different outer formats; extractors then work
// against the View without caring what the bytes looked like.
type Inspector interface {
	Inspect(raw []byte) (View, error)
}

// View provides format-agnostic field access for extractor matching.
type View interface {
	// HasField returns true if the path exists in the message.
	HasField(path string) bool

	// GetString returns the string value at path, or false if not found
	// or not a string.
	GetString(path string) (string, bool)

	// GetBytes returns the raw bytes at path, or false if not found.
	// For JSON, this returns the raw JSON value (including quotes for strings).
	GetBytes(path string) ([]byte, bool)
}

// JSONInspector returns an Inspector that uses gjson for field access.
// The message is validated and parsed once; field queries navigate the
// parsed document.
func JSONInspector() Inspector {
	return jsonInspector{}
}

type jsonInspector struct{}

func (jsonInspector) Inspect(raw []byte) (View, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return jsonView{doc: gjson.ParseBytes(raw)}, nil
}

type jsonView struct {
	doc gjson.Result
}

func (v jsonView) HasField(path string) bool {
	return v.doc.Get(path).Exists()
}

func (v jsonView) GetString(path string) (string, bool) {
	r := v.doc.Get(path)
	if r.Type != gjson.String {
		return "", false
	}
	return r.String(), true
}

func (v jsonView) GetBytes(path string) ([]byte, bool) {
	r := v.doc.Get(path)
	if !r.Exists() {
		return nil, false
	}
	return []byte(r.Raw), true
}
