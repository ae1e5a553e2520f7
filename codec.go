package mediatype

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Codec projects opaque payload bytes into concrete Go values and lifts
// typed results back into bytes. A registry picks the codec for each
// registration from the media type's structured-syntax suffix, so a
// +cbor handler and a +json handler can live in the same table.
//
// Implementations must be safe for concurrent use.
type Codec interface {
	// Suffix is the structured-syntax suffix this codec serves, without the
	// leading '+' (e.g. "json" for application/vnd.example+json).
	Suffix() string

	// Marshal lifts a typed value into payload bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal projects payload bytes into target, which must be a pointer.
	Unmarshal(data []byte, target any) error
}

// JSON returns the encoding/json codec. Every registry starts with it as
// the default.
func JSON() Codec { return jsonCodec{} }

type jsonCodec struct{}

func (jsonCodec) Suffix() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, target any) error {
	return json.Unmarshal(data, target)
}

// CBOR returns a codec for +cbor media types.
func CBOR() Codec { return cborCodec{} }

type cborCodec struct{}

func (cborCodec) Suffix() string { return "cbor" }

func (cborCodec) Marshal(v any) ([]byte, error) { return cbor.Marshal(v) }

func (cborCodec) Unmarshal(data []byte, target any) error {
	return cbor.Unmarshal(data, target)
}

// YAML returns a codec for +yaml media types.
func YAML() Codec { return yamlCodec{} }

type yamlCodec struct{}

func (yamlCodec) Suffix() string { return "yaml" }

func (yamlCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

func (yamlCodec) Unmarshal(data []byte, target any) error {
	return yaml.Unmarshal(data, target)
}
