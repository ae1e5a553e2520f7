package mediatype

import (
	"slices"
	"sync/atomic"
)

// Registry dispatches content to registered handlers based on media types.
//
// Usage:
//  1. Create a registry with New
//  2. Register handlers with Register, RegisterFunc, or RegisterProvider
//  3. Hand labeled content to Dispatch, or raw transport messages to Consume
//     (after wiring extractors with AddExtractor)
//
// A media type with a structured-syntax suffix falls back through its dotted
// prefix when no handler claims the full label: content labeled
// "application/vnd.pix.scan.v1+json" is offered to
// "application/vnd.pix.scan+json", then "application/vnd.pix+json", and so
// on until a handler accepts. The suffix rides along unchanged, so a
// fallback never crosses encodings.
//
// Registry is safe for concurrent use after configuration. Do not call
// AddExtractor or the Register functions once dispatching has begun.
type Registry struct {
	table        table
	codecs       map[string]Codec
	defaultCodec Codec
	inspector    Inspector
	extractors   []Extractor
	hooks        hooks

	// Adaptive ordering: try last successful extractor first
	lastExtract atomic.Value // stores string
}

// Option configures a Registry at construction.
type Option func(*Registry)

// New creates a Registry with the given options.
//
// By default the registry converts payloads with the JSON codec, picks CBOR
// or YAML when a media type's suffix asks for them, and inspects transport
// messages as JSON. Use WithCodec, WithDefaultCodec, and WithInspector to
// override.
//
// Example:
//
//	r := mediatype.New(
//	    mediatype.WithOnExtract(func(ctx context.Context, extractor, mediaType string) context.Context {
//	        return logx.WithCtx(ctx, slog.String("extractor", extractor))
//	    }),
//	    mediatype.WithOnMatch(func(ctx context.Context, mediaType, matched string, d time.Duration) {
//	        metrics.Timing("dispatch.match", d)
//	    }),
//	)
func New(opts ...Option) *Registry {
	r := &Registry{
		codecs: map[string]Codec{
			"json": JSON(),
			"cbor": CBOR(),
			"yaml": YAML(),
		},
		defaultCodec: JSON(),
		inspector:    JSONInspector(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithCodec registers c under its suffix, replacing any codec already
// serving that suffix.
func WithCodec(c Codec) Option {
	return func(r *Registry) {
		r.codecs[c.Suffix()] = c
	}
}

// WithDefaultCodec sets the codec used when a media type has no suffix, or
// a suffix no registered codec serves.
func WithDefaultCodec(c Codec) Option {
	return func(r *Registry) {
		r.defaultCodec = c
	}
}

// WithInspector sets the inspector Consume parses transport messages with.
func WithInspector(i Inspector) Option {
	return func(r *Registry) {
		r.inspector = i
	}
}

// AddExtractor appends x to the intake chain. Extractors are tried in
// registration order, with the last successful one tried first.
//
// Example:
//
//	r.AddExtractor(mediatype.FieldExtractor("queue", "contentType", "payload"))
//	r.AddExtractor(cloudEventExtractor)
func (r *Registry) AddExtractor(x Extractor) {
	r.extractors = append(r.extractors, x)
}

// Handles reports whether a handler is registered for exactly mediaType. It
// does not consult the fallback chain.
func (r *Registry) Handles(mediaType string) bool {
	_, ok := lookup(&r.table, mediaType)
	return ok
}

// MediaTypes returns every registered media type, sorted.
func (r *Registry) MediaTypes() []string {
	keys := r.table.keys()
	slices.Sort(keys)
	return keys
}

// codecFor resolves the conversion codec from a media type's
// structured-syntax suffix. The first '+' starts the suffix; everything
// after it names the codec.
func (r *Registry) codecFor(mediaType string) Codec {
	if i := indexByte(mediaType, '+'); i >= 0 {
		if c, ok := r.codecs[mediaType[i+1:]]; ok {
			return c
		}
	}
	return r.defaultCodec
}
