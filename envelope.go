package mediatype

import (
	"context"
	"fmt"
)

// Envelope is a labeled payload pulled out of a transport message: the
// media type naming the payload's shape and the payload bytes themselves.
type Envelope struct {
	MediaType string
	Content   []byte
}

// Predicate is a cheap structural test over a parsed View, evaluated before
// extraction so non-matching message formats cost a few field probes rather
// than a full extraction.
type Predicate func(v View) bool

// HasFields returns a Predicate that matches when all paths exist.
func HasFields(paths ...string) Predicate {
	return func(v View) bool {
		for _, p := range paths {
			if !v.HasField(p) {
				return false
			}
		}
		return true
	}
}

// FieldEquals returns a Predicate that matches when the path exists and
// equals the given string value.
func FieldEquals(path, value string) Predicate {
	return func(v View) bool {
		s, ok := v.GetString(path)
		return ok && s == value
	}
}

// AllOf returns a Predicate that matches when all predicates match.
func AllOf(ps ...Predicate) Predicate {
	return func(v View) bool {
		for _, p := range ps {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

// AnyOf returns a Predicate that matches when any predicate matches.
func AnyOf(ps ...Predicate) Predicate {
	return func(v View) bool {
		for _, p := range ps {
			if p(v) {
				return true
			}
		}
		return false
	}
}

// Extractor pulls an Envelope out of a transport message. Its Predicate is
// evaluated first; Extract runs only on messages the predicate claimed.
type Extractor interface {
	// Name identifies the extractor to hooks.
	Name() string

	// Predicate returns the match test run before Extract.
	Predicate() Predicate

	// Extract reads the media type and payload out of the parsed message.
	Extract(v View) (Envelope, error)
}

// ExtractorFunc builds an Extractor from its parts.
//
// Example:
//
//	queue := mediatype.ExtractorFunc("queue",
//	    mediatype.HasFields("contentType", "payload"),
//	    func(v mediatype.View) (mediatype.Envelope, error) {
//	        mt, _ := v.GetString("contentType")
//	        raw, _ := v.GetBytes("payload")
//	        return mediatype.Envelope{MediaType: mt, Content: raw}, nil
//	    })
func ExtractorFunc(name string, pred Predicate, fn func(v View) (Envelope, error)) Extractor {
	return &extractorFunc{name: name, pred: pred, fn: fn}
}

type extractorFunc struct {
	name string
	pred Predicate
	fn   func(v View) (Envelope, error)
}

func (x *extractorFunc) Name() string         { return x.name }
func (x *extractorFunc) Predicate() Predicate { return x.pred }

func (x *extractorFunc) Extract(v View) (Envelope, error) {
	return x.fn(v)
}

// FieldExtractor returns an Extractor that reads the media type and payload
// from two fixed paths, the common queue-envelope case. The payload is
// taken as the raw bytes under contentPath, so an embedded JSON object
// arrives as that object's own serialization.
func FieldExtractor(name, typePath, contentPath string) Extractor {
	return ExtractorFunc(name, HasFields(typePath, contentPath), func(v View) (Envelope, error) {
		mt, ok := v.GetString(typePath)
		if !ok {
			return Envelope{}, fmt.Errorf("field %s is not a string", typePath)
		}
		raw, ok := v.GetBytes(contentPath)
		if !ok {
			return Envelope{}, fmt.Errorf("field %s missing", contentPath)
		}
		return Envelope{MediaType: mt, Content: raw}, nil
	})
}

// Consume extracts a labeled payload from a raw transport message and
// dispatches it.
//
// The intake flow:
//  1. Parse the message with the registry's inspector
//  2. Find an extractor whose predicate matches the parsed view
//  3. Extract the envelope (media type plus payload)
//  4. Dispatch the payload under the extracted media type
//
// Hooks are called at each point in this flow. ok is false when no
// extractor claims the message, extraction fails, or dispatch exhausts the
// media type's fallback chain.
//
// Example:
//
//	// In an SQS consumer
//	func (s *Subscriber) ProcessMessage(ctx context.Context, msg sqs.Message) error {
//	    if _, ok := s.registry.Consume(ctx, []byte(*msg.Body)); !ok {
//	        return fmt.Errorf("unroutable message")
//	    }
//	    return nil
//	}
func (r *Registry) Consume(ctx context.Context, raw []byte) ([]byte, bool) {
	view, err := r.inspector.Inspect(raw)
	if err != nil {
		r.hooks.fireNoExtractor(ctx, raw)
		return nil, false
	}

	x := r.matchExtractor(view)
	if x == nil {
		r.hooks.fireNoExtractor(ctx, raw)
		return nil, false
	}

	env, err := x.Extract(view)
	if err != nil {
		r.fireExtractError(ctx, x, err)
		return nil, false
	}

	ctx = r.fireExtract(ctx, x, env.MediaType)
	return r.Dispatch(ctx, env.Content, env.MediaType)
}

// fireExtract calls global and extractor OnExtract hooks.
func (r *Registry) fireExtract(ctx context.Context, x Extractor, mediaType string) context.Context {
	for _, fn := range r.hooks.onExtract {
		ctx = fn(ctx, x.Name(), mediaType)
	}
	if h, ok := x.(OnExtractHook); ok {
		ctx = h.OnExtract(ctx, mediaType)
	}
	return ctx
}

// fireExtractError calls global and extractor OnExtractError hooks.
func (r *Registry) fireExtractError(ctx context.Context, x Extractor, err error) {
	for _, fn := range r.hooks.onExtractError {
		fn(ctx, x.Name(), err)
	}
	if h, ok := x.(OnExtractErrorHook); ok {
		h.OnExtractError(ctx, err)
	}
}

// matchExtractor finds an extractor whose predicate claims the view.
// Uses adaptive ordering to try the last successful extractor first.
func (r *Registry) matchExtractor(view View) Extractor {
	if v := r.lastExtract.Load(); v != nil {
		if last, ok := v.(string); ok && last != "" {
			for _, x := range r.extractors {
				if x.Name() == last && x.Predicate()(view) {
					return x
				}
			}
		}
	}

	for _, x := range r.extractors {
		if x.Predicate()(view) {
			r.lastExtract.Store(x.Name())
			return x
		}
	}
	return nil
}
