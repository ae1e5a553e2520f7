package mediatype

import (
	"context"
	"time"
)

// acceptFunc vets a handler's committed result before the walk accepts it.
// A non-nil error declines the candidate like any other refusal.
type acceptFunc func(result []byte) error

// Dispatch routes content to the handler registered for mediaType. When no
// handler claims the full label, or the claiming handler declines, dispatch
// walks the fallback chain: the dotted prefix loses its last segment while
// the structured-syntax suffix rides along unchanged. The returned bytes
// are the accepting handler's lifted result; ok is false once the label and
// its whole chain are exhausted.
//
// A media type without a suffix has no chain: it either matches exactly or
// fails.
func (r *Registry) Dispatch(ctx context.Context, content []byte, mediaType string) ([]byte, bool) {
	return dispatch(ctx, r, content, mediaType, nil)
}

// DispatchBytes is Dispatch for media-type labels already held as bytes,
// as when the label is sliced out of a wire message. The label is borrowed
// for the duration of the call and not retained. Lookups probe the table
// with the borrowed view directly; a hit on the full label costs no
// allocation.
func (r *Registry) DispatchBytes(ctx context.Context, content, mediaType []byte) ([]byte, bool) {
	return dispatch(ctx, r, content, mediaType, nil)
}

// DispatchAs dispatches like Registry.Dispatch but also projects each
// accepting handler's result into R before committing to it. A result that
// will not project into R, or that fails R's validity check, declines that
// candidate and the fallback walk keeps going.
//
// This is a package-level function (not a method) due to Go generics
// limitations: methods cannot have type parameters independent of the
// receiver.
//
// Example:
//
//	receipt, ok := mediatype.DispatchAs[Receipt](ctx, r, payload, "application/vnd.pix.scan+json")
func DispatchAs[R any](ctx context.Context, r *Registry, content []byte, mediaType string) (R, bool) {
	// The suffix survives every fallback step, so the result codec resolved
	// from the original label holds for the whole chain.
	codec := r.codecFor(mediaType)

	var out R
	_, ok := dispatch(ctx, r, content, mediaType, func(result []byte) error {
		var v R
		if err := codec.Unmarshal(result, &v); err != nil {
			return &declineError{class: ErrResult, err: err}
		}
		if err := checkValid(&v); err != nil {
			return &declineError{class: ErrResult, err: err}
		}
		out = v
		return nil
	})
	if !ok {
		var zero R
		return zero, false
	}
	return out, true
}

// dispatch runs the direct attempt and then the fallback walk. It is
// generic over the label spelling so both entry points probe with their
// label as given; candidate labels derived during the walk share one
// scratch buffer sized by the original label.
func dispatch[K keyBytes](ctx context.Context, r *Registry, content []byte, label K, accept acceptFunc) ([]byte, bool) {
	// Hook-facing label strings are materialized only when a dispatch-path
	// hook is installed, keeping the hookless path allocation-free.
	observed := r.hooks.observesDispatch()
	var name string
	if observed {
		name = string(label)
	}
	r.hooks.fireDispatch(ctx, name)
	start := time.Now()

	if fn, ok := lookup(&r.table, label); ok {
		res, err := fn(ctx, content)
		if err == nil && accept != nil {
			err = accept(res)
		}
		if err == nil {
			r.hooks.fireMatch(ctx, name, name, time.Since(start))
			return res, true
		}
		r.hooks.fireDecline(ctx, name, name, err)
	}

	plus := indexByte(label, '+')
	if plus < 0 {
		r.hooks.fireNoMatch(ctx, name)
		return nil, false
	}

	// The bytes from plus on are the suffix, carried verbatim onto every
	// candidate; end bounds the live prefix, shrinking a dotted segment per
	// step.
	end := plus
	var buf []byte
	for {
		d := lastIndexByteBefore(label, '.', end)
		if d < 0 {
			r.hooks.fireNoMatch(ctx, name)
			return nil, false
		}
		end = d

		if buf == nil {
			buf = make([]byte, 0, len(label))
		}
		buf = appendRange(buf[:0], label, 0, end)
		buf = appendRange(buf, label, plus, len(label))

		var cand string
		if observed {
			cand = string(buf)
		}
		r.hooks.fireFallback(ctx, name, cand)

		if fn, ok := lookup(&r.table, buf); ok {
			res, err := fn(ctx, content)
			if err == nil && accept != nil {
				err = accept(res)
			}
			if err == nil {
				r.hooks.fireMatch(ctx, name, cand, time.Since(start))
				return res, true
			}
			r.hooks.fireDecline(ctx, name, cand, err)
		}
	}
}
