package mediatype

import (
	"context"
	"time"
)

// OnExtractFunc is called after an extractor successfully pulls an envelope
// out of a transport message. Use this to enrich the context with logging
// fields or trace spans. The returned context is used for the rest of the
// dispatch.
type OnExtractFunc func(ctx context.Context, extractor, mediaType string) context.Context

// OnNoExtractorFunc is called when no extractor claims the message,
// including when the inspector cannot parse it at all.
type OnNoExtractorFunc func(ctx context.Context, raw []byte)

// OnExtractErrorFunc is called when a claiming extractor fails to produce
// an envelope.
type OnExtractErrorFunc func(ctx context.Context, extractor string, err error)

// OnDispatchFunc is called once per dispatch, before the first lookup.
type OnDispatchFunc func(ctx context.Context, mediaType string)

// OnFallbackFunc is called for each derived candidate as the fallback walk
// steps down the media type's dotted prefix.
type OnFallbackFunc func(ctx context.Context, mediaType, candidate string)

// OnDeclineFunc is called when a registered handler refuses a candidate.
// Classify err with errors.Is against ErrProject, ErrValidate, and
// ErrResult; anything else is the handler's own error.
type OnDeclineFunc func(ctx context.Context, mediaType, candidate string, err error)

// OnMatchFunc is called after a handler accepts. matched is the candidate
// that accepted, which is mediaType itself unless the fallback walk ran.
type OnMatchFunc func(ctx context.Context, mediaType, matched string, duration time.Duration)

// OnNoMatchFunc is called when the media type and its whole fallback chain
// are exhausted.
type OnNoMatchFunc func(ctx context.Context, mediaType string)

// hooks holds all configured hook functions.
type hooks struct {
	onExtract      []OnExtractFunc
	onNoExtractor  []OnNoExtractorFunc
	onExtractError []OnExtractErrorFunc
	onDispatch     []OnDispatchFunc
	onFallback     []OnFallbackFunc
	onDecline      []OnDeclineFunc
	onMatch        []OnMatchFunc
	onNoMatch      []OnNoMatchFunc
}

// WithOnExtract adds a hook called after an extractor produces an envelope.
// Multiple hooks are called in order, with context chaining through each.
//
// Example:
//
//	mediatype.WithOnExtract(func(ctx context.Context, extractor, mediaType string) context.Context {
//	    return logx.WithCtx(ctx, slog.String("extractor", extractor))
//	})
func WithOnExtract(fn OnExtractFunc) Option {
	return func(r *Registry) {
		r.hooks.onExtract = append(r.hooks.onExtract, fn)
	}
}

// WithOnNoExtractor adds a hook called when no extractor claims a message.
// Multiple hooks are called in order.
//
// Example:
//
//	mediatype.WithOnNoExtractor(func(ctx context.Context, raw []byte) {
//	    logger.Warn(ctx, "unknown message format")
//	})
func WithOnNoExtractor(fn OnNoExtractorFunc) Option {
	return func(r *Registry) {
		r.hooks.onNoExtractor = append(r.hooks.onNoExtractor, fn)
	}
}

// WithOnExtractError adds a hook called when a claiming extractor fails.
// Multiple hooks are called in order.
//
// Example:
//
//	mediatype.WithOnExtractError(func(ctx context.Context, extractor string, err error) {
//	    logger.Error(ctx, "extraction failed", "extractor", extractor, "error", err)
//	})
func WithOnExtractError(fn OnExtractErrorFunc) Option {
	return func(r *Registry) {
		r.hooks.onExtractError = append(r.hooks.onExtractError, fn)
	}
}

// WithOnDispatch adds a hook called once per dispatch, before the first
// lookup. Multiple hooks are called in order.
//
// Example:
//
//	mediatype.WithOnDispatch(func(ctx context.Context, mediaType string) {
//	    logger.Info(ctx, "dispatching content", "mediaType", mediaType)
//	})
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(r *Registry) {
		r.hooks.onDispatch = append(r.hooks.onDispatch, fn)
	}
}

// WithOnFallback adds a hook called for each candidate the fallback walk
// derives. Multiple hooks are called in order.
//
// Example:
//
//	mediatype.WithOnFallback(func(ctx context.Context, mediaType, candidate string) {
//	    metrics.Incr("dispatch.fallback", "candidate:"+candidate)
//	})
func WithOnFallback(fn OnFallbackFunc) Option {
	return func(r *Registry) {
		r.hooks.onFallback = append(r.hooks.onFallback, fn)
	}
}

// WithOnDecline adds a hook called when a handler refuses a candidate.
// Multiple hooks are called in order.
//
// Example:
//
//	mediatype.WithOnDecline(func(ctx context.Context, mediaType, candidate string, err error) {
//	    if errors.Is(err, mediatype.ErrProject) {
//	        metrics.Incr("dispatch.bad_payload", "candidate:"+candidate)
//	    }
//	})
func WithOnDecline(fn OnDeclineFunc) Option {
	return func(r *Registry) {
		r.hooks.onDecline = append(r.hooks.onDecline, fn)
	}
}

// WithOnMatch adds a hook called after a handler accepts.
// Multiple hooks are called in order.
//
// Example:
//
//	mediatype.WithOnMatch(func(ctx context.Context, mediaType, matched string, d time.Duration) {
//	    metrics.Timing("dispatch.match", d, "matched:"+matched)
//	})
func WithOnMatch(fn OnMatchFunc) Option {
	return func(r *Registry) {
		r.hooks.onMatch = append(r.hooks.onMatch, fn)
	}
}

// WithOnNoMatch adds a hook called when a dispatch exhausts its fallback
// chain. Multiple hooks are called in order.
//
// Example:
//
//	mediatype.WithOnNoMatch(func(ctx context.Context, mediaType string) {
//	    logger.Warn(ctx, "unroutable media type", "mediaType", mediaType)
//	})
func WithOnNoMatch(fn OnNoMatchFunc) Option {
	return func(r *Registry) {
		r.hooks.onNoMatch = append(r.hooks.onNoMatch, fn)
	}
}

// OnExtractHook is an optional interface that extractors can implement to
// add extractor-specific context enrichment. Called after global OnExtract
// hooks.
type OnExtractHook interface {
	OnExtract(ctx context.Context, mediaType string) context.Context
}

// OnExtractErrorHook is an optional interface that extractors can implement
// to observe their own extraction failures. Called after global
// OnExtractError hooks.
type OnExtractErrorHook interface {
	OnExtractError(ctx context.Context, err error)
}

// observesDispatch reports whether any dispatch-path hook is installed.
// When none is, the engine skips materializing hook-facing label strings.
func (h *hooks) observesDispatch() bool {
	return len(h.onDispatch) > 0 || len(h.onFallback) > 0 || len(h.onDecline) > 0 ||
		len(h.onMatch) > 0 || len(h.onNoMatch) > 0
}

func (h *hooks) fireDispatch(ctx context.Context, mediaType string) {
	for _, fn := range h.onDispatch {
		fn(ctx, mediaType)
	}
}

func (h *hooks) fireFallback(ctx context.Context, mediaType, candidate string) {
	for _, fn := range h.onFallback {
		fn(ctx, mediaType, candidate)
	}
}

func (h *hooks) fireDecline(ctx context.Context, mediaType, candidate string, err error) {
	for _, fn := range h.onDecline {
		fn(ctx, mediaType, candidate, err)
	}
}

func (h *hooks) fireMatch(ctx context.Context, mediaType, matched string, duration time.Duration) {
	for _, fn := range h.onMatch {
		fn(ctx, mediaType, matched, duration)
	}
}

func (h *hooks) fireNoMatch(ctx context.Context, mediaType string) {
	for _, fn := range h.onNoMatch {
		fn(ctx, mediaType)
	}
}

func (h *hooks) fireNoExtractor(ctx context.Context, raw []byte) {
	for _, fn := range h.onNoExtractor {
		fn(ctx, raw)
	}
}
