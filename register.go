package mediatype

import (
	"context"
	"errors"
)

// validatable is the interface for payload and result validation.
// Compatible with github.com/go-ozzo/ozzo-validation/v4.
type validatable interface {
	Validate() error
}

// thunk is the stored, type-erased dispatch function: opaque content in,
// opaque result out. A nil error commits the result; any error declines the
// candidate and the fallback walk keeps going.
type thunk func(ctx context.Context, content []byte) ([]byte, error)

// Handler processes content of a single media type.
//
// C is the content shape the payload projects into before handling; R is the
// result shape lifted back into bytes afterward. A handler names the media
// type it serves, so registration needs no separate label.
//
// Example:
//
//	type ThumbnailHandler struct{ store *BlobStore }
//
//	func (h *ThumbnailHandler) MediaType() string {
//	    return "application/vnd.pix.thumbnail+json"
//	}
//
//	func (h *ThumbnailHandler) Handle(ctx context.Context, req ThumbnailRequest) (Receipt, error) {
//	    ...
//	}
type Handler[C, R any] interface {
	// MediaType returns the media type this handler serves.
	MediaType() string

	// Handle processes one piece of content. Returning an error declines the
	// content and lets dispatch continue down the fallback chain.
	Handle(ctx context.Context, content C) (R, error)
}

// Provider separates media-type discovery from handler construction, for
// handlers that must be built fresh per dispatch (pooled connections, DI
// scopes). MediaType is read once at registration; Handler runs on every
// dispatch.
type Provider[C, R any] interface {
	MediaType() string
	Handler() Handler[C, R]
}

// FactoryOf adapts a bare constructor into a Provider. The constructor runs
// once, immediately, to read the media type off a throwaway instance; after
// that every dispatch constructs a fresh handler.
func FactoryOf[C, R any](fn func() Handler[C, R]) Provider[C, R] {
	return factory[C, R]{mediaType: fn().MediaType(), construct: fn}
}

type factory[C, R any] struct {
	mediaType string
	construct func() Handler[C, R]
}

func (f factory[C, R]) MediaType() string      { return f.mediaType }
func (f factory[C, R]) Handler() Handler[C, R] { return f.construct() }

// RegisterOption adjusts a single registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	codec Codec
}

// WithHandlerCodec pins the conversion codec for one registration, bypassing
// suffix resolution. Use it when a handler's media type carries no suffix
// but its payloads are not in the registry's default encoding.
func WithHandlerCodec(c Codec) RegisterOption {
	return func(o *registerOptions) {
		o.codec = c
	}
}

// Register adds h under its own media type. The first registration for a
// media type wins: Register reports false and leaves the table untouched
// when the type is already taken.
//
// This is a package-level function (not a method) due to Go generics
// limitations: methods cannot have type parameters independent of the
// receiver.
//
// Example:
//
//	mediatype.Register(r, &ThumbnailHandler{store: store})
//	mediatype.Register(r, &ArchiveHandler{store: store})
func Register[C, R any](r *Registry, h Handler[C, R], opts ...RegisterOption) bool {
	handle := h.Handle
	return register(r, h.MediaType(), func() func(context.Context, C) (R, error) {
		return handle
	}, opts)
}

// RegisterFunc adds a handler function under an explicit media type, for
// handlers with no state worth a named type.
//
// Example:
//
//	mediatype.RegisterFunc(r, "application/vnd.pix.ping+json",
//	    func(ctx context.Context, p Ping) (Pong, error) {
//	        return Pong{ID: p.ID}, nil
//	    })
func RegisterFunc[C, R any](r *Registry, mediaType string, fn func(ctx context.Context, content C) (R, error), opts ...RegisterOption) bool {
	return register(r, mediaType, func() func(context.Context, C) (R, error) {
		return fn
	}, opts)
}

// RegisterProvider adds a provider-backed registration: each dispatch asks p
// for a fresh handler. Combine with FactoryOf to register a bare
// constructor.
//
// Example:
//
//	mediatype.RegisterProvider(r, mediatype.FactoryOf(func() mediatype.Handler[Job, Receipt] {
//	    return &JobHandler{conn: pool.Get()}
//	}))
func RegisterProvider[C, R any](r *Registry, p Provider[C, R], opts ...RegisterOption) bool {
	return register(r, p.MediaType(), func() func(context.Context, C) (R, error) {
		return p.Handler().Handle
	}, opts)
}

// register funnels every public form into the stored thunk shape: resolve
// the handling function, project the content, check it, handle, check the
// result, lift it.
func register[C, R any](r *Registry, mediaType string, resolve func() func(context.Context, C) (R, error), opts []RegisterOption) bool {
	var ro registerOptions
	for _, opt := range opts {
		opt(&ro)
	}
	codec := ro.codec
	if codec == nil {
		codec = r.codecFor(mediaType)
	}

	return r.table.insert(mediaType, func(ctx context.Context, content []byte) ([]byte, error) {
		var in C
		if err := codec.Unmarshal(content, &in); err != nil {
			return nil, &declineError{class: ErrProject, err: err}
		}
		if err := checkValid(&in); err != nil {
			return nil, &declineError{class: ErrValidate, err: err}
		}

		out, err := resolve()(ctx, in)
		if err != nil {
			return nil, err
		}

		if err := checkValid(&out); err != nil {
			return nil, &declineError{class: ErrResult, err: err}
		}
		raw, err := codec.Marshal(out)
		if err != nil {
			return nil, &declineError{class: ErrResult, err: err}
		}
		return raw, nil
	})
}

// checkValid runs a value's own Validate method when it has one. The value
// and its address are both tried so pointer-receiver methods count.
func checkValid[T any](v *T) error {
	if c, ok := any(*v).(validatable); ok {
		return c.Validate()
	}
	if c, ok := any(v).(validatable); ok {
		return c.Validate()
	}
	return nil
}

// ErrProject matches declines where content would not project into the
// handler's content shape.
var ErrProject = errors.New("cannot project content")

// ErrValidate matches declines where projected content failed its own
// Validate method.
var ErrValidate = errors.New("invalid content")

// ErrResult matches declines where a handler's result failed its validity
// check or would not convert to the caller's declared shape.
var ErrResult = errors.New("invalid result")

// declineError wraps decline causes so hooks can classify them with
// errors.Is against the sentinel in class while still unwrapping to the
// underlying cause.
type declineError struct {
	class error
	err   error
}

func (e *declineError) Error() string { return e.err.Error() }
func (e *declineError) Unwrap() error { return e.err }

func (e *declineError) Is(target error) bool {
	return target == e.class
}
