// Package mediatype routes opaque content to typed handlers by media type.
//
// The package keeps a registry of handlers keyed by raw media-type bytes.
// Content labeled with a structured-syntax suffix (the "+json" in
// "application/vnd.pix.scan+json") that no handler claims outright falls
// back through its dotted prefix, one segment at a time, until some handler
// accepts it. Payload conversion, validation, and observability live in the
// registry, so handlers hold nothing but business logic.
//
// # Quick Start
//
// Define a handler that names its media type:
//
//	type ThumbnailHandler struct {
//	    store *BlobStore
//	}
//
//	type ThumbnailRequest struct {
//	    ID   string `json:"id"`
//	    Data []byte `json:"data"`
//	}
//
//	type Receipt struct {
//	    HandledBy string `json:"handledBy"`
//	    Bytes     int    `json:"bytes"`
//	}
//
//	func (h *ThumbnailHandler) MediaType() string {
//	    return "application/vnd.pix.thumbnail+json"
//	}
//
//	func (h *ThumbnailHandler) Handle(ctx context.Context, req ThumbnailRequest) (Receipt, error) {
//	    if err := h.store.Put(ctx, req.ID, req.Data); err != nil {
//	        return Receipt{}, err
//	    }
//	    return Receipt{HandledBy: "thumbnail", Bytes: len(req.Data)}, nil
//	}
//
// Create a registry, register handlers, and dispatch labeled content:
//
//	r := mediatype.New()
//
//	mediatype.Register(r, &ThumbnailHandler{store: store})
//
//	result, ok := r.Dispatch(ctx, payload, "application/vnd.pix.thumbnail.v2+json")
//
// The v2 label above has no handler of its own, so dispatch falls back to
// "application/vnd.pix.thumbnail+json" and the thumbnail handler takes it.
//
// # Design Philosophy
//
// The package separates concerns into four layers:
//
//   - Extractors: Pull labeled payloads out of raw transport messages
//   - Registry: Matches media types to handlers, walks the fallback chain
//   - Codecs: Convert between payload bytes and typed Go values
//   - Handlers: Pure business logic with typed content
//
// This separation allows:
//   - One queue carrying many content shapes and encodings
//   - Transport-agnostic handler code
//   - Version-tolerant routing via suffix fallback
//   - Consistent observability via hooks
//
// # Media Type Fallback
//
// A media type splits at its first '+': the dotted prefix names the content,
// the suffix names the encoding. When the full label has no handler, or its
// handler declines, the walk drops the last dot-separated segment of the
// prefix and reattaches the suffix unchanged:
//
//	application/vnd.pix.scan.v1+json
//	application/vnd.pix.scan+json
//	application/vnd.pix+json
//	application/vnd+json
//
// The first handler that accepts ends the walk. A label without a '+' has
// no chain: it matches exactly or not at all. Because the suffix is carried
// verbatim, a fallback never silently switches encodings.
//
// Registration is first-writer-wins. Registering a media type that is
// already taken reports false and changes nothing, so a widely-shared
// registry cannot have handlers swapped out from under it.
//
// # Codecs
//
// Each registration converts payloads with the codec matching its media
// type's suffix. JSON, CBOR, and YAML codecs are installed by default;
// labels with no suffix, or an unclaimed suffix, use the default codec
// (JSON unless overridden):
//
//	r := mediatype.New(
//	    mediatype.WithCodec(protoCodec),          // serve "+proto" labels
//	    mediatype.WithDefaultCodec(mediatype.CBOR()), // suffixless labels are CBOR
//	)
//
// A single registration can pin its codec regardless of suffix:
//
//	mediatype.RegisterFunc(r, "application/octet-stream", handleBlob,
//	    mediatype.WithHandlerCodec(mediatype.CBOR()))
//
// # Registration Forms
//
// Handlers with state implement Handler and register as values:
//
//	mediatype.Register(r, &ThumbnailHandler{store: store})
//
// Bare functions register under an explicit label:
//
//	mediatype.RegisterFunc(r, "application/vnd.pix.ping+json",
//	    func(ctx context.Context, p Ping) (Pong, error) { ... })
//
// Handlers that must be constructed fresh per dispatch register through a
// Provider. FactoryOf adapts a plain constructor, reading the media type
// off one throwaway instance at registration time:
//
//	mediatype.RegisterProvider(r, mediatype.FactoryOf(func() mediatype.Handler[Job, Receipt] {
//	    return &JobHandler{conn: pool.Get()}
//	}))
//
// # Intake
//
// Consume feeds raw transport messages through extractors before
// dispatching. The Inspector/View abstraction gives extractors
// format-agnostic field access:
//
//	type View interface {
//	    HasField(path string) bool
//	    GetString(path string) (string, bool)
//	    GetBytes(path string) ([]byte, bool)
//	}
//
// Extractors match with cheap predicates before extracting, so mixed-format
// queues cost a few field probes per foreign message. Predicates compose:
//
//	r.AddExtractor(mediatype.ExtractorFunc("events",
//	    mediatype.AllOf(
//	        mediatype.HasFields("contentType", "payload"),
//	        mediatype.FieldEquals("source", "pix"),
//	    ),
//	    extractFunc))
//
// FieldExtractor covers the common case of a queue envelope with fixed
// label and payload fields:
//
//	r.AddExtractor(mediatype.FieldExtractor("queue", "contentType", "payload"))
//
// Extractors are tried in registration order, with the last successful one
// tried first on subsequent messages.
//
// # Hooks
//
// Hooks provide observability without coupling to specific logging or
// metrics systems. Use functional options to configure them:
//
//	r := mediatype.New(
//	    mediatype.WithOnExtract(func(ctx context.Context, extractor, mediaType string) context.Context {
//	        return logx.WithCtx(ctx, slog.String("extractor", extractor))
//	    }),
//	    mediatype.WithOnMatch(func(ctx context.Context, mediaType, matched string, d time.Duration) {
//	        metrics.Timing("dispatch.match", d, "matched:"+matched)
//	    }),
//	    mediatype.WithOnNoMatch(func(ctx context.Context, mediaType string) {
//	        metrics.Incr("dispatch.unroutable", "mediaType:"+mediaType)
//	    }),
//	)
//
// Available hooks:
//   - WithOnExtract: Called after extraction, enriches context
//   - WithOnNoExtractor: Called when no extractor claims a message
//   - WithOnExtractError: Called when a claiming extractor fails
//   - WithOnDispatch: Called once per dispatch, before the first lookup
//   - WithOnFallback: Called per derived candidate during the walk
//   - WithOnDecline: Called when a handler refuses a candidate
//   - WithOnMatch: Called after a handler accepts
//   - WithOnNoMatch: Called when the whole chain is exhausted
//
// Multiple hooks of the same type are called in order. Extractors can also
// implement OnExtractHook and OnExtractErrorHook for extractor-specific
// behavior; these run after the global hooks.
//
// # Validation
//
// Content and result shapes that implement Validate() error are checked
// automatically, content after projection and results before lifting:
//
//	func (p *ThumbnailRequest) Validate() error {
//	    return validation.ValidateStruct(p,
//	        validation.Field(&p.ID, validation.Required),
//	    )
//	}
//
// A validation failure declines the candidate and the fallback walk
// continues, exactly as if the handler had refused.
//
// # Declines and Errors
//
// Dispatch outcomes are boolean: content was handled or it was not.
// Individual decline causes surface only through the OnDecline hook, where
// errors.Is classifies them:
//
//   - ErrProject: content would not convert to the handler's content shape
//   - ErrValidate: converted content failed its own Validate
//   - ErrResult: the handler's result was invalid or would not convert
//
// Any other error is the handler's own refusal, unwrapped.
//
// # Performance
//
// The registry stores handlers in an open-addressed table probed with
// borrowed key views, so dispatching by a label sliced out of a wire
// message ([]byte) costs no allocation on a direct hit. A fallback walk
// allocates one scratch buffer bounded by the label's length. Hook-facing
// label strings are materialized only when hooks are installed.
//
// # Thread Safety
//
// Registry is safe for concurrent use after configuration is complete. Do
// not call AddExtractor or the Register functions after dispatching begins.
package mediatype
