// Command sample demonstrates the github.com/bjaus/mediatype registry with
// a realistic content pipeline: queue envelopes and notification wrappers
// carrying scans, print jobs, and thumbnail requests.
//
// Run an ingest server:
//
//	go run ./cmd/sample
//
// Or push synthetic traffic through the same registry:
//
//	go run ./cmd/sample -fabricate
//	go run ./cmd/sample -fabricate -rate 20
//
// Then poke the server:
//
//	POST http://localhost:8080/ingest    dispatch the body by its Content-Type
//	POST http://localhost:8080/consume   consume a raw transport message
//	GET  http://localhost:8080/types     list the registered media types
//	GET  http://localhost:8080/receipts  show everything handled so far
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bjaus/mediatype"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address for the ingest server")
	fabricate := flag.Bool("fabricate", false, "Generate synthetic traffic instead of serving HTTP")
	perSec := flag.Float64("rate", 5, "Messages per second: pacing in fabricate mode, ceiling in server mode")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := newRegistry()
	limiter := rate.NewLimiter(rate.Limit(*perSec), int(*perSec)+1)

	if *fabricate {
		runFabricator(ctx, reg, limiter)
		return
	}

	runServer(ctx, reg, limiter, *addr)
}

// ---------------------------------------------------------------------------
// Registry wiring
// ---------------------------------------------------------------------------

func newRegistry() *mediatype.Registry {
	reg := mediatype.New(
		mediatype.WithOnExtract(func(ctx context.Context, extractor, mediaType string) context.Context {
			slog.Debug("extracted envelope", "extractor", extractor, "mediaType", mediaType)
			return ctx
		}),
		mediatype.WithOnFallback(func(ctx context.Context, mediaType, candidate string) {
			slog.Debug("walking fallback chain", "mediaType", mediaType, "candidate", candidate)
		}),
		mediatype.WithOnMatch(func(ctx context.Context, mediaType, matched string, d time.Duration) {
			slog.Info("content handled", "mediaType", mediaType, "matched", matched, "duration", d)
		}),
		mediatype.WithOnDecline(func(ctx context.Context, mediaType, candidate string, err error) {
			slog.Warn("handler declined", "candidate", candidate, "err", err)
		}),
		mediatype.WithOnNoMatch(func(ctx context.Context, mediaType string) {
			slog.Warn("unroutable media type", "mediaType", mediaType)
		}),
		mediatype.WithOnNoExtractor(func(ctx context.Context, raw []byte) {
			slog.Warn("unrecognized message shape", "bytes", len(raw))
		}),
	)

	// Plain queue envelopes plus SNS-style notification wrappers.
	reg.AddExtractor(mediatype.FieldExtractor("queue", "contentType", "payload"))
	reg.AddExtractor(mediatype.ExtractorFunc("notification",
		mediatype.AllOf(
			mediatype.FieldEquals("Type", "Notification"),
			mediatype.HasFields("MessageAttributes.contentType", "Message"),
		),
		func(v mediatype.View) (mediatype.Envelope, error) {
			mt, ok := v.GetString("MessageAttributes.contentType")
			if !ok {
				return mediatype.Envelope{}, errors.New("contentType attribute is not a string")
			}
			msg, ok := v.GetString("Message")
			if !ok {
				return mediatype.Envelope{}, errors.New("Message is not a string")
			}
			return mediatype.Envelope{MediaType: mt, Content: []byte(msg)}, nil
		}))

	mediatype.Register(reg, &scanIntake{})

	mediatype.RegisterFunc(reg, "application/vnd.pix.print+json",
		func(ctx context.Context, job PrintJob) (Receipt, error) {
			copies := job.Copies
			if copies <= 0 {
				copies = 1
			}
			r := Receipt{
				Handler:    "print",
				DocumentID: job.DocumentID,
				Note:       fmt.Sprintf("%d copies", copies),
				HandledAt:  time.Now(),
			}
			archive.add(r)
			return r, nil
		})

	// Versioned pix types nobody claims land here via the fallback walk.
	mediatype.RegisterFunc(reg, "application/vnd.pix+json",
		func(ctx context.Context, content map[string]any) (Receipt, error) {
			r := Receipt{
				Handler:   "pix",
				Note:      fmt.Sprintf("unversioned intake of %d fields", len(content)),
				HandledAt: time.Now(),
			}
			archive.add(r)
			return r, nil
		})

	mediatype.RegisterProvider(reg, mediatype.FactoryOf(func() mediatype.Handler[ThumbnailRequest, Receipt] {
		return &thumbnailer{}
	}))

	return reg
}

// ---------------------------------------------------------------------------
// Ingest server
// ---------------------------------------------------------------------------

func runServer(ctx context.Context, reg *mediatype.Registry, limiter *rate.Limiter, addr string) {
	mux := http.NewServeMux()

	readBody := func(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return nil, false
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		return body, true
	}

	mux.HandleFunc("POST /ingest", func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}

		label := r.Header.Get("Content-Type")
		if mt, _, err := mime.ParseMediaType(label); err == nil {
			label = mt
		}

		res, ok := reg.Dispatch(r.Context(), body, label)
		if !ok {
			http.Error(w, "no handler for "+label, http.StatusUnsupportedMediaType)
			return
		}

		w.Header().Set("Content-Type", label)
		//nolint:errcheck // best-effort response write
		w.Write(res)
	})

	mux.HandleFunc("POST /consume", func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}

		res, ok := reg.Consume(r.Context(), body)
		if !ok {
			http.Error(w, "unroutable message", http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // best-effort response write
		w.Write(res)
	})

	mux.HandleFunc("GET /types", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // best-effort response write
		json.NewEncoder(w).Encode(reg.MediaTypes())
	})

	mux.HandleFunc("GET /receipts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // best-effort response write
		json.NewEncoder(w).Encode(archive.snapshot())
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}()

	slog.Info("starting ingest server", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
	}

	slog.Info("server stopped")
}

// ---------------------------------------------------------------------------
// Fabricator
// ---------------------------------------------------------------------------

// fixtures cycle through the fabricator, covering exact matches, fallback
// walks, and unroutable shapes.
var fixtures = [][]byte{
	[]byte(`{"contentType": "application/vnd.pix.scan.v1+json", "payload": {"document_id": "doc-100", "pages": 4, "data": "JVBERi0="}}`),
	[]byte(`{"contentType": "application/vnd.pix.scan.v2+json", "payload": {"document_id": "doc-101", "pages": 2}}`),
	[]byte(`{"contentType": "application/vnd.pix.thumbnail+json", "payload": {"image_id": "img-7", "width": 128}}`),
	[]byte(`{"Type": "Notification", "MessageAttributes": {"contentType": "application/vnd.pix.print+json"}, "Message": "{\"document_id\": \"doc-100\", \"copies\": 2}"}`),
	[]byte(`{"contentType": "application/x-legacy-job", "payload": {"job": 1}}`),
	[]byte(`{"unrelated": true}`),
}

func runFabricator(ctx context.Context, reg *mediatype.Registry, limiter *rate.Limiter) {
	slog.Info("fabricating traffic", "fixtures", len(fixtures))

	handled, dropped := 0, 0
	for i := 0; ; i++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		if _, ok := reg.Consume(ctx, fixtures[i%len(fixtures)]); ok {
			handled++
		} else {
			dropped++
		}
	}

	slog.Info("fabricator stopped", "handled", handled, "dropped", dropped)
}

// ---------------------------------------------------------------------------
// In-memory receipt log
// ---------------------------------------------------------------------------

var archive = &receiptLog{}

type receiptLog struct {
	mu       sync.RWMutex
	receipts []Receipt
}

func (l *receiptLog) add(r Receipt) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receipts = append(l.receipts, r)
}

func (l *receiptLog) snapshot() []Receipt {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Receipt, len(l.receipts))
	copy(out, l.receipts)
	return out
}

// ---------------------------------------------------------------------------
// Domain types
// ---------------------------------------------------------------------------

// ScanContent is a completed document scan announced on the queue.
type ScanContent struct {
	DocumentID string `json:"document_id"`
	Pages      int    `json:"pages"`
	Data       []byte `json:"data"`
}

func (c *ScanContent) Validate() error {
	if c.DocumentID == "" {
		return errors.New("document_id is required")
	}
	return nil
}

// PrintJob asks for copies of an already-filed document.
type PrintJob struct {
	DocumentID string `json:"document_id"`
	Copies     int    `json:"copies"`
}

// ThumbnailRequest asks for a rendered preview.
type ThumbnailRequest struct {
	ImageID string `json:"image_id"`
	Width   int    `json:"width"`
}

// Receipt is what every handler reports back to the caller.
type Receipt struct {
	Handler    string    `json:"handler"`
	DocumentID string    `json:"document_id,omitempty"`
	Note       string    `json:"note,omitempty"`
	HandledAt  time.Time `json:"handled_at"`
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// scanIntake files completed scans.
type scanIntake struct{}

func (h *scanIntake) MediaType() string { return "application/vnd.pix.scan.v1+json" }

func (h *scanIntake) Handle(ctx context.Context, c ScanContent) (Receipt, error) {
	r := Receipt{
		Handler:    "scan",
		DocumentID: c.DocumentID,
		Note:       fmt.Sprintf("%d pages, %d bytes", c.Pages, len(c.Data)),
		HandledAt:  time.Now(),
	}
	archive.add(r)
	return r, nil
}

// thumbnailer is constructed fresh for each dispatch by its provider.
type thumbnailer struct{}

func (h *thumbnailer) MediaType() string { return "application/vnd.pix.thumbnail+json" }

func (h *thumbnailer) Handle(ctx context.Context, req ThumbnailRequest) (Receipt, error) {
	if req.Width <= 0 {
		return Receipt{}, fmt.Errorf("width %d is not renderable", req.Width)
	}
	r := Receipt{
		Handler:   "thumbnail",
		Note:      fmt.Sprintf("%s at %dpx", req.ImageID, req.Width),
		HandledAt: time.Now(),
	}
	archive.add(r)
	return r, nil
}
