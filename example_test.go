package mediatype_test

import (
	"context"
	"fmt"

	"github.com/bjaus/mediatype"
)

// ThumbnailRequest is the content shape for thumbnail render requests.
type ThumbnailRequest struct {
	ImageID string `json:"image_id"`
	Width   int    `json:"width"`
}

// Receipt reports what a handler did with the content.
type Receipt struct {
	Status string `json:"status"`
}

// ThumbnailHandler renders thumbnails for image content.
type ThumbnailHandler struct{}

func (h *ThumbnailHandler) MediaType() string {
	return "application/vnd.pix.thumbnail+json"
}

func (h *ThumbnailHandler) Handle(ctx context.Context, req ThumbnailRequest) (Receipt, error) {
	fmt.Printf("Rendering %s at %dpx\n", req.ImageID, req.Width)
	return Receipt{Status: "rendered"}, nil
}

func Example() {
	r := mediatype.New()
	mediatype.Register(r, &ThumbnailHandler{})

	content := []byte(`{"image_id": "img-42", "width": 128}`)
	res, ok := r.Dispatch(context.Background(), content, "application/vnd.pix.thumbnail+json")
	fmt.Println(ok, string(res))

	// Output:
	// Rendering img-42 at 128px
	// true {"status":"rendered"}
}

func Example_fallback() {
	// Watch the walk step down the dotted prefix
	r := mediatype.New(
		mediatype.WithOnFallback(func(ctx context.Context, mediaType, candidate string) {
			fmt.Println("trying", candidate)
		}),
	)
	mediatype.Register(r, &ThumbnailHandler{})

	// No handler for the versioned type; its ancestor takes it
	content := []byte(`{"image_id": "img-9", "width": 64}`)
	_, ok := r.Dispatch(context.Background(), content, "application/vnd.pix.thumbnail.v2+json")
	fmt.Println("handled:", ok)

	// Output:
	// trying application/vnd.pix.thumbnail+json
	// Rendering img-9 at 64px
	// handled: true
}

func Example_registerFunc() {
	r := mediatype.New()

	// Register with a function instead of a struct
	mediatype.RegisterFunc(r, "application/vnd.pix.ping+json",
		func(ctx context.Context, p struct{ Message string }) (struct{ Echo string }, error) {
			return struct{ Echo string }{Echo: "pong: " + p.Message}, nil
		})

	res, _ := r.Dispatch(context.Background(), []byte(`{"message": "hello"}`), "application/vnd.pix.ping+json")
	fmt.Println(string(res))

	// Output:
	// {"Echo":"pong: hello"}
}

func Example_consume() {
	r := mediatype.New()
	r.AddExtractor(mediatype.FieldExtractor("queue", "contentType", "payload"))
	mediatype.Register(r, &ThumbnailHandler{})

	// A raw queue message carrying labeled content
	msg := []byte(`{"contentType": "application/vnd.pix.thumbnail+json", "payload": {"image_id": "img-1", "width": 32}}`)
	_, ok := r.Consume(context.Background(), msg)
	fmt.Println("handled:", ok)

	// Output:
	// Rendering img-1 at 32px
	// handled: true
}

func Example_dispatchAs() {
	r := mediatype.New()
	mediatype.Register(r, &ThumbnailHandler{})

	content := []byte(`{"image_id": "img-3", "width": 256}`)
	receipt, ok := mediatype.DispatchAs[Receipt](context.Background(), r, content, "application/vnd.pix.thumbnail+json")
	fmt.Println(ok, receipt.Status)

	// Output:
	// Rendering img-3 at 256px
	// true rendered
}

func Example_firstWriterWins() {
	r := mediatype.New()

	render := func(ctx context.Context, req ThumbnailRequest) (Receipt, error) {
		return Receipt{Status: "rendered"}, nil
	}

	first := mediatype.RegisterFunc(r, "application/vnd.pix.thumbnail+json", render)
	second := mediatype.RegisterFunc(r, "application/vnd.pix.thumbnail+json", render)
	fmt.Println(first, second)

	// Output:
	// true false
}
