package mediatype

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func mustView(t *testing.T, raw string) View {
	t.Helper()
	v, err := JSONInspector().Inspect([]byte(raw))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	return v
}

func TestPredicates(t *testing.T) {
	view := mustView(t, `{"kind":"scan","meta":{"source":"queue"},"payload":{}}`)

	t.Run("HasFields", func(t *testing.T) {
		if !HasFields("kind", "payload")(view) {
			t.Error("HasFields missed present fields")
		}
		if !HasFields("meta.source")(view) {
			t.Error("HasFields missed a nested field")
		}
		if HasFields("kind", "absent")(view) {
			t.Error("HasFields matched with a field missing")
		}
	})

	t.Run("FieldEquals", func(t *testing.T) {
		if !FieldEquals("kind", "scan")(view) {
			t.Error("FieldEquals missed a matching value")
		}
		if FieldEquals("kind", "print")(view) {
			t.Error("FieldEquals matched the wrong value")
		}
		if FieldEquals("payload", "scan")(view) {
			t.Error("FieldEquals matched a non-string field")
		}
		if FieldEquals("absent", "scan")(view) {
			t.Error("FieldEquals matched a missing field")
		}
	})

	t.Run("AllOf", func(t *testing.T) {
		if !AllOf(HasFields("kind"), FieldEquals("kind", "scan"))(view) {
			t.Error("AllOf failed with all predicates matching")
		}
		if AllOf(HasFields("kind"), FieldEquals("kind", "print"))(view) {
			t.Error("AllOf matched with one predicate failing")
		}
		if !AllOf()(view) {
			t.Error("empty AllOf should match")
		}
	})

	t.Run("AnyOf", func(t *testing.T) {
		if !AnyOf(FieldEquals("kind", "print"), FieldEquals("kind", "scan"))(view) {
			t.Error("AnyOf failed with one predicate matching")
		}
		if AnyOf(FieldEquals("kind", "print"), HasFields("absent"))(view) {
			t.Error("AnyOf matched with no predicate matching")
		}
		if AnyOf()(view) {
			t.Error("empty AnyOf should not match")
		}
	})

	t.Run("composes across message styles", func(t *testing.T) {
		// Queue envelopes OR notification wrappers
		p := AnyOf(
			HasFields("contentType", "payload"),
			FieldEquals("Type", "Notification"),
		)

		queueMsg := mustView(t, `{"contentType": "t", "payload": {}}`)
		noteMsg := mustView(t, `{"Type": "Notification", "Message": "{}"}`)
		otherMsg := mustView(t, `{"foo": "bar"}`)

		if !p(queueMsg) {
			t.Error("expected queue envelope match")
		}
		if !p(noteMsg) {
			t.Error("expected notification match")
		}
		if p(otherMsg) {
			t.Error("expected no match for an unrelated shape")
		}
	})
}

func TestFieldExtractor(t *testing.T) {
	x := FieldExtractor("queue", "contentType", "payload")

	if x.Name() != "queue" {
		t.Errorf("name = %q, want %q", x.Name(), "queue")
	}

	t.Run("extracts the envelope", func(t *testing.T) {
		view := mustView(t, `{"contentType":"application/vnd.pix+json","payload":{"id":"x"}}`)
		if !x.Predicate()(view) {
			t.Fatal("predicate rejected a well-formed message")
		}

		env, err := x.Extract(view)
		if err != nil {
			t.Fatalf("extract: %v", err)
		}
		if env.MediaType != "application/vnd.pix+json" {
			t.Errorf("media type = %q, want %q", env.MediaType, "application/vnd.pix+json")
		}
		if string(env.Content) != `{"id":"x"}` {
			t.Errorf("content = %q, want the embedded object", env.Content)
		}
	})

	t.Run("payload keeps its raw serialization", func(t *testing.T) {
		view := mustView(t, `{"contentType":"t","payload":{"userId": "123"}}`)
		env, err := x.Extract(view)
		if err != nil {
			t.Fatalf("extract: %v", err)
		}
		if string(env.Content) != `{"userId": "123"}` {
			t.Errorf("content = %q, want whitespace preserved", env.Content)
		}
	})

	t.Run("rejects a non-string media type", func(t *testing.T) {
		view := mustView(t, `{"contentType":42,"payload":{}}`)
		if _, err := x.Extract(view); err == nil {
			t.Error("extract accepted a numeric media type")
		}
	})

	t.Run("predicate rejects missing fields", func(t *testing.T) {
		if x.Predicate()(mustView(t, `{"contentType":"t"}`)) {
			t.Error("predicate matched without a payload")
		}
		if x.Predicate()(mustView(t, `{"payload":{}}`)) {
			t.Error("predicate matched without a content type")
		}
	})
}

type ctxKey struct{}

func TestConsume(t *testing.T) {
	t.Run("routes a transport message to its handler", func(t *testing.T) {
		r := New()
		r.AddExtractor(FieldExtractor("queue", "contentType", "payload"))
		Register(r, &scanHandler{mediaType: "application/vnd.pix+json"})

		raw := []byte(`{"contentType":"application/vnd.pix+json","payload":{"id":"x","data":"aGk="}}`)
		res, ok := r.Consume(context.Background(), raw)
		if !ok {
			t.Fatal("consume failed for a routable message")
		}

		var receipt scanReceipt
		if err := json.Unmarshal(res, &receipt); err != nil {
			t.Fatalf("bad result: %v", err)
		}
		if receipt.HandledBy != "application/vnd.pix+json" {
			t.Errorf("handledBy = %q, want the extracted media type", receipt.HandledBy)
		}
		if receipt.Count != 2 {
			t.Errorf("count = %d, want 2", receipt.Count)
		}
	})

	t.Run("extracted media types fall back like direct dispatch", func(t *testing.T) {
		r := New()
		r.AddExtractor(FieldExtractor("queue", "contentType", "payload"))
		Register(r, &scanHandler{mediaType: "application/vnd.pix+json"})

		raw := []byte(`{"contentType":"application/vnd.pix.scan.v1+json","payload":{"id":"x","data":""}}`)
		res, ok := r.Consume(context.Background(), raw)
		if !ok {
			t.Fatal("consume did not walk the fallback chain")
		}

		var receipt scanReceipt
		if err := json.Unmarshal(res, &receipt); err != nil {
			t.Fatalf("bad result: %v", err)
		}
		if receipt.HandledBy != "application/vnd.pix+json" {
			t.Errorf("handledBy = %q, want the ancestor registration", receipt.HandledBy)
		}
	})

	t.Run("rejects a message no extractor claims", func(t *testing.T) {
		var seen []byte
		r := New(WithOnNoExtractor(func(ctx context.Context, raw []byte) {
			seen = raw
		}))
		r.AddExtractor(FieldExtractor("queue", "contentType", "payload"))

		raw := []byte(`{"foo":1}`)
		if _, ok := r.Consume(context.Background(), raw); ok {
			t.Error("consume claimed an unclaimable message")
		}
		if !bytes.Equal(seen, raw) {
			t.Errorf("hook saw %q, want the raw message", seen)
		}
	})

	t.Run("rejects an unparseable message", func(t *testing.T) {
		var fired bool
		r := New(WithOnNoExtractor(func(ctx context.Context, raw []byte) {
			fired = true
		}))
		r.AddExtractor(FieldExtractor("queue", "contentType", "payload"))

		if _, ok := r.Consume(context.Background(), []byte(`not json`)); ok {
			t.Error("consume claimed an unparseable message")
		}
		if !fired {
			t.Error("no-extractor hook did not fire for invalid input")
		}
	})

	t.Run("reports extraction failure", func(t *testing.T) {
		var gotName string
		var gotErr error
		r := New(WithOnExtractError(func(ctx context.Context, extractor string, err error) {
			gotName = extractor
			gotErr = err
		}))
		r.AddExtractor(FieldExtractor("queue", "contentType", "payload"))

		// Both fields exist, so the predicate claims it, but the media
		// type is not a string.
		raw := []byte(`{"contentType":42,"payload":{}}`)
		if _, ok := r.Consume(context.Background(), raw); ok {
			t.Error("consume claimed a message that failed extraction")
		}
		if gotName != "queue" {
			t.Errorf("extractor = %q, want %q", gotName, "queue")
		}
		if gotErr == nil || !strings.Contains(gotErr.Error(), "contentType") {
			t.Errorf("error = %v, want it to name the field", gotErr)
		}
	})

	t.Run("context from OnExtract reaches the handler", func(t *testing.T) {
		var handlerSaw any
		r := New(WithOnExtract(func(ctx context.Context, extractor, mediaType string) context.Context {
			return context.WithValue(ctx, ctxKey{}, extractor)
		}))
		r.AddExtractor(FieldExtractor("queue", "contentType", "payload"))
		RegisterFunc(r, "application/vnd.pix+json",
			func(ctx context.Context, req scanRequest) (scanReceipt, error) {
				handlerSaw = ctx.Value(ctxKey{})
				return scanReceipt{}, nil
			})

		raw := []byte(`{"contentType":"application/vnd.pix+json","payload":{"id":"x","data":""}}`)
		if _, ok := r.Consume(context.Background(), raw); !ok {
			t.Fatal("consume failed")
		}
		if handlerSaw != "queue" {
			t.Errorf("handler context value = %v, want %q", handlerSaw, "queue")
		}
	})

	t.Run("tries the last successful extractor first", func(t *testing.T) {
		var probes []string
		tracked := func(name, kind string) Extractor {
			return ExtractorFunc(name,
				func(v View) bool {
					probes = append(probes, name)
					return FieldEquals("kind", kind)(v)
				},
				func(v View) (Envelope, error) {
					mt, _ := v.GetString("contentType")
					raw, _ := v.GetBytes("payload")
					return Envelope{MediaType: mt, Content: raw}, nil
				})
		}

		r := New()
		r.AddExtractor(tracked("alpha", "a"))
		r.AddExtractor(tracked("beta", "b"))
		Register(r, &scanHandler{mediaType: "application/vnd.pix+json"})

		msgA := []byte(`{"kind":"a","contentType":"application/vnd.pix+json","payload":{"id":"x","data":""}}`)
		msgB := []byte(`{"kind":"b","contentType":"application/vnd.pix+json","payload":{"id":"x","data":""}}`)

		if _, ok := r.Consume(context.Background(), msgB); !ok {
			t.Fatal("first consume failed")
		}
		if _, ok := r.Consume(context.Background(), msgB); !ok {
			t.Fatal("second consume failed")
		}
		if _, ok := r.Consume(context.Background(), msgA); !ok {
			t.Fatal("third consume failed")
		}

		// First message scans in registration order. The second goes
		// straight to beta. The third retries beta, then scans.
		want := []string{"alpha", "beta", "beta", "beta", "alpha"}
		if len(probes) != len(want) {
			t.Fatalf("probes = %v, want %v", probes, want)
		}
		for i := range want {
			if probes[i] != want[i] {
				t.Errorf("probes[%d] = %q, want %q", i, probes[i], want[i])
			}
		}
	})
}
