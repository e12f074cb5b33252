package cache

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/emircancapkan/karma-case/internal/api"
	"github.com/emircancapkan/karma-case/internal/models"
)

type stubImageAPI struct {
	listBody   []byte
	listErr    error
	uploadBody []byte
	uploadErr  error
	listCalls  int
}

func (s *stubImageAPI) List(ctx context.Context, filters api.ImageFilters) ([]byte, error) {
	s.listCalls++
	return s.listBody, s.listErr
}

func (s *stubImageAPI) Upload(ctx context.Context, req api.UploadRequest) ([]byte, error) {
	return s.uploadBody, s.uploadErr
}

type countingSink struct {
	decrements int
}

func (s *countingSink) DecrementCredits(ctx context.Context) { s.decrements++ }

func TestImageCacheFetchUnauthorizedIsEmptyNotError(t *testing.T) {
	stub := &stubImageAPI{listErr: &api.Error{Kind: api.KindAPI, Status: http.StatusUnauthorized}}
	cache := NewImageCache(stub, nil)
	cache.Set([]models.GeneratedImage{{ID: "stale"}})

	images, err := cache.Fetch(context.Background(), api.ImageFilters{})
	if err != nil {
		t.Fatalf("unauthorized fetch must not surface an error, got %v", err)
	}
	if len(images) != 0 || len(cache.Images()) != 0 {
		t.Fatalf("unauthorized fetch must empty the collection, got %d cached", len(cache.Images()))
	}
	if cache.Err() != "" {
		t.Fatalf("unauthorized fetch must not set Err, got %q", cache.Err())
	}
}

func TestImageCacheFetchFailureKeepsPreviousCollection(t *testing.T) {
	stub := &stubImageAPI{listErr: &api.Error{Kind: api.KindNetwork, Err: fmt.Errorf("refused")}}
	cache := NewImageCache(stub, nil)
	cache.Set([]models.GeneratedImage{{ID: "img-1"}})

	if _, err := cache.Fetch(context.Background(), api.ImageFilters{}); err == nil {
		t.Fatal("expected fetch error")
	}
	if got := cache.Images(); len(got) != 1 || got[0].ID != "img-1" {
		t.Fatalf("failed fetch must keep previous collection, got %+v", got)
	}
	if cache.Err() != api.MsgNetwork {
		t.Fatalf("expected network message, got %q", cache.Err())
	}
}

func TestImageCacheFetchReplacesCollection(t *testing.T) {
	stub := &stubImageAPI{listBody: []byte(`{"data":[{"_id":"img-2","url":"https://cdn/2.png","user":"u1"}]}`)}
	cache := NewImageCache(stub, nil)
	cache.Set([]models.GeneratedImage{{ID: "img-1"}})

	images, err := cache.Fetch(context.Background(), api.ImageFilters{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(images) != 1 || images[0].ID != "img-2" {
		t.Fatalf("unexpected images: %+v", images)
	}
	if cache.Err() != "" {
		t.Fatalf("successful fetch must clear Err, got %q", cache.Err())
	}
}

func TestImageCacheGeneratePrependsAndDecrementsOnce(t *testing.T) {
	created := `{"success":true,"data":{"_id":"img-new","url":"https://cdn/new.png","user":"u1"}}`
	listed := `{"data":[{"_id":"img-new","url":"https://cdn/new.png","user":"u1"},{"_id":"img-old","url":"https://cdn/old.png","user":"u1"}]}`
	stub := &stubImageAPI{uploadBody: []byte(created), listBody: []byte(listed)}
	sink := &countingSink{}
	cache := NewImageCache(stub, sink)
	cache.Set([]models.GeneratedImage{{ID: "img-old"}})

	image, err := cache.Generate(context.Background(), api.UploadRequest{Prompt: "a fox"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if image.ID != "img-new" {
		t.Fatalf("unexpected created image: %+v", image)
	}
	if sink.decrements != 1 {
		t.Fatalf("expected exactly one credit decrement, got %d", sink.decrements)
	}
	got := cache.Images()
	if len(got) != 2 || got[0].ID != "img-new" {
		t.Fatalf("new image must lead the collection, got %+v", got)
	}
	if stub.listCalls != 1 {
		t.Fatalf("expected one reconciling refetch, got %d", stub.listCalls)
	}
}

func TestImageCacheGenerateUploadFailureChargesNothing(t *testing.T) {
	stub := &stubImageAPI{uploadErr: &api.Error{Kind: api.KindAPI, Status: http.StatusPaymentRequired, Message: "out of credits"}}
	sink := &countingSink{}
	cache := NewImageCache(stub, sink)

	if _, err := cache.Generate(context.Background(), api.UploadRequest{Prompt: "a fox"}); err == nil {
		t.Fatal("expected upload error")
	}
	if sink.decrements != 0 {
		t.Fatalf("failed upload must not decrement credits, got %d", sink.decrements)
	}
	if len(cache.Images()) != 0 {
		t.Fatalf("failed upload must not add a record, got %+v", cache.Images())
	}
	if stub.listCalls != 0 {
		t.Fatalf("failed upload must not trigger a refetch, got %d", stub.listCalls)
	}
}

func TestImageCacheGenerateUnparseableRecordStillCharges(t *testing.T) {
	listed := `{"data":[{"_id":"img-new","url":"https://cdn/new.png","user":"u1"}]}`
	stub := &stubImageAPI{uploadBody: []byte(`{"success":true}`), listBody: []byte(listed)}
	sink := &countingSink{}
	cache := NewImageCache(stub, sink)

	if _, err := cache.Generate(context.Background(), api.UploadRequest{Prompt: "a fox"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sink.decrements != 1 {
		t.Fatalf("confirmed upload must charge even when the record is unparseable, got %d", sink.decrements)
	}
	if got := cache.Images(); len(got) != 1 || got[0].ID != "img-new" {
		t.Fatalf("refetch must recover the record, got %+v", got)
	}
}
