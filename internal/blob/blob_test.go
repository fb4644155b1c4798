package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

type fakeStore struct {
	mu      sync.Mutex
	uploads int
	failOn  int // 1-based upload index that fails; 0 means never
}

func (f *fakeStore) Upload(_ context.Context, data []byte, _ string) (string, error) {
	f.mu.Lock()
	f.uploads++
	n := f.uploads
	f.mu.Unlock()
	if f.failOn != 0 && n == f.failOn {
		return "", errors.New("upload rejected")
	}
	return fmt.Sprintf("https://example.test/%s", data), nil
}

func TestUploadAllPreservesOrder(t *testing.T) {
	store := &fakeStore{}
	urls, err := UploadAll(context.Background(), store, [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	if err != nil {
		t.Fatalf("UploadAll: %v", err)
	}
	if len(urls) != 3 {
		t.Fatalf("expected 3 urls, got %d", len(urls))
	}
	for i, want := range []string{"a", "b", "c"} {
		if !strings.HasSuffix(urls[i], want) {
			t.Fatalf("url %d = %q, want suffix %q", i, urls[i], want)
		}
	}
}

func TestUploadAllAbortsOnPartialFailure(t *testing.T) {
	store := &fakeStore{failOn: 2}
	urls, err := UploadAll(context.Background(), store, [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	if err == nil {
		t.Fatal("expected error on partial failure")
	}
	if urls != nil {
		t.Fatalf("expected no urls on failure, got %v", urls)
	}
}

func TestUploadAllEmpty(t *testing.T) {
	urls, err := UploadAll(context.Background(), &fakeStore{}, nil)
	if err != nil || urls != nil {
		t.Fatalf("expected nil, nil for empty input, got %v, %v", urls, err)
	}
}
