package queue

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubBlobStore struct {
	deleteErr error
	deleted   chan string
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{deleted: make(chan string, 16)}
}

func (b *stubBlobStore) Upload(_ context.Context, _, _, _ string, _ io.Reader) error {
	return nil
}

func (b *stubBlobStore) Fetch(_ context.Context, _, _ string) (io.ReadCloser, string, error) {
	return nil, "", errors.New("not implemented")
}

func (b *stubBlobStore) Delete(_ context.Context, _, objectPath string) error {
	b.deleted <- objectPath
	return b.deleteErr
}

func waitForDelete(t *testing.T, blobs *stubBlobStore) string {
	t.Helper()
	select {
	case path := <-blobs.deleted:
		return path
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a blob delete")
		return ""
	}
}

func TestCleaner_DeletesEnqueuedBlobs(t *testing.T) {
	blobs := newStubBlobStore()
	cleaner := NewCleaner(1, blobs, zerolog.Nop())
	defer cleaner.Close()

	cleaner.Enqueue("resources/1_h.pdf", "tok")

	if got := waitForDelete(t, blobs); got != "resources/1_h.pdf" {
		t.Fatalf("unexpected delete %q", got)
	}
}

func TestCleaner_DeleteFailureIsSwallowed(t *testing.T) {
	blobs := newStubBlobStore()
	blobs.deleteErr = errors.New("storage down")
	cleaner := NewCleaner(1, blobs, zerolog.Nop())
	defer cleaner.Close()

	cleaner.Enqueue("resources/1_a.pdf", "tok")
	cleaner.Enqueue("resources/1_b.pdf", "tok")

	// Both jobs run even though the first delete failed.
	if got := waitForDelete(t, blobs); got != "resources/1_a.pdf" {
		t.Fatalf("unexpected first delete %q", got)
	}
	if got := waitForDelete(t, blobs); got != "resources/1_b.pdf" {
		t.Fatalf("unexpected second delete %q", got)
	}
}

func TestCleaner_IgnoresEmptyPaths(t *testing.T) {
	blobs := newStubBlobStore()
	cleaner := NewCleaner(1, blobs, zerolog.Nop())
	defer cleaner.Close()

	cleaner.Enqueue("", "tok")

	select {
	case path := <-blobs.deleted:
		t.Fatalf("unexpected delete %q", path)
	case <-time.After(100 * time.Millisecond):
	}
}
