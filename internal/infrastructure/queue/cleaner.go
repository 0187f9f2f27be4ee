// Package queue runs the fire-and-forget blob cleanup workers. Deleting an
// orphaned blob must never block or fail the record mutation that orphaned
// it, so deletions are handed to a buffered channel and processed in the
// background; failures are logged and counted, nothing more.
package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/quanlytn/resource-portal/internal/api/metrics"
	"github.com/quanlytn/resource-portal/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 64
)

type job struct {
	objectPath string
	authToken  string
}

// Cleaner implements ports.BlobCleaner on top of the blob store adapter.
type Cleaner struct {
	jobs  chan job
	blobs ports.BlobStore
	log   zerolog.Logger
}

// NewCleaner creates a Cleaner with numWorkers background workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewCleaner(numWorkers int, blobs ports.BlobStore, log zerolog.Logger) *Cleaner {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	c := &Cleaner{
		jobs:  make(chan job, channelBuffer),
		blobs: blobs,
		log:   log,
	}
	c.start(numWorkers)
	return c
}

func (c *Cleaner) start(numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go c.runWorker(i)
	}
}

// Enqueue hands a blob deletion to the workers without blocking. When the
// buffer is full the job is dropped: an orphaned blob is acceptable, a
// stalled mutation is not.
func (c *Cleaner) Enqueue(objectPath, authToken string) {
	if objectPath == "" {
		return
	}
	select {
	case c.jobs <- job{objectPath: objectPath, authToken: authToken}:
	default:
		c.log.Warn().Str("object", objectPath).Msg("cleanup queue full, dropping blob delete")
		metrics.BlobCleanupFailuresTotal.WithLabelValues("dropped").Inc()
	}
}

// Close stops accepting jobs and lets the workers drain the queue.
func (c *Cleaner) Close() {
	close(c.jobs)
}

func (c *Cleaner) runWorker(id int) {
	for j := range c.jobs {
		if err := c.blobs.Delete(context.Background(), j.authToken, j.objectPath); err != nil {
			c.log.Warn().Err(err).Str("object", j.objectPath).Int("worker_id", id).Msg("blob cleanup failed")
			metrics.BlobCleanupFailuresTotal.WithLabelValues("delete_error").Inc()
			continue
		}
		c.log.Debug().Str("object", j.objectPath).Msg("blob cleaned up")
	}
}
