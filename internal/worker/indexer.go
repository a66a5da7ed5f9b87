package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/suPer8Hu/chat-platform/internal/chat"
)

// BulkIndexer writes a batch of message documents into the search index.
type BulkIndexer interface {
	BulkIndex(ctx context.Context, docs []chat.MessageDoc) error
}

// Indexer buffers message documents and bulk-writes them on a flush ticker or
// when the batch fills. A failed flush keeps the batch for the next attempt;
// documents are keyed by message id, so retried writes are idempotent.
type Indexer struct {
	es BulkIndexer

	mu    sync.Mutex
	batch []chat.MessageDoc

	batchSize     int
	flushInterval time.Duration
	flushTicker   *time.Ticker

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewIndexer(es BulkIndexer, batchSize int, flushInterval time.Duration) *Indexer {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Indexer{
		es:            es,
		batch:         make([]chat.MessageDoc, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

func (w *Indexer) Start(ctx context.Context) {
	w.flushTicker = time.NewTicker(w.flushInterval)
	go func() {
		defer close(w.doneChan)
		for {
			select {
			case <-w.flushTicker.C:
				if err := w.Flush(ctx); err != nil {
					log.Printf("search: flush: %v", err)
				}
			case <-w.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Indexer) Enqueue(docs ...chat.MessageDoc) {
	w.mu.Lock()
	w.batch = append(w.batch, docs...)
	shouldFlush := len(w.batch) >= w.batchSize
	w.mu.Unlock()

	if shouldFlush {
		if err := w.Flush(context.Background()); err != nil {
			log.Printf("search: flush: %v", err)
		}
	}
}

// Flush bulk-indexes the buffered documents. On failure the documents are
// put back in front of anything enqueued meanwhile.
func (w *Indexer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.batch) == 0 {
		w.mu.Unlock()
		return nil
	}
	docs := make([]chat.MessageDoc, len(w.batch))
	copy(docs, w.batch)
	w.batch = w.batch[:0]
	w.mu.Unlock()

	if err := w.es.BulkIndex(ctx, docs); err != nil {
		w.mu.Lock()
		w.batch = append(docs, w.batch...)
		w.mu.Unlock()
		return err
	}
	return nil
}

// Stop halts the flush schedule and writes out whatever is buffered.
func (w *Indexer) Stop() {
	close(w.stopChan)
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}
	<-w.doneChan

	if err := w.Flush(context.Background()); err != nil {
		log.Printf("search: final flush: %v", err)
	}
}
