package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/suPer8Hu/chat-platform/internal/chat"
)

// QueueDrainer polls a queue until empty within a time budget, acking each
// message on read.
type QueueDrainer interface {
	Drain(ctx context.Context, queue string, budget time.Duration) ([][]byte, error)
}

// IndexSink receives drained message documents for out-of-band indexing.
type IndexSink interface {
	Enqueue(docs ...chat.MessageDoc)
}

// Aggregator converts queued creation events into authoritative counter
// updates. Each cycle drains both queues, coalesces occurrence counts per
// entity key and commits one increment per key; per-key failures are logged
// and skipped so one bad key cannot abort the rest of the batch.
//
// Consumption is at-least-once with no dedup key: a crash after drain and
// before commit loses the in-memory tally of already-acked messages, and a
// redelivered message double counts. Counter drift from either gap heals on
// the next cache-miss recount.
type Aggregator struct {
	repo     *chat.Repo
	counters chat.CounterStore
	queue    QueueDrainer
	indexer  IndexSink

	chatQueue    string
	messageQueue string
	interval     time.Duration
	budget       time.Duration

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewAggregator(repo *chat.Repo, counters chat.CounterStore, queue QueueDrainer, indexer IndexSink,
	chatQueue, messageQueue string, interval, budget time.Duration) *Aggregator {
	return &Aggregator{
		repo:         repo,
		counters:     counters,
		queue:        queue,
		indexer:      indexer,
		chatQueue:    chatQueue,
		messageQueue: messageQueue,
		interval:     interval,
		budget:       budget,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

func (a *Aggregator) Start(ctx context.Context) {
	go func() {
		defer close(a.doneChan)
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		log.Printf("aggregator started, interval=%s", a.interval)
		for {
			select {
			case <-ticker.C:
				if err := a.RunCycle(ctx); err != nil {
					log.Printf("aggregator cycle: %v", err)
				}
			case <-a.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the schedule and runs one final cycle so already-published
// events are not left in the queues across a clean shutdown.
func (a *Aggregator) Stop() {
	close(a.stopChan)
	<-a.doneChan
	if err := a.RunCycle(context.Background()); err != nil {
		log.Printf("aggregator final cycle: %v", err)
	}
}

type chatCountKey struct {
	token      string
	chatNumber int64
}

// RunCycle performs one Drain -> Aggregate -> Commit pass. A cycle with no
// queued events is a no-op.
func (a *Aggregator) RunCycle(ctx context.Context) error {
	chatCounts, err := a.drainChatEvents(ctx)
	if err != nil {
		return err
	}
	messageCounts, docs, err := a.drainMessageEvents(ctx)
	if err != nil {
		return err
	}

	for token, n := range chatCounts {
		if err := a.repo.IncrementChatsCount(ctx, token, n); err != nil {
			log.Printf("aggregator: chats_count += %d for %s: %v", n, token, err)
			continue
		}
		if _, err := a.counters.IncrCounterBy(ctx, chat.ChatsCountKey(token), n); err != nil {
			log.Printf("cache: counter increment %s: %v", chat.ChatsCountKey(token), err)
		}
	}

	for key, n := range messageCounts {
		if err := a.repo.IncrementMessagesCount(ctx, key.token, key.chatNumber, n); err != nil {
			log.Printf("aggregator: messages_count += %d for %s/%d: %v", n, key.token, key.chatNumber, err)
			continue
		}
		counterKey := chat.MessagesCountKey(key.token, key.chatNumber)
		if _, err := a.counters.IncrCounterBy(ctx, counterKey, n); err != nil {
			log.Printf("cache: counter increment %s: %v", counterKey, err)
		}
	}

	if len(docs) > 0 && a.indexer != nil {
		a.indexer.Enqueue(docs...)
	}
	return nil
}

func (a *Aggregator) drainChatEvents(ctx context.Context) (map[string]int64, error) {
	bodies, err := a.queue.Drain(ctx, a.chatQueue, a.budget)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, body := range bodies {
		var token string
		if err := json.Unmarshal(body, &token); err != nil || token == "" {
			log.Printf("aggregator: bad chat-created payload %q", body)
			continue
		}
		counts[token]++
	}
	return counts, nil
}

func (a *Aggregator) drainMessageEvents(ctx context.Context) (map[chatCountKey]int64, []chat.MessageDoc, error) {
	bodies, err := a.queue.Drain(ctx, a.messageQueue, a.budget)
	if err != nil {
		return nil, nil, err
	}

	counts := make(map[chatCountKey]int64)
	docs := make([]chat.MessageDoc, 0, len(bodies))
	for _, body := range bodies {
		var env chat.MessageEnvelope
		if err := json.Unmarshal(body, &env); err != nil || env.ApplicationToken == "" {
			log.Printf("aggregator: bad message-created payload %q", body)
			continue
		}
		counts[chatCountKey{token: env.ApplicationToken, chatNumber: env.ChatNumber}]++
		docs = append(docs, chat.MessageDoc{
			ID:        env.ID,
			Number:    env.Number,
			Body:      env.Body,
			ChatID:    env.ChatID,
			CreatedAt: env.CreatedAt,
		})
	}
	return counts, docs, nil
}
