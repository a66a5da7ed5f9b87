package chat

import (
	"context"
	"time"
)

// ResponseCache is the read-through cache for formatted responses. All
// implementations are advisory: callers treat every error as a miss.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// GetRef resolves a reference key to its canonical entry's value.
	GetRef(ctx context.Context, refKey string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// CounterStore holds approximate aggregate counts with atomic increments.
// Never authoritative; safe to discard and rebuild at any time. Deletes on
// the write path invalidate rather than adjust: decrementing an absent key
// would materialize a wrong value that a cache-miss recount can never fix.
type CounterStore interface {
	GetCounter(ctx context.Context, key string) (int64, bool, error)
	SetCounter(ctx context.Context, key string, value int64) error
	IncrCounterBy(ctx context.Context, key string, delta int64) (int64, error)
	DeleteCounter(ctx context.Context, key string) error
}

// Publisher delivers creation events to the aggregation queues. Publish is
// best-effort on the write path: failures are logged, never fatal.
type Publisher interface {
	PublishChatCreated(ctx context.Context, applicationToken string) error
	PublishMessageCreated(ctx context.Context, env MessageEnvelope) error
}

// SearchIndex is the black-box search capability over indexed messages.
type SearchIndex interface {
	SearchMessages(ctx context.Context, query string, chatID uint64, p PageParams, wildcard bool) ([]MessageDoc, int64, error)
}

// MessageEnvelope is the message_creation_queue payload. It carries enough to
// aggregate the chat's message count and to project the message into the
// search index.
type MessageEnvelope struct {
	ID               uint64    `json:"id"`
	Number           int64     `json:"number"`
	Body             string    `json:"body"`
	ChatID           uint64    `json:"chat_id"`
	ApplicationToken string    `json:"application_token"`
	ChatNumber       int64     `json:"chat_number"`
	CreatedAt        time.Time `json:"created_at"`
}

// MessageDoc is the search index document shape.
type MessageDoc struct {
	ID        uint64    `json:"id"`
	Number    int64     `json:"number"`
	Body      string    `json:"body"`
	ChatID    uint64    `json:"chatId"`
	CreatedAt time.Time `json:"createdAt"`
}
