package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Application{}, &Chat{}, &Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fakeCache is an in-process ResponseCache. TTLs are ignored; eviction is not
// what these tests exercise.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	return v, ok, nil
}

func (f *fakeCache) GetRef(ctx context.Context, refKey string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	canonical, ok := f.entries[refKey]
	if !ok {
		return "", false, nil
	}
	v, ok := f.entries[canonical]
	return v, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
		f.deleted = append(f.deleted, k)
	}
	return nil
}

func (f *fakeCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.entries {
		if strings.HasPrefix(k, prefix) {
			delete(f.entries, k)
			f.deleted = append(f.deleted, k)
		}
	}
	return nil
}

func (f *fakeCache) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

func (f *fakeCache) put(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
}

// fakeCounters is an in-process CounterStore.
type fakeCounters struct {
	mu     sync.Mutex
	values map[string]int64
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{values: map[string]int64{}}
}

func (f *fakeCounters) GetCounter(ctx context.Context, key string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeCounters) SetCounter(ctx context.Context, key string, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeCounters) IncrCounterBy(ctx context.Context, key string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] += delta
	return f.values[key], nil
}

func (f *fakeCounters) DeleteCounter(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

// fakePublisher records published events in order.
type fakePublisher struct {
	mu         sync.Mutex
	chatTokens []string
	messages   []MessageEnvelope
	err        error
}

func (f *fakePublisher) PublishChatCreated(ctx context.Context, applicationToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.chatTokens = append(f.chatTokens, applicationToken)
	return nil
}

func (f *fakePublisher) PublishMessageCreated(ctx context.Context, env MessageEnvelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, env)
	return nil
}

// fakeSearch returns a canned result and records the last query.
type fakeSearch struct {
	docs     []MessageDoc
	total    int64
	query    string
	chatID   uint64
	wildcard bool
}

func (f *fakeSearch) SearchMessages(ctx context.Context, query string, chatID uint64, p PageParams, wildcard bool) ([]MessageDoc, int64, error) {
	f.query = query
	f.chatID = chatID
	f.wildcard = wildcard
	return f.docs, f.total, nil
}
