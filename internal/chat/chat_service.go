package chat

import (
	"context"
	"log"
)

type ChatService struct {
	repo      *Repo
	apps      *ApplicationService
	cache     ResponseCache
	counters  CounterStore
	publisher Publisher
}

func NewChatService(repo *Repo, apps *ApplicationService, cache ResponseCache, counters CounterStore, publisher Publisher) *ChatService {
	return &ChatService{repo: repo, apps: apps, cache: cache, counters: counters, publisher: publisher}
}

type pagedChats struct {
	Data []ChatView `json:"data"`
	Meta PageMeta   `json:"meta"`
}

// Create assigns the next chat number synchronously and defers the owning
// application's chats_count to the aggregation pipeline: the creation event is
// published and the counter converges when the batch aggregator commits.
func (s *ChatService) Create(ctx context.Context, token string) (*ChatView, error) {
	app, err := s.apps.GetFull(ctx, token)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.CreateChat(ctx, app.ID)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishChatCreated(ctx, token); err != nil {
		log.Printf("queue: publish chat-created for %s: %v", token, err)
	}

	cacheDeletePrefix(ctx, s.cache, chatListPrefix(token))
	cacheDelete(ctx, s.cache, appTokenKey(token, VariantSummary))

	return chatView(c), nil
}

func (s *ChatService) Get(ctx context.Context, token string, number int64) (*ChatView, error) {
	key := chatKey(token, number)
	var cached ChatView
	if cacheGet(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	app, err := s.apps.GetFull(ctx, token)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.FindChat(ctx, app.ID, number)
	if err != nil {
		return nil, err
	}
	c.MessagesCount = s.messagesCount(ctx, token, c)

	view := chatView(c)
	cacheSet(ctx, s.cache, key, view, readTTL)
	return view, nil
}

func (s *ChatService) List(ctx context.Context, token string, p PageParams) ([]ChatView, PageMeta, error) {
	p = p.Clamped()

	key := chatListKey(token, p)
	var cached pagedChats
	if cacheGet(ctx, s.cache, key, &cached) {
		return cached.Data, cached.Meta, nil
	}

	app, err := s.apps.GetFull(ctx, token)
	if err != nil {
		return nil, PageMeta{}, err
	}
	chats, total, err := s.repo.ListChats(ctx, app.ID, p)
	if err != nil {
		return nil, PageMeta{}, err
	}

	data := make([]ChatView, 0, len(chats))
	for i := range chats {
		data = append(data, *chatView(&chats[i]))
	}
	meta := buildPageMeta(p, total)

	cacheSet(ctx, s.cache, key, pagedChats{Data: data, Meta: meta}, readTTL)
	return data, meta, nil
}

// Delete removes the chat and its messages, decrements the application's
// chats_count in the store of record, and drops the cached counter so the
// next read recounts. Decrementing instead would create an absent key at a
// negative value, and rehydration never runs while the key exists.
func (s *ChatService) Delete(ctx context.Context, token string, number int64) error {
	app, err := s.apps.GetFull(ctx, token)
	if err != nil {
		return err
	}
	if _, err := s.repo.DeleteChat(ctx, app.ID, number); err != nil {
		return err
	}

	if err := s.counters.DeleteCounter(ctx, ChatsCountKey(token)); err != nil {
		log.Printf("cache: counter delete %s: %v", ChatsCountKey(token), err)
	}

	cacheDelete(ctx, s.cache,
		MessagesCountKey(token, number),
		appTokenKey(token, VariantSummary),
	)
	cacheDeletePrefix(ctx, s.cache, chatListPrefix(token))
	cacheDeletePrefix(ctx, s.cache, messageListPrefix(token, number))

	return nil
}

func (s *ChatService) messagesCount(ctx context.Context, token string, c *Chat) int64 {
	key := MessagesCountKey(token, c.Number)
	if n, ok, err := s.counters.GetCounter(ctx, key); err == nil && ok {
		return n
	} else if err != nil {
		log.Printf("cache: counter get %s: %v", key, err)
	}

	n, err := s.repo.CountMessages(ctx, c.ID)
	if err != nil {
		log.Printf("messages recount for %s/%d: %v", token, c.Number, err)
		return c.MessagesCount
	}
	if n != c.MessagesCount {
		if err := s.repo.SetMessagesCount(ctx, c.ID, n); err != nil {
			log.Printf("messages count heal for %s/%d: %v", token, c.Number, err)
		}
	}
	if err := s.counters.SetCounter(ctx, key, n); err != nil {
		log.Printf("cache: counter seed %s: %v", key, err)
	}
	return n
}
