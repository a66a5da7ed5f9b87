package chat

import (
	"context"
	"log"
)

type MessageService struct {
	repo      *Repo
	apps      *ApplicationService
	cache     ResponseCache
	publisher Publisher
	search    SearchIndex
}

func NewMessageService(repo *Repo, apps *ApplicationService, cache ResponseCache, publisher Publisher, search SearchIndex) *MessageService {
	return &MessageService{repo: repo, apps: apps, cache: cache, publisher: publisher, search: search}
}

type pagedMessages struct {
	Data []MessageView `json:"data"`
	Meta PageMeta      `json:"meta"`
}

// Create persists the message synchronously and publishes one envelope that
// feeds both the message-count aggregation and the search indexer. Search
// visibility and the chat's messages_count are eventually consistent.
func (s *MessageService) Create(ctx context.Context, token string, chatNumber int64, body string) (*MessageView, error) {
	if err := validateBody(body); err != nil {
		return nil, err
	}

	app, err := s.apps.GetFull(ctx, token)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.FindChat(ctx, app.ID, chatNumber)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.CreateMessage(ctx, app.ID, c.ID, body)
	if err != nil {
		return nil, err
	}

	env := MessageEnvelope{
		ID:               m.ID,
		Number:           m.Number,
		Body:             m.Body,
		ChatID:           m.ChatID,
		ApplicationToken: token,
		ChatNumber:       chatNumber,
		CreatedAt:        m.CreatedAt,
	}
	if err := s.publisher.PublishMessageCreated(ctx, env); err != nil {
		log.Printf("queue: publish message-created for %s/%d: %v", token, chatNumber, err)
	}

	cacheDeletePrefix(ctx, s.cache, messageListPrefix(token, chatNumber))
	cacheDelete(ctx, s.cache, chatKey(token, chatNumber))

	return messageView(m), nil
}

func (s *MessageService) List(ctx context.Context, token string, chatNumber int64, p PageParams, sortBy string) ([]MessageView, PageMeta, error) {
	p = p.Clamped()
	sortDesc := sortBy == "desc"
	sort := "asc"
	if sortDesc {
		sort = "desc"
	}

	key := messageListKey(token, chatNumber, p, sort)
	var cached pagedMessages
	if cacheGet(ctx, s.cache, key, &cached) {
		return cached.Data, cached.Meta, nil
	}

	app, err := s.apps.GetFull(ctx, token)
	if err != nil {
		return nil, PageMeta{}, err
	}
	c, err := s.repo.FindChat(ctx, app.ID, chatNumber)
	if err != nil {
		return nil, PageMeta{}, err
	}

	msgs, total, err := s.repo.ListMessages(ctx, c.ID, p, sortDesc)
	if err != nil {
		return nil, PageMeta{}, err
	}

	data := make([]MessageView, 0, len(msgs))
	for i := range msgs {
		data = append(data, *messageView(&msgs[i]))
	}
	meta := buildPageMeta(p, total)

	cacheSet(ctx, s.cache, key, pagedMessages{Data: data, Meta: meta}, readTTL)
	return data, meta, nil
}

// Search runs a free-text query restricted to one chat. Wildcard mode matches
// partial tokens with a *query* pattern.
func (s *MessageService) Search(ctx context.Context, token string, chatNumber int64, query string, p PageParams, wildcard bool) ([]MessageDoc, PageMeta, error) {
	p = p.Clamped()

	app, err := s.apps.GetFull(ctx, token)
	if err != nil {
		return nil, PageMeta{}, err
	}
	c, err := s.repo.FindChat(ctx, app.ID, chatNumber)
	if err != nil {
		return nil, PageMeta{}, err
	}

	docs, total, err := s.search.SearchMessages(ctx, query, c.ID, p, wildcard)
	if err != nil {
		return nil, PageMeta{}, err
	}
	return docs, buildPageMeta(p, total), nil
}
