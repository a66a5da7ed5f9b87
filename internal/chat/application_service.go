package chat

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
)

type ApplicationService struct {
	repo     *Repo
	cache    ResponseCache
	counters CounterStore
}

func NewApplicationService(repo *Repo, cache ResponseCache, counters CounterStore) *ApplicationService {
	return &ApplicationService{repo: repo, cache: cache, counters: counters}
}

type pagedApplications struct {
	Data []ApplicationSummary `json:"data"`
	Meta PageMeta             `json:"meta"`
}

func (s *ApplicationService) Create(ctx context.Context, name string) (*ApplicationSummary, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	app := &Application{Name: name, Token: uuid.NewString()}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	summary := summarize(app)
	key := appTokenKey(app.Token, VariantSummary)
	cacheSet(ctx, s.cache, key, summary, createTTL)
	cacheSetRef(ctx, s.cache, appIDRefKey(app.ID, VariantSummary), key, createTTL)
	cacheDeletePrefix(ctx, s.cache, "applications:")

	return summary, nil
}

func (s *ApplicationService) List(ctx context.Context, p PageParams) ([]ApplicationSummary, PageMeta, error) {
	p = p.Clamped()

	key := appListKey(p)
	var cached pagedApplications
	if cacheGet(ctx, s.cache, key, &cached) {
		return cached.Data, cached.Meta, nil
	}

	apps, total, err := s.repo.ListApplications(ctx, p)
	if err != nil {
		return nil, PageMeta{}, err
	}

	data := make([]ApplicationSummary, 0, len(apps))
	for i := range apps {
		data = append(data, *summarize(&apps[i]))
	}
	meta := buildPageMeta(p, total)

	cacheSet(ctx, s.cache, key, pagedApplications{Data: data, Meta: meta}, readTTL)
	return data, meta, nil
}

// GetSummary returns the public response shape for a token, read through the
// response cache. The chat count goes through the counter cache with lazy
// rehydration against the true row count.
func (s *ApplicationService) GetSummary(ctx context.Context, token string) (*ApplicationSummary, error) {
	key := appTokenKey(token, VariantSummary)
	var cached ApplicationSummary
	if cacheGet(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	app, err := s.repo.FindApplicationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	app.ChatsCount = s.chatsCount(ctx, app)

	summary := summarize(app)
	cacheSet(ctx, s.cache, key, summary, readTTL)
	cacheSetRef(ctx, s.cache, appIDRefKey(app.ID, VariantSummary), key, readTTL)
	return summary, nil
}

// GetSummaryByID resolves an internal id through the reference key, so the
// canonical token-keyed entry stays the single cached copy.
func (s *ApplicationService) GetSummaryByID(ctx context.Context, id uint64) (*ApplicationSummary, error) {
	refKey := appIDRefKey(id, VariantSummary)
	if v, ok, err := s.cache.GetRef(ctx, refKey); err == nil && ok {
		var cached ApplicationSummary
		if jsonErr := json.Unmarshal([]byte(v), &cached); jsonErr == nil {
			return &cached, nil
		}
	} else if err != nil {
		log.Printf("cache: get ref %s: %v", refKey, err)
	}

	app, err := s.repo.FindApplicationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.GetSummary(ctx, app.Token)
}

// GetFull returns the raw row; used by the chat and message services for
// ownership resolution where the internal id is needed.
func (s *ApplicationService) GetFull(ctx context.Context, token string) (*Application, error) {
	key := appTokenKey(token, VariantFull)
	var cached Application
	if cacheGet(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	app, err := s.repo.FindApplicationByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, s.cache, key, app, readTTL)
	cacheSetRef(ctx, s.cache, appIDRefKey(app.ID, VariantFull), key, readTTL)
	return app, nil
}

func (s *ApplicationService) Update(ctx context.Context, token, name string) (*ApplicationSummary, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	app, err := s.repo.UpdateApplicationName(ctx, token, name)
	if err != nil {
		return nil, err
	}

	summary := summarize(app)
	key := appTokenKey(token, VariantSummary)
	cacheSet(ctx, s.cache, key, summary, readTTL)
	cacheSetRef(ctx, s.cache, appIDRefKey(app.ID, VariantSummary), key, readTTL)
	cacheDelete(ctx, s.cache, appTokenKey(token, VariantFull))
	cacheDeletePrefix(ctx, s.cache, "applications:")

	return summary, nil
}

// Delete cascades through chats and messages and drops every cache entry and
// counter derived from the subtree.
func (s *ApplicationService) Delete(ctx context.Context, token string) error {
	app, err := s.repo.DeleteApplicationByToken(ctx, token)
	if err != nil {
		return err
	}

	cacheDelete(ctx, s.cache,
		appTokenKey(token, VariantSummary),
		appTokenKey(token, VariantFull),
		appIDRefKey(app.ID, VariantSummary),
		appIDRefKey(app.ID, VariantFull),
	)
	cacheDeletePrefix(ctx, s.cache, "applications:")
	cacheDeletePrefix(ctx, s.cache, chatListPrefix(token))
	cacheDeletePrefix(ctx, s.cache, messagesPrefix(token))
	cacheDeletePrefix(ctx, s.cache, counterPrefix(token))

	return nil
}

// chatsCount serves the aggregate from the counter cache; on a miss it
// recomputes from the system of record, heals the stored aggregate, then
// seeds the cache. Falls back to the row value if the recount fails.
func (s *ApplicationService) chatsCount(ctx context.Context, app *Application) int64 {
	key := ChatsCountKey(app.Token)
	if n, ok, err := s.counters.GetCounter(ctx, key); err == nil && ok {
		return n
	} else if err != nil {
		log.Printf("cache: counter get %s: %v", key, err)
	}

	n, err := s.repo.CountChats(ctx, app.ID)
	if err != nil {
		log.Printf("chats recount for %s: %v", app.Token, err)
		return app.ChatsCount
	}
	if n != app.ChatsCount {
		if err := s.repo.SetChatsCount(ctx, app.ID, n); err != nil {
			log.Printf("chats count heal for %s: %v", app.Token, err)
		}
	}
	if err := s.counters.SetCounter(ctx, key, n); err != nil {
		log.Printf("cache: counter seed %s: %v", key, err)
	}
	return n
}
