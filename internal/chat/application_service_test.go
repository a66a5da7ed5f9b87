package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func newAppService(t *testing.T) (*ApplicationService, *Repo, *fakeCache, *fakeCounters) {
	t.Helper()
	db := openTestDB(t)
	repo := NewRepo(db)
	cache := newFakeCache()
	counters := newFakeCounters()
	return NewApplicationService(repo, cache, counters), repo, cache, counters
}

func TestApplicationCreate_AssignsToken(t *testing.T) {
	svc, repo, _, _ := newAppService(t)

	summary, err := svc.Create(context.Background(), "support desk")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if summary.Token == "" {
		t.Fatalf("expected a token to be assigned")
	}
	if summary.ChatsCount != 0 {
		t.Fatalf("expected chats_count 0, got %d", summary.ChatsCount)
	}

	app, err := repo.FindApplicationByToken(context.Background(), summary.Token)
	if err != nil {
		t.Fatalf("find by token: %v", err)
	}
	if app.Name != "support desk" {
		t.Fatalf("unexpected name: %q", app.Name)
	}
}

func TestApplicationCreate_TokensAreUnique(t *testing.T) {
	svc, _, _, _ := newAppService(t)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		summary, err := svc.Create(context.Background(), fmt.Sprintf("app %d", i))
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[summary.Token] {
			t.Fatalf("token %q issued twice", summary.Token)
		}
		seen[summary.Token] = true
	}
}

func TestApplicationCreate_RejectsBadName(t *testing.T) {
	svc, _, _, _ := newAppService(t)

	for _, name := range []string{"", "ab", string(make([]byte, 51))} {
		_, err := svc.Create(context.Background(), name)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("name %q: expected ValidationError, got %v", name, err)
		}
	}
}

func TestApplicationGetSummary_UnknownToken(t *testing.T) {
	svc, _, _, _ := newAppService(t)

	_, err := svc.GetSummary(context.Background(), "no-such-token")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplicationGetSummary_ServedFromCache(t *testing.T) {
	svc, _, cache, _ := newAppService(t)

	created, err := svc.Create(context.Background(), "cached app")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Poison the cached entry; a cache-served read must reflect it.
	key := appTokenKey(created.Token, VariantSummary)
	b, _ := json.Marshal(ApplicationSummary{Name: "stale name", Token: created.Token, ChatsCount: 7})
	cache.put(key, string(b))

	got, err := svc.GetSummary(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "stale name" || got.ChatsCount != 7 {
		t.Fatalf("expected cached copy, got %+v", got)
	}
}

func TestApplicationGetSummaryByID_ResolvesThroughRef(t *testing.T) {
	svc, repo, _, _ := newAppService(t)

	created, err := svc.Create(context.Background(), "ref target")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	app, err := repo.FindApplicationByToken(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	got, err := svc.GetSummaryByID(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Token != created.Token {
		t.Fatalf("expected token %q, got %q", created.Token, got.Token)
	}
}

func TestApplicationGetSummary_RehydratesAndHealsCount(t *testing.T) {
	svc, repo, cache, counters := newAppService(t)

	created, err := svc.Create(context.Background(), "drifted app")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	app, err := repo.FindApplicationByToken(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	// Three real chats but a stale stored aggregate and no cached counter.
	for i := 0; i < 3; i++ {
		if _, err := repo.CreateChat(context.Background(), app.ID); err != nil {
			t.Fatalf("create chat %d: %v", i, err)
		}
	}
	if err := repo.SetChatsCount(context.Background(), app.ID, 1); err != nil {
		t.Fatalf("set stale count: %v", err)
	}
	cache.Delete(context.Background(), appTokenKey(created.Token, VariantSummary))

	got, err := svc.GetSummary(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ChatsCount != 3 {
		t.Fatalf("expected recounted chats_count 3, got %d", got.ChatsCount)
	}

	healed, err := repo.FindApplicationByToken(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("refind: %v", err)
	}
	if healed.ChatsCount != 3 {
		t.Fatalf("expected stored aggregate healed to 3, got %d", healed.ChatsCount)
	}
	if n, ok, _ := counters.GetCounter(context.Background(), ChatsCountKey(created.Token)); !ok || n != 3 {
		t.Fatalf("expected counter seeded to 3, got %d (present=%v)", n, ok)
	}
}

func TestApplicationUpdate_PreservesToken(t *testing.T) {
	svc, _, _, _ := newAppService(t)

	created, err := svc.Create(context.Background(), "old name")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(context.Background(), created.Token, "new name")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Token != created.Token {
		t.Fatalf("token changed: %q -> %q", created.Token, updated.Token)
	}
	if updated.Name != "new name" {
		t.Fatalf("unexpected name: %q", updated.Name)
	}

	if _, err := svc.Update(context.Background(), "no-such-token", "x name"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplicationDelete_CascadesAndInvalidates(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	cache := newFakeCache()
	counters := newFakeCounters()
	svc := NewApplicationService(repo, cache, counters)

	created, err := svc.Create(context.Background(), "doomed app")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	app, err := repo.FindApplicationByToken(context.Background(), created.Token)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	c, err := repo.CreateChat(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if _, err := repo.CreateMessage(context.Background(), app.ID, c.ID, "hello"); err != nil {
		t.Fatalf("create message: %v", err)
	}

	cache.put(chatListKey(created.Token, PageParams{Page: 1, Limit: 10}), "{}")
	cache.put(messageListKey(created.Token, c.Number, PageParams{Page: 1, Limit: 10}, "asc"), "{}")
	cache.put(ChatsCountKey(created.Token), "1")

	if err := svc.Delete(context.Background(), created.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.FindApplicationByToken(context.Background(), created.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected application gone, got %v", err)
	}
	var chats, msgs int64
	db.Model(&Chat{}).Where("application_id = ?", app.ID).Count(&chats)
	db.Model(&Message{}).Where("application_id = ?", app.ID).Count(&msgs)
	if chats != 0 || msgs != 0 {
		t.Fatalf("expected cascade delete, got %d chats %d messages", chats, msgs)
	}

	for _, key := range []string{
		appTokenKey(created.Token, VariantSummary),
		chatListKey(created.Token, PageParams{Page: 1, Limit: 10}),
		messageListKey(created.Token, c.Number, PageParams{Page: 1, Limit: 10}, "asc"),
		ChatsCountKey(created.Token),
	} {
		if cache.has(key) {
			t.Fatalf("expected %q invalidated", key)
		}
	}

	if err := svc.Delete(context.Background(), created.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestApplicationList_Paginates(t *testing.T) {
	svc, _, _, _ := newAppService(t)

	for i := 0; i < 12; i++ {
		if _, err := svc.Create(context.Background(), fmt.Sprintf("listed %02d", i)); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	data, meta, err := svc.List(context.Background(), PageParams{Page: 2, Limit: 5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(data) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(data))
	}
	if meta.TotalItems != 12 || meta.TotalPages != 3 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if !meta.HasNext || !meta.HasPrev {
		t.Fatalf("expected middle page to have both neighbours: %+v", meta)
	}
	if data[0].Name != "listed 05" {
		t.Fatalf("unexpected first row on page 2: %q", data[0].Name)
	}
}
