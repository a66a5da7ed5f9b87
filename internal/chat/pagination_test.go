package chat

import "testing"

func TestPageParamsClamped(t *testing.T) {
	cases := []struct {
		name string
		in   PageParams
		want PageParams
	}{
		{"defaults", PageParams{}, PageParams{Page: 1, Limit: 10}},
		{"negative page", PageParams{Page: -3, Limit: 20}, PageParams{Page: 1, Limit: 20}},
		{"limit over cap", PageParams{Page: 2, Limit: 500}, PageParams{Page: 2, Limit: 100}},
		{"valid untouched", PageParams{Page: 4, Limit: 25}, PageParams{Page: 4, Limit: 25}},
	}
	for _, tc := range cases {
		if got := tc.in.Clamped(); got != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestBuildPageMeta(t *testing.T) {
	meta := buildPageMeta(PageParams{Page: 1, Limit: 10}, 0)
	if meta.TotalPages != 0 || meta.HasNext || meta.HasPrev {
		t.Fatalf("empty set: %+v", meta)
	}

	meta = buildPageMeta(PageParams{Page: 1, Limit: 10}, 25)
	if meta.TotalPages != 3 || !meta.HasNext || meta.HasPrev {
		t.Fatalf("first of three pages: %+v", meta)
	}

	meta = buildPageMeta(PageParams{Page: 3, Limit: 10}, 25)
	if meta.HasNext || !meta.HasPrev {
		t.Fatalf("last page: %+v", meta)
	}

	meta = buildPageMeta(PageParams{Page: 2, Limit: 5}, 10)
	if meta.TotalPages != 2 || meta.HasNext {
		t.Fatalf("exact multiple: %+v", meta)
	}
}
