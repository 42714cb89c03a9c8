package testsupport

import (
	"context"
	"testing"

	"tagsmith/internal/config"
	"tagsmith/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustCreateTag creates a taxonomy entry for tests.
func MustCreateTag(t testing.TB, st *store.Store, title string, category store.Category, aliasOf, parentID *int64) *store.Tag {
	t.Helper()

	tag, err := st.CreateTag(context.Background(), title, category, aliasOf, parentID)
	if err != nil {
		t.Fatalf("store.CreateTag: %v", err)
	}
	return tag
}

// MustUpsertMapping creates a vocabulary mapping for tests.
func MustUpsertMapping(t testing.TB, st *store.Store, source, label string, tagID *int64, multiplier float64) {
	t.Helper()

	if err := st.UpsertMapping(context.Background(), source, label, tagID, multiplier); err != nil {
		t.Fatalf("store.UpsertMapping: %v", err)
	}
}

// TagID returns a pointer to id, for optional alias/parent arguments.
func TagID(id int64) *int64 {
	return &id
}
