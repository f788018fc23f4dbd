package testsupport

import (
	"context"
	"testing"

	"libretto/internal/config"
	"libretto/internal/edition"
)

// MustOpenStore opens an edition.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *edition.Store {
	t.Helper()

	store, err := edition.Open(cfg)
	if err != nil {
		t.Fatalf("edition.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEdition registers a fresh edition for tests using the provided store.
func NewEdition(t testing.TB, store *edition.Store, artist, title string) *edition.Edition {
	t.Helper()

	ed, err := store.New(context.Background(), edition.NewParams{
		Artist:      artist,
		Title:       title,
		SourceURL:   "https://video.example/" + title,
		CaptionLang: "pt",
	})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return ed
}
