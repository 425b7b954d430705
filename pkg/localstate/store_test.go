package localstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mattsolo1/grove-ged/pkg/models"
)

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")

	s, err := Open(dataDir)
	if err != nil {
		t.Fatalf("Failed to open state store: %v", err)
	}
	defer s.Close()

	if s.DataDir() != dataDir {
		t.Errorf("Expected dataDir %s, got %s", dataDir, s.DataDir())
	}

	if _, err := os.Stat(filepath.Join(dataDir, "state.db")); os.IsNotExist(err) {
		t.Error("Expected database file to be created")
	}
}

func TestEndpointOverrides(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open state store: %v", err)
	}
	defer s.Close()

	urls, err := s.EndpointOverrides()
	if err != nil {
		t.Fatalf("Failed to read overrides: %v", err)
	}
	if len(urls) != 0 {
		t.Errorf("Expected no overrides, got %v", urls)
	}

	if err := s.SetEndpointOverrides([]string{"http://b:8000", " ", "http://a:8000"}); err != nil {
		t.Fatalf("Failed to set overrides: %v", err)
	}

	urls, err = s.EndpointOverrides()
	if err != nil {
		t.Fatalf("Failed to read overrides: %v", err)
	}
	if len(urls) != 2 || urls[0] != "http://b:8000" || urls[1] != "http://a:8000" {
		t.Errorf("Expected ordered overrides [b a], got %v", urls)
	}

	// Replacing keeps only the new list
	if err := s.SetEndpointOverrides([]string{"http://c:8000"}); err != nil {
		t.Fatalf("Failed to replace overrides: %v", err)
	}
	urls, _ = s.EndpointOverrides()
	if len(urls) != 1 || urls[0] != "http://c:8000" {
		t.Errorf("Expected [c], got %v", urls)
	}

	if err := s.ClearEndpointOverrides(); err != nil {
		t.Fatalf("Failed to clear overrides: %v", err)
	}
	urls, _ = s.EndpointOverrides()
	if len(urls) != 0 {
		t.Errorf("Expected overrides cleared, got %v", urls)
	}
}

func TestFavoritesCache(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open state store: %v", err)
	}

	favs := []models.Item{
		{ID: "d1", Name: "a.pdf", Kind: models.KindDocument, Document: &models.DocumentInfo{Size: 10, Extension: "pdf"}},
		{ID: "d2", Name: "b.txt", Kind: models.KindDocument, Document: &models.DocumentInfo{Size: 3, Extension: "txt"}},
	}
	if err := s.SaveFavorites(favs); err != nil {
		t.Fatalf("Failed to save favorites: %v", err)
	}
	s.Close()

	// Reopen to make sure the cache survives a restart
	s, err = Open(dir)
	if err != nil {
		t.Fatalf("Failed to reopen state store: %v", err)
	}
	defer s.Close()

	loaded, err := s.LoadFavorites()
	if err != nil {
		t.Fatalf("Failed to load favorites: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 favorites, got %d", len(loaded))
	}
	if loaded[0].ID != "d1" || loaded[1].ID != "d2" {
		t.Errorf("Expected order [d1 d2], got [%s %s]", loaded[0].ID, loaded[1].ID)
	}
	if loaded[0].Extension() != "pdf" {
		t.Errorf("Expected extension pdf, got %q", loaded[0].Extension())
	}
}
