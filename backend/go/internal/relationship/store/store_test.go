package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "relationships.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	if err := s.Add(ctx, "wife", "spouse"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, "brother", "sibling"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, "wife", "family"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate Add: %v", err)
	}

	if err := s.Update(ctx, "brother", "family"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.Update(ctx, "brother", "family"); err != nil {
		t.Fatalf("Update with unchanged category: %v", err)
	}
	if err := s.Update(ctx, "uncle", "family"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update missing: %v", err)
	}

	if err := s.Delete(ctx, "wife"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "wife"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete missing: %v", err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 || all[0].Relationship != "brother" || all[0].Category != "family" {
		t.Fatalf("All = %+v", all)
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "relationships.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, "boss", "work"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	all, _ := s.All(ctx)
	if len(all) != 1 || all[0].Category != "work" {
		t.Fatalf("after reopen: %+v", all)
	}
}
