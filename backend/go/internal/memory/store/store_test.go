package store

import (
	"Recall_1.0/backend/go/internal/embedding"
	"Recall_1.0/backend/go/internal/models"
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	goredis "github.com/go-redis/redis/v8"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	vectors, err := NewChromemIndex("")
	if err != nil {
		t.Fatalf("NewChromemIndex: %v", err)
	}
	return New(NewMemoryKeyIndex(), vectors, embedding.NewHashModel(64))
}

func TestFactIDIsStable(t *testing.T) {
	a := FactID("alice", "wife_ssn")
	if a != FactID("alice", "wife_ssn") {
		t.Fatal("FactID changed between calls")
	}
	if a == FactID("bob", "wife_ssn") {
		t.Fatal("FactID collides across owners")
	}
	if a == FactID("alice", "wifessn") {
		t.Fatal("FactID collides across keys")
	}
}

func TestNamespace(t *testing.T) {
	if got := Namespace("alice"); got != "user_alice" {
		t.Fatalf("Namespace = %q", got)
	}
}

func testKeyIndex(t *testing.T, idx KeyIndex) {
	ctx := context.Background()
	put := func(key, value string) bool {
		created, err := idx.Put(ctx, &models.Fact{Owner: "alice", StorageKey: key, BaseKey: key, Value: value})
		if err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
		return created
	}

	if !put("city", "paris") || !put("age", "30") || !put("color", "blue") {
		t.Fatal("fresh keys should report created")
	}
	if put("city", "rome") {
		t.Fatal("overwrite should not report created")
	}

	keys, err := idx.Keys(ctx, "alice")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if want := []string{"city", "age", "color"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}

	f, err := idx.Get(ctx, "alice", "city")
	if err != nil || f.Value != "rome" {
		t.Fatalf("Get(city) = %+v, %v", f, err)
	}
	if _, err := idx.Get(ctx, "bob", "city"); !errors.Is(err, ErrFactNotFound) {
		t.Fatalf("Get for other owner: %v", err)
	}

	if err := idx.Delete(ctx, "alice", "age"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := idx.Delete(ctx, "alice", "age"); !errors.Is(err, ErrFactNotFound) {
		t.Fatalf("second Delete: %v", err)
	}

	facts, err := idx.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(facts) != 2 || facts[0].StorageKey != "city" || facts[1].StorageKey != "color" {
		t.Fatalf("List = %+v", facts)
	}
}

func TestMemoryKeyIndex(t *testing.T) {
	testKeyIndex(t, NewMemoryKeyIndex())
}

func TestRedisKeyIndex(t *testing.T) {
	addr := os.Getenv("RECALL_TEST_REDIS")
	if addr == "" {
		t.Skip("RECALL_TEST_REDIS not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	defer rdb.Close()
	prefix := "recall_test_" + t.Name()
	ctx := context.Background()
	defer func() {
		keys, _ := rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
	}()
	testKeyIndex(t, NewRedisKeyIndex(rdb, prefix))
}

func TestMemoryKeyIndexReturnsCopies(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryKeyIndex()
	f := &models.Fact{Owner: "alice", StorageKey: "city", Value: "paris"}
	if _, err := idx.Put(ctx, f); err != nil {
		t.Fatal(err)
	}
	f.Value = "changed"
	got, _ := idx.Get(ctx, "alice", "city")
	if got.Value != "paris" {
		t.Fatalf("stored fact aliased caller value: %q", got.Value)
	}
}

func TestStoreUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.Upsert(ctx, &models.Fact{Owner: "alice", StorageKey: "wife_ssn", BaseKey: "ssn", Relation: "wife", Value: "123"})
	if err != nil || !created {
		t.Fatalf("Upsert = %v, %v", created, err)
	}
	if _, err := s.Upsert(ctx, &models.Fact{Owner: "alice", StorageKey: "city", BaseKey: "city", Value: "paris"}); err != nil {
		t.Fatal(err)
	}

	matches, err := s.Search(ctx, "alice", "wife_ssn", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Search returned %d matches", len(matches))
	}
	m := matches[0]
	if m.ID != FactID("alice", "wife_ssn") || m.Metadata.Value != "123" || m.Metadata.Relation != "wife" || m.Metadata.User != "alice" {
		t.Fatalf("unexpected match %+v", m)
	}
	if m.Score < 0.99 {
		t.Fatalf("identical text scored %f", m.Score)
	}

	other, err := s.Search(ctx, "bob", "wife_ssn", 1)
	if err != nil {
		t.Fatalf("Search bob: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("bob sees alice's facts: %+v", other)
	}
}

func TestStoreUpsertKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Upsert(ctx, &models.Fact{Owner: "alice", StorageKey: "city", BaseKey: "city", Value: "paris"}); err != nil {
		t.Fatal(err)
	}
	first, _ := s.Get(ctx, "alice", "city")
	created, err := s.Upsert(ctx, &models.Fact{Owner: "alice", StorageKey: "city", BaseKey: "city", Value: "rome"})
	if err != nil || created {
		t.Fatalf("second Upsert = %v, %v", created, err)
	}
	second, _ := s.Get(ctx, "alice", "city")
	if !second.CreatedAt.Equal(first.CreatedAt) || second.Value != "rome" {
		t.Fatalf("first %+v second %+v", first, second)
	}

	matches, _ := s.Search(ctx, "alice", "city", 5)
	if len(matches) != 1 || matches[0].Metadata.Value != "rome" {
		t.Fatalf("vector not overwritten: %+v", matches)
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Upsert(ctx, &models.Fact{Owner: "alice", StorageKey: "city", BaseKey: "city", Value: "paris"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "alice", "city"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "alice", "city"); !errors.Is(err, ErrFactNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}
	matches, err := s.Search(ctx, "alice", "city", 1)
	if err != nil || len(matches) != 0 {
		t.Fatalf("Search after delete = %+v, %v", matches, err)
	}
	if err := s.Delete(ctx, "alice", "city"); !errors.Is(err, ErrFactNotFound) {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestMemoryGraph(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()
	_ = g.LinkRelation(ctx, "alice", "wife", "family")
	_ = g.LinkRelation(ctx, "alice", "boss", "work")
	_ = g.LinkRelation(ctx, "alice", "wife", "spouse")

	edges, err := g.Relations(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	want := []models.RelationEdge{
		{Owner: "alice", Relation: "boss", Category: "work"},
		{Owner: "alice", Relation: "wife", Category: "spouse"},
	}
	if !reflect.DeepEqual(edges, want) {
		t.Fatalf("Relations = %+v", edges)
	}
}
