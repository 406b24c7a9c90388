package service

import (
	"Recall_1.0/backend/go/internal/apperr"
	"Recall_1.0/backend/go/internal/crypto"
	"Recall_1.0/backend/go/internal/embedding"
	"Recall_1.0/backend/go/internal/memory/anomaly"
	"Recall_1.0/backend/go/internal/memory/intent"
	"Recall_1.0/backend/go/internal/memory/publisher"
	"Recall_1.0/backend/go/internal/memory/store"
	"Recall_1.0/backend/go/internal/memory/transcript"
	"Recall_1.0/backend/go/internal/models"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

type countingLLM struct {
	calls int
	reply string
	err   error
	last  *models.GenerateContentRequest
}

func (l *countingLLM) GenerateContent(_ context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	l.calls++
	l.last = req
	if l.err != nil {
		return nil, l.err
	}
	return &models.GenerateContentResponse{Content: []models.Content{models.NewTextContent(models.SpeakerModel, l.reply)}}, nil
}

type stubCategories map[string]string

func (c stubCategories) Get(rel string) string {
	if cat, ok := c[rel]; ok {
		return cat
	}
	return "unknown"
}

// fixedVectors answers every query with the same match.
type fixedVectors struct {
	match *models.VectorMatch
}

func (f *fixedVectors) Upsert(context.Context, string, []float32, models.VectorMetadata, string) error {
	return nil
}

func (f *fixedVectors) Query(context.Context, []float32, int, string) ([]models.VectorMatch, error) {
	if f.match == nil {
		return nil, nil
	}
	return []models.VectorMatch{*f.match}, nil
}

func (f *fixedVectors) Delete(context.Context, string, string) error { return nil }

type fixture struct {
	svc    *MemoryService
	llm    *countingLLM
	keys   *store.MemoryKeyIndex
	graph  *store.MemoryGraph
	events *publisher.Recorder
}

func newFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()
	vectors, err := store.NewChromemIndex("")
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		llm:    &countingLLM{reply: "I am not sure, could you tell me?"},
		keys:   store.NewMemoryKeyIndex(),
		graph:  store.NewMemoryGraph(),
		events: &publisher.Recorder{},
	}
	d := Deps{
		Store:         store.New(f.keys, vectors, embedding.NewHashModel(64)),
		Graph:         f.graph,
		Relationships: stubCategories{"wife": "family"},
		LLM:           f.llm,
		Publisher:     f.events,
		Transcript:    transcript.NewRing(10),
	}
	if mutate != nil {
		mutate(&d)
	}
	f.svc = NewMemoryService(d)
	return f
}

func (f *fixture) handle(t *testing.T, msg string) *Reply {
	t.Helper()
	r, err := f.svc.Handle(context.Background(), "alice", msg)
	if err != nil {
		t.Fatalf("Handle(%q): %v", msg, err)
	}
	return r
}

func TestHandle_MissingFields(t *testing.T) {
	f := newFixture(t, nil)
	for _, tc := range []struct{ owner, msg string }{{"", "hi"}, {"alice", "  "}} {
		_, err := f.svc.Handle(context.Background(), tc.owner, tc.msg)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Handle(%q, %q) err = %v", tc.owner, tc.msg, err)
		}
	}
}

func TestHandle_StoreSingle(t *testing.T) {
	f := newFixture(t, nil)
	r := f.handle(t, "@store my wife's ssn is 123-45")
	if r.Response != "I have stored your wife ssn: 123-45." || r.Intent != intent.Store {
		t.Fatalf("reply = %+v", r)
	}

	fact, err := f.keys.Get(context.Background(), "alice", "wife ssn")
	if err != nil {
		t.Fatal(err)
	}
	if fact.BaseKey != "ssn" || fact.Relation != "wife" || fact.Category != "family" || fact.Value != "123-45" {
		t.Fatalf("stored fact = %+v", fact)
	}
	edges, _ := f.graph.Relations(context.Background(), "alice")
	if len(edges) != 1 || edges[0].Relation != "wife" || edges[0].Category != "family" {
		t.Fatalf("graph edges = %+v", edges)
	}
	if ev := f.events.Events(); len(ev) != 1 || ev[0].Kind != models.EventFactStored || ev[0].StorageKey != "wife ssn" {
		t.Fatalf("events = %+v", ev)
	}
}

func TestHandle_StoreMultiClause(t *testing.T) {
	f := newFixture(t, nil)
	r := f.handle(t, "@store my city is Paris and my age is 30")
	if r.Response != "I have stored your city: Paris. I have stored your age: 30." {
		t.Fatalf("response = %q", r.Response)
	}
	keys, _ := f.keys.Keys(context.Background(), "alice")
	if len(keys) != 2 || keys[0] != "city" || keys[1] != "age" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestHandle_StoreMultiLineValue(t *testing.T) {
	f := newFixture(t, nil)
	r := f.handle(t, "@store address is 1 Main St\nApt 2")
	if r.Response != "I have stored your address: 1 Main St\nApt 2." {
		t.Fatalf("response = %q", r.Response)
	}
}

func TestHandle_StoreCollapsesKeySpacing(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, "@store passport   number is X123")
	if _, err := f.keys.Get(context.Background(), "alice", "passport number"); err != nil {
		t.Fatalf("fact not stored under the collapsed key: %v", err)
	}
}

func TestHandle_StoreNothingExtracted(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Handle(context.Background(), "alice", "@store hello there")
	if !errors.Is(err, apperr.ErrValidation) || apperr.Message(err) != "No valid key-value pair found" {
		t.Fatalf("err = %v", err)
	}
}

func TestHandle_StoreThenRetrieve(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, "@store wife's ssn is 123")
	r := f.handle(t, "what is my wife's ssn?")
	if r.Response != "Your wife's ssn is 123." {
		t.Fatalf("response = %q", r.Response)
	}
	if r.Score == nil || *r.Score < 0.5 {
		t.Fatalf("score = %v", r.Score)
	}
	if f.llm.calls != 0 {
		t.Fatalf("llm called %d times on a hit", f.llm.calls)
	}
}

func TestHandle_RetrieveMissCallsLLMOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, "@store city is Paris")
	r := f.handle(t, "what is my favorite color")
	if f.llm.calls != 1 {
		t.Fatalf("llm called %d times", f.llm.calls)
	}
	if r.Response != f.llm.reply || r.Score != nil {
		t.Fatalf("reply = %+v", r)
	}
	req := f.llm.last
	if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text == "" {
		t.Fatal("system instruction missing")
	}
	if len(req.Content) != 1 || req.Content[0].Parts[0].Text != "what is my favorite color" {
		t.Fatalf("llm got %+v", req.Content)
	}

	ev := f.events.Events()
	last := ev[len(ev)-1]
	if last.Kind != models.EventFallback || last.Topic != "favorite color" {
		t.Fatalf("fallback event = %+v", last)
	}
}

func TestHandle_FallbackWithoutCompletion(t *testing.T) {
	f := newFixture(t, nil)
	f.llm.reply = "   "
	if r := f.handle(t, "tell me my shoe size"); r.Response != OfferToStore {
		t.Fatalf("blank completion reply = %q", r.Response)
	}

	noLLM := newFixture(t, func(d *Deps) { d.LLM = nil })
	if r := noLLM.handle(t, "tell me my shoe size"); r.Response != OfferToStore {
		t.Fatalf("nil llm reply = %q", r.Response)
	}
}

func TestHandle_FallbackError(t *testing.T) {
	f := newFixture(t, nil)
	f.llm.err = errors.New("groq: 503")
	_, err := f.svc.Handle(context.Background(), "alice", "what is my name")
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("err = %v", err)
	}
	if apperr.HTTPStatus(err) != http.StatusInternalServerError || apperr.Details(err) != "groq: 503" {
		t.Fatalf("status %d details %q", apperr.HTTPStatus(err), apperr.Details(err))
	}
}

func TestHandle_RetrieveRejectsWeakOrForeignMatches(t *testing.T) {
	cases := map[string]models.VectorMatch{
		"weak":    {ID: "x", Score: 0.4, Metadata: models.VectorMetadata{User: "alice", Value: "blue"}},
		"foreign": {ID: "y", Score: 0.9, Metadata: models.VectorMetadata{User: "bob", Value: "blue"}},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			match := m
			f := newFixture(t, func(d *Deps) {
				d.Store = store.New(store.NewMemoryKeyIndex(), &fixedVectors{match: &match}, embedding.NewHashModel(8))
			})
			r := f.handle(t, "what is my color")
			if f.llm.calls != 1 || r.Response != f.llm.reply {
				t.Fatalf("calls %d reply %+v", f.llm.calls, r)
			}
		})
	}
}

func TestHandle_RetrieveAtThreshold(t *testing.T) {
	match := models.VectorMatch{ID: "x", Score: 0.5, Metadata: models.VectorMetadata{User: "alice", Value: "blue"}}
	f := newFixture(t, func(d *Deps) {
		d.Store = store.New(store.NewMemoryKeyIndex(), &fixedVectors{match: &match}, embedding.NewHashModel(8))
	})
	r := f.handle(t, "what is my color")
	if r.Response != "Your color is blue." || f.llm.calls != 0 {
		t.Fatalf("reply %+v, llm calls %d", r, f.llm.calls)
	}
}

func TestHandle_UpdateOverwrites(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, "@store my city is Paris")
	r := f.handle(t, "@update my city to Rome")
	if r.Response != "I updated your city." {
		t.Fatalf("response = %q", r.Response)
	}
	r = f.handle(t, "what is my city")
	if r.Response != "Your city is Rome." {
		t.Fatalf("after update = %q", r.Response)
	}
}

func TestHandle_UpdateFuzzyAndMissing(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, "@store wife's ssn is 123")
	r := f.handle(t, "@update wief's ssn to 999 and age to 40")
	if r.Response != "I updated your wife ssn, but I couldn't find your age." {
		t.Fatalf("response = %q", r.Response)
	}
	fact, _ := f.keys.Get(context.Background(), "alice", "wife ssn")
	if fact.Value != "999" {
		t.Fatalf("value = %q", fact.Value)
	}
	if _, err := f.keys.Get(context.Background(), "alice", "wief ssn"); !errors.Is(err, store.ErrFactNotFound) {
		t.Fatal("fuzzy update must not create a new key")
	}
}

func TestHandle_DeleteMissingIsNotAnError(t *testing.T) {
	f := newFixture(t, nil)
	r := f.handle(t, "@delete my passport number")
	if r.Response != "I couldn't find your passport number." {
		t.Fatalf("response = %q", r.Response)
	}
}

func TestHandle_Delete(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, "@store city is Paris and age is 30")
	r := f.handle(t, "@delete city and age")
	if r.Response != "I deleted your city and age." {
		t.Fatalf("response = %q", r.Response)
	}
	keys, _ := f.keys.Keys(context.Background(), "alice")
	if len(keys) != 0 {
		t.Fatalf("keys left: %v", keys)
	}
	f.handle(t, "what is my city")
	if f.llm.calls != 1 {
		t.Fatalf("deleted fact still answered, llm calls %d", f.llm.calls)
	}
}

func TestHandle_DeleteEmptyBody(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.svc.Handle(context.Background(), "alice", "@delete"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestHandle_AnomalyFlag(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Detector = anomaly.NewMemoryDetector(1, time.Minute) })
	f.handle(t, "@store city is Paris")
	_, err := f.svc.Handle(context.Background(), "alice", "what is my city")
	if !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("err = %v", err)
	}
	if apperr.Message(err) != "Possible data scraping attempt by user alice" {
		t.Fatalf("message = %q", apperr.Message(err))
	}
	if _, err := f.svc.Handle(context.Background(), "bob", "what is my city"); err != nil {
		t.Fatalf("bob was flagged: %v", err)
	}
}

func TestHandle_SealsValues(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Sealer = crypto.NewSealer("master-secret") })
	f.handle(t, "@store pin is 4242")

	raw, _ := f.keys.Get(context.Background(), "alice", "pin")
	if !crypto.IsSealed(raw.Value) || strings.Contains(raw.Value, "4242") {
		t.Fatalf("value stored in the clear: %q", raw.Value)
	}
	if r := f.handle(t, "what is my pin"); r.Response != "Your pin is 4242." {
		t.Fatalf("response = %q", r.Response)
	}
	facts, err := f.svc.Facts(context.Background(), "alice")
	if err != nil || len(facts) != 1 || facts[0].Value != "4242" {
		t.Fatalf("Facts = %+v, %v", facts, err)
	}
}

func TestHandle_RecordsTranscript(t *testing.T) {
	f := newFixture(t, nil)
	f.handle(t, "@store city is Paris")
	f.handle(t, "what is my city")

	turns, err := f.svc.History(context.Background(), "alice", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("turns = %+v", turns)
	}
	if turns[0].Intent != string(intent.Retrieve) || turns[0].Score == nil || turns[0].Topic != "city" {
		t.Fatalf("newest turn = %+v", turns[0])
	}
	if turns[1].Intent != string(intent.Store) {
		t.Fatalf("oldest turn = %+v", turns[1])
	}
}

func TestExportNotConfigured(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.svc.Export(context.Background(), "alice"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestOutcomeSentence(t *testing.T) {
	tests := []struct {
		done, missing []string
		want          string
	}{
		{[]string{"city"}, nil, "I updated your city."},
		{nil, []string{"age"}, "I couldn't find your age."},
		{[]string{"a", "b", "c"}, []string{"d", "e"}, "I updated your a, b and c, but I couldn't find your d and e."},
	}
	for _, tt := range tests {
		if got := outcomeSentence("updated", tt.done, tt.missing); got != tt.want {
			t.Errorf("outcomeSentence(%v, %v) = %q, want %q", tt.done, tt.missing, got, tt.want)
		}
	}
}
