package nlp

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my Name", "name"},
		{"My wife's SSN", "wife ssn"},
		{"  favorite color  ", "favorite color"},
		{"mystery", "mystery"},
		{"my my dog", "dog"},
		{"  My   Dog's   bone's  ", "dog bone"},
		{"passport\tnumber", "passport number"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"my wife's ssn", " My  City ", "m'sy x", "bob'''ss car", "my", "my ", "the dog's bone's owner"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestPreprocessQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"What is my wife's SSN?", "wife ssn"},
		{"Tell me about the weather, please!", "tell weather please"},
		{"is it", ""},
	}
	for _, tt := range tests {
		if got := PreprocessQuery(tt.in); got != tt.want {
			t.Errorf("PreprocessQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildStorageKey(t *testing.T) {
	tests := []struct {
		key, rel, want string
	}{
		{"SSN", "Wife", "wife ssn"},
		{" city ", "", "city"},
		{"age", "  ", "age"},
	}
	for _, tt := range tests {
		if got := BuildStorageKey(tt.key, tt.rel); got != tt.want {
			t.Errorf("BuildStorageKey(%q, %q) = %q, want %q", tt.key, tt.rel, got, tt.want)
		}
	}
}

func TestExtractForStore(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Extraction
	}{
		{
			name: "simple",
			body: "@store my name is John",
			want: []Extraction{{BaseKey: "name", Value: "John"}},
		},
		{
			name: "possessive",
			body: "@store wife's ssn is 123-45",
			want: []Extraction{{BaseKey: "ssn", Value: "123-45", Relation: "wife"}},
		},
		{
			name: "two clauses",
			body: "@store my city is Paris and my age is 30",
			want: []Extraction{{BaseKey: "city", Value: "Paris"}, {BaseKey: "age", Value: "30"}},
		},
		{
			name: "update with to",
			body: "@update my city to Berlin",
			want: []Extraction{{BaseKey: "city", Value: "Berlin"}},
		},
		{
			name: "equals",
			body: "@store Pin=4242",
			want: []Extraction{{BaseKey: "pin", Value: "4242"}},
		},
		{
			name: "connector needs word boundary",
			body: "@store medical history is none",
			want: []Extraction{{BaseKey: "medical history", Value: "none"}},
		},
		{
			name: "multi-line value",
			body: "@store address is 1 Main St\nApt 2",
			want: []Extraction{{BaseKey: "address", Value: "1 Main St\nApt 2"}},
		},
		{
			name: "unparsed clause skipped",
			body: "@store hello there and my dog is Rex",
			want: []Extraction{{BaseKey: "dog", Value: "Rex"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractForStore(tt.body)
			if err != nil {
				t.Fatalf("ExtractForStore() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractForStore() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractForStore_NoExtraction(t *testing.T) {
	for _, body := range []string{"@store", "@store something", "@store name is", "@store is 5"} {
		if _, err := ExtractForStore(body); !errors.Is(err, ErrNoExtraction) {
			t.Errorf("ExtractForStore(%q) error = %v, want ErrNoExtraction", body, err)
		}
	}
}

func TestExtractForDelete(t *testing.T) {
	got, err := ExtractForDelete("@delete my age and wife's ssn")
	if err != nil {
		t.Fatalf("ExtractForDelete() error = %v", err)
	}
	want := []KeyRef{{BaseKey: "age"}, {BaseKey: "ssn", Relation: "wife"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractForDelete() = %+v, want %+v", got, want)
	}

	if _, err := ExtractForDelete("@delete   "); !errors.Is(err, ErrNoExtraction) {
		t.Errorf("Expected ErrNoExtraction for empty body, got %v", err)
	}
}

func TestExtractForRetrieve(t *testing.T) {
	tests := []struct {
		query string
		want  KeyRef
	}{
		{"what is my wife's ssn", KeyRef{BaseKey: "ssn", Relation: "wife"}},
		{"What's my city?", KeyRef{BaseKey: "city"}},
		{"tell me my age.", KeyRef{BaseKey: "age"}},
		{"do you know, my brother's birthday!", KeyRef{BaseKey: "birthday", Relation: "brother"}},
		{"what are the office hours", KeyRef{BaseKey: "office hours"}},
		{"favorite color", KeyRef{BaseKey: "favorite color"}},
		{"what?", KeyRef{BaseKey: "what"}},
		{"   ", KeyRef{}},
	}
	for _, tt := range tests {
		if got := ExtractForRetrieve(tt.query); got != tt.want {
			t.Errorf("ExtractForRetrieve(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestStoreAndRetrieveAgree(t *testing.T) {
	stored, err := ExtractForStore("@store wife's ssn is 123")
	if err != nil {
		t.Fatal(err)
	}
	storeKey := BuildStorageKey(Normalize(stored[0].BaseKey), stored[0].Relation)

	ref := ExtractForRetrieve("what is my wife's ssn")
	retrieveKey := BuildStorageKey(Normalize(ref.BaseKey), ref.Relation)

	if storeKey != "wife ssn" || retrieveKey != storeKey {
		t.Errorf("store key %q and retrieve key %q should both be %q", storeKey, retrieveKey, "wife ssn")
	}
}

func TestRetrievalRulesInIsolation(t *testing.T) {
	order := []string{RuleInterrogative, RuleCopula, RuleOwner, RulePossessive, RuleArticle}
	if len(RetrievalRules) != len(order) {
		t.Fatalf("Expected %d rules, got %d", len(order), len(RetrievalRules))
	}
	for i, tag := range order {
		if RetrievalRules[i].Tag != tag {
			t.Errorf("Rule %d tag = %s, want %s", i, RetrievalRules[i].Tag, tag)
		}
	}

	possessive, _ := Rule(RulePossessive)
	got := possessive.Apply(RetrievalState{Key: "sister's phone number"})
	if got.Relation != "sister" || got.Key != "phone number" {
		t.Errorf("possessive rule = %+v", got)
	}

	copula, _ := Rule(RuleCopula)
	if got := copula.Apply(RetrievalState{Key: "is my age"}); got.Key != "my age" {
		t.Errorf("copula rule = %+v", got)
	}
	if got := copula.Apply(RetrievalState{Key: "island name"}); got.Key != "island name" {
		t.Errorf("copula rule must need whitespace, got %+v", got)
	}

	if _, ok := Rule("missing"); ok {
		t.Error("Expected unknown tag to be absent")
	}
}
