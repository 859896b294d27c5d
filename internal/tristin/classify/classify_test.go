package classify

import (
	"strings"
	"testing"
)

// cannedKeys mirrors the default persona pack keys the classifier sees in
// production.
var cannedKeys = []string{
	"hi", "hello", "how are you", "whats up", "what's up", "thanks",
	"thank you", "bye", "good morning", "good night", "who made you",
	"joke", "lol", "ok", "time", "date", "name",
}

func TestClassify_Definition(t *testing.T) {
	c := New(cannedKeys)

	tests := []struct {
		message string
		word    string
	}{
		{"define serendipity", "serendipity"},
		{"Define Serendipity", "serendipity"},
		{"what does ephemeral mean", "ephemeral"},
		{"meaning of ubiquitous", "ubiquitous"},
		{"definition of oblique", "oblique"},
		{"what is the meaning of petrichor", "petrichor"},
		{"define the word serendipity", "serendipity"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := c.Classify(tt.message)
			if got.Kind != KindDefinition {
				t.Fatalf("Classify(%q).Kind = %q, want %q", tt.message, got.Kind, KindDefinition)
			}
			if got.Word != tt.word {
				t.Errorf("Classify(%q).Word = %q, want %q", tt.message, got.Word, tt.word)
			}
		})
	}
}

func TestClassify_DefinitionExtractionFallsThrough(t *testing.T) {
	c := New(cannedKeys)

	// The only candidates are stopwords or too short, so the definition
	// rule must not fire.
	got := c.Classify("define it")
	if got.Kind == KindDefinition {
		t.Errorf("expected fall-through for stopword-only candidate, got %+v", got)
	}
}

func TestClassify_Common(t *testing.T) {
	c := New(cannedKeys)

	tests := []struct {
		message string
		key     string
	}{
		{"hi", "hi"},
		{"  Hi  ", "hi"},
		{"hello there", "hello"},
		{"how are you today?", "how are you"},
		{"tell me a joke", "joke"},
		{"ok", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := c.Classify(tt.message)
			if got.Kind != KindCommon {
				t.Fatalf("Classify(%q).Kind = %q, want %q", tt.message, got.Kind, KindCommon)
			}
			if got.Key != tt.key {
				t.Errorf("Classify(%q).Key = %q, want %q", tt.message, got.Key, tt.key)
			}
		})
	}
}

func TestClassify_PhraseBoundedMatching(t *testing.T) {
	c := New(cannedKeys)

	// Keys must match as standalone phrases: "hi" inside "history" and
	// "ok" inside "broken" are not matches.
	for _, message := range []string{
		"tell me about history",
		"my keyboard is broken",
		"this is a historic occasion",
	} {
		if got := c.Classify(message); got.Kind == KindCommon {
			t.Errorf("Classify(%q) matched canned key %q inside unrelated text", message, got.Key)
		}
	}
}

func TestClassify_Long(t *testing.T) {
	c := New(cannedKeys)

	tests := []string{
		"write a detailed tutorial on sourdough baking",
		"write an essay about the industrial revolution",
		"explain photosynthesis in detail",
		"summarize this chapter for me",
		"how to make pasta from scratch",
		"give me a step by step plan",
		"compare rust and go for systems programming",
		"what are the pros and cons of remote work",
	}
	for _, message := range tests {
		t.Run(message, func(t *testing.T) {
			if got := c.Classify(message); got.Kind != KindLong {
				t.Errorf("Classify(%q).Kind = %q, want %q", message, got.Kind, KindLong)
			}
		})
	}
}

func TestClassify_LongByLength(t *testing.T) {
	c := New(cannedKeys)

	message := strings.Repeat("a", 1200)
	if got := c.Classify(message); got.Kind != KindLong {
		t.Errorf("1200-char message should classify as long, got %q", got.Kind)
	}

	// At the threshold, length alone does not trigger the long path.
	if got := c.Classify(strings.Repeat("a", 1000)); got.Kind == KindLong {
		t.Error("1000-char message should not classify as long by length")
	}
}

func TestClassify_Normal(t *testing.T) {
	c := New(cannedKeys)

	tests := []string{
		"what's the capital of France",
		"do you like pineapple on pizza",
		"recommend a sci-fi movie",
	}
	for _, message := range tests {
		t.Run(message, func(t *testing.T) {
			if got := c.Classify(message); got.Kind != KindNormal {
				t.Errorf("Classify(%q).Kind = %q, want %q", message, got.Kind, KindNormal)
			}
		})
	}
}

func TestClassify_PrecedenceDefinitionBeforeCanned(t *testing.T) {
	c := New(cannedKeys)

	// Contains the canned key "ok" as a standalone word, but the
	// definition intent is checked first.
	got := c.Classify("ok define serendipity")
	if got.Kind != KindDefinition {
		t.Errorf("definition intent should win over canned match, got %q", got.Kind)
	}
}
