package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func analysisResponse(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"content":     []map[string]string{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
	})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return body
}

func TestAnalyzeJournalParsesResponse(t *testing.T) {
	var gotKey string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write(analysisResponse(t, "```json\n"+`{
			"summary": "A good day.",
			"synopsis": "Short.",
			"title": "Good day",
			"content_tags": ["outdoors"],
			"tone_tags": ["happy"],
			"stat_tags": [{"stat": "Strength", "xp": 15}, {"stat": "Calm", "xp": -5}]
		}`+"\n```"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", nil)
	got, err := c.AnalyzeJournal(context.Background(), AnalyzeRequest{
		Date:           "2026-08-01",
		InitialMessage: "Went hiking.",
		Turns:          []ConversationTurn{{Role: "assistant", Content: "How far?"}, {Role: "user", Content: "10 miles."}},
		ValidStats:     []string{"Strength", "Calm"},
		ToneVocabulary: []string{"happy", "sad"},
		MaxToneTags:    2,
	})
	if err != nil {
		t.Fatalf("AnalyzeJournal: %v", err)
	}

	if gotKey != "test-key" {
		t.Fatalf("api key header=%q", gotKey)
	}
	if gotReq.Model != "test-model" {
		t.Fatalf("model=%q", gotReq.Model)
	}
	if !strings.Contains(gotReq.System, "Strength, Calm") {
		t.Fatalf("system prompt missing stats: %q", gotReq.System)
	}
	if len(gotReq.Messages) != 1 || !strings.Contains(gotReq.Messages[0].Content, "10 miles.") {
		t.Fatalf("user prompt missing conversation: %+v", gotReq.Messages)
	}

	if got.Summary != "A good day." || got.Title != "Good day" {
		t.Fatalf("parsed=%+v", got)
	}
	if len(got.StatTags) != 2 || got.StatTags[0].XP != 15 || got.StatTags[1].XP != -5 {
		t.Fatalf("stat tags=%+v", got.StatTags)
	}
}

func TestAnalyzeJournalRequiresAPIKey(t *testing.T) {
	c := NewClient("http://unused", "", "m", nil)
	if _, err := c.AnalyzeJournal(context.Background(), AnalyzeRequest{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestAnalyzeJournalRejectsBadOutput(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"not json", "I had a lovely chat instead of JSON."},
		{"missing summary", `{"synopsis": "s"}`},
		{"fractional xp", `{"summary": "ok", "stat_tags": [{"stat": "Strength", "xp": 2.5}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write(analysisResponse(t, tc.text))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "k", "m", nil)
			if _, err := c.AnalyzeJournal(context.Background(), AnalyzeRequest{}); err == nil {
				t.Fatalf("expected parse error for %s", tc.name)
			}
		})
	}
}

func TestAnalyzeJournalDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error": "bad request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m", nil)
	if _, err := c.AnalyzeJournal(context.Background(), AnalyzeRequest{}); err == nil {
		t.Fatalf("expected error on 400")
	}
	if calls != 1 {
		t.Fatalf("calls=%d, want 1 (no retry on 4xx)", calls)
	}
}
