package ganjoor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/khorshidlab/divantran/internal"
)

func TestPoemFetchAndPairing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/poem/2114" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    2114,
			"title": "غزل شمارهٔ ۲۱۱۴",
			"verses": []map[string]string{
				{"text": "یار مرا غار مرا عشق جگرخوار مرا"},
				{"text": "یار تویی غار تویی خواجه نگهدار مرا"},
				{"text": "نوح تویی روح تویی فاتح و مفتوح تویی"},
				{"text": "سینه مشروح تویی بر در اسرار مرا"},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Millisecond)
	g, err := c.Poem(context.Background(), 2114)
	if err != nil {
		t.Fatalf("Poem failed: %v", err)
	}

	if g.ID != "F-2114" {
		t.Errorf("id = %q, want F-2114", g.ID)
	}
	if g.InternalRef != 2114 {
		t.Errorf("internal ref = %d, want 2114", g.InternalRef)
	}
	if len(g.Verses) != 2 {
		t.Fatalf("verses = %d, want 2 couplets from 4 hemistichs", len(g.Verses))
	}
	if g.Verses[0].Hemistich2 != "یار تویی غار تویی خواجه نگهدار مرا" {
		t.Errorf("hemistich pairing wrong: %q", g.Verses[0].Hemistich2)
	}
	if g.Rhyme != "-را" {
		t.Errorf("rhyme = %q, want -را", g.Rhyme)
	}
}

func TestPoemOddVerseCountDropsTail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 7,
			"verses": []map[string]string{
				{"text": "یار مرا غار مرا"},
				{"text": "یار تویی غار تویی"},
				{"text": "بیت ناتمام"},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Millisecond)
	g, err := c.Poem(context.Background(), 7)
	if err != nil {
		t.Fatalf("Poem failed: %v", err)
	}
	if len(g.Verses) != 1 {
		t.Errorf("verses = %d, want 1 (unpaired tail dropped)", len(g.Verses))
	}
}

func TestPoemServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Millisecond)
	if _, err := c.Poem(context.Background(), 1); err == nil {
		t.Fatal("expected an error on HTTP 502")
	}
}

func TestDivanGhazalsWalksMeterCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("url") {
		case "moulavi/shams":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"cat": map[string]interface{}{
					"title": "دیوان شمس",
					"children": []map[string]string{
						{"title": "رمل مثمن", "fullUrl": "/moulavi/shams/r1"},
						{"title": "هزج مثمن", "fullUrl": "/moulavi/shams/r2"},
					},
				},
			})
		case "moulavi/shams/r1", "moulavi/shams/r2":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"poems": []map[string]interface{}{
					{
						"id": 100,
						"verses": []map[string]string{
							{"text": "مصراع یکم"},
							{"text": "مصراع دوم"},
						},
					},
					{
						"id": 101,
						"verses": []map[string]string{
							{"text": "مصراع سوم"},
							{"text": "مصراع چهارم"},
						},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Millisecond)
	ghazals, err := c.DivanGhazals(context.Background(), 3)
	if err != nil {
		t.Fatalf("DivanGhazals failed: %v", err)
	}
	if len(ghazals) != 3 {
		t.Fatalf("ghazals = %d, want limit of 3", len(ghazals))
	}
	if ghazals[0].Meter != "رمل مثمن" {
		t.Errorf("meter = %q, want the category title", ghazals[0].Meter)
	}
}

func TestDivanGhazalsCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"cat": map[string]interface{}{
				"children": []map[string]string{
					{"title": "رمل", "fullUrl": "/moulavi/shams/r1"},
				},
			},
		})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(server.URL, time.Second)
	if _, err := c.DivanGhazals(ctx, 10); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestCorpusRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	ghazals := []internal.Ghazal{
		{
			ID:     "F-0001",
			Number: 1,
			Verses: []internal.Couplet{{Hemistich1: "یار مرا", Hemistich2: "غار مرا"}},
		},
	}
	if err := SaveCorpus(path, ghazals); err != nil {
		t.Fatalf("SaveCorpus failed: %v", err)
	}

	c, err := LoadCorpus(path)
	if err != nil {
		t.Fatalf("LoadCorpus failed: %v", err)
	}
	if len(c.Ghazals) != 1 || c.Ghazals[0].ID != "F-0001" {
		t.Errorf("round trip mismatch: %+v", c.Ghazals)
	}
	if c.Source == "" {
		t.Error("corpus source attribution missing")
	}
}

func TestLoadCorpusAssignsIDsFromNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	raw := `{"ghazals":[{"number":2114,"verses":[{"hemistich1":"یار مرا","hemistich2":"غار مرا"}]}]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCorpus(path)
	if err != nil {
		t.Fatalf("LoadCorpus failed: %v", err)
	}
	if c.Ghazals[0].ID != "F-2114" {
		t.Errorf("id = %q, want F-2114", c.Ghazals[0].ID)
	}
}

func TestLoadCorpusRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		raw  string
	}{
		{"empty ghazal list", `{"ghazals":[]}`},
		{"ghazal without verses", `{"ghazals":[{"id":"F-0001","number":1,"verses":[]}]}`},
		{"malformed json", `{"ghazals":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.raw), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadCorpus(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
