// Package ganjoor fetches Divan-e Kabir source texts from the Ganjoor
// poetry API and reads/writes the local corpus file the pipeline
// translates from.
package ganjoor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/khorshidlab/divantran/internal"
)

const (
	// DefaultBaseURL is the public Ganjoor API.
	DefaultBaseURL = "https://api.ganjoor.net/api/ganjoor"
	// divanCategory is the URL path of Rumi's Divan-e Shams on Ganjoor.
	divanCategory = "moulavi/shams"
)

// Client fetches poems from the Ganjoor API. Requests are spaced by a
// polite delay so batch fetches do not hammer the public service.
type Client struct {
	baseURL string
	delay   time.Duration
	client  *http.Client
}

// NewClient creates a Ganjoor API client. An empty baseURL selects the
// public API; a non-positive delay defaults to half a second.
func NewClient(baseURL string, delay time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		delay:   delay,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type apiVerse struct {
	Text string `json:"text"`
}

type apiPoem struct {
	ID      int        `json:"id"`
	Title   string     `json:"title"`
	FullURL string     `json:"fullUrl"`
	Verses  []apiVerse `json:"verses"`
}

type apiCategory struct {
	Cat struct {
		Title    string `json:"title"`
		Children []struct {
			Title   string `json:"title"`
			FullURL string `json:"fullUrl"`
		} `json:"children"`
	} `json:"cat"`
	Poems []apiPoem `json:"poems"`
}

// Poem fetches a single poem by Ganjoor id.
func (c *Client) Poem(ctx context.Context, id int) (*internal.Ghazal, error) {
	var poem apiPoem
	if err := c.get(ctx, fmt.Sprintf("%s/poem/%d", c.baseURL, id), &poem); err != nil {
		return nil, err
	}
	g, err := parsePoem(&poem, "")
	if err != nil {
		return nil, fmt.Errorf("poem %d: %w", id, err)
	}
	return g, nil
}

// DivanGhazals walks the Divan-e Shams category (organized by meter on
// Ganjoor) and fetches up to limit ghazals. Partial results are returned
// alongside the error that stopped the walk.
func (c *Client) DivanGhazals(ctx context.Context, limit int) ([]internal.Ghazal, error) {
	var root apiCategory
	if err := c.get(ctx, fmt.Sprintf("%s/cat?url=%s&poems=true", c.baseURL, url.QueryEscape(divanCategory)), &root); err != nil {
		return nil, fmt.Errorf("failed to fetch divan category: %w", err)
	}

	var ghazals []internal.Ghazal
	for _, meterCat := range root.Cat.Children {
		if len(ghazals) >= limit {
			break
		}
		if err := c.sleep(ctx); err != nil {
			return ghazals, err
		}

		var meter apiCategory
		catURL := fmt.Sprintf("%s/cat?url=%s&poems=true", c.baseURL, url.QueryEscape(strings.TrimPrefix(meterCat.FullURL, "/")))
		if err := c.get(ctx, catURL, &meter); err != nil {
			return ghazals, fmt.Errorf("failed to fetch meter category %s: %w", meterCat.Title, err)
		}

		for i := range meter.Poems {
			if len(ghazals) >= limit {
				break
			}
			poem := &meter.Poems[i]
			if len(poem.Verses) == 0 {
				// Category listings may omit verse bodies.
				if err := c.sleep(ctx); err != nil {
					return ghazals, err
				}
				full, err := c.Poem(ctx, poem.ID)
				if err != nil {
					return ghazals, err
				}
				full.Meter = meterCat.Title
				ghazals = append(ghazals, *full)
				continue
			}
			g, err := parsePoem(poem, meterCat.Title)
			if err != nil {
				// Skip malformed entries rather than aborting the walk.
				continue
			}
			ghazals = append(ghazals, *g)
		}
	}
	return ghazals, nil
}

func (c *Client) get(ctx context.Context, rawURL string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "divantran/"+internal.PipelineVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ganjoor returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) sleep(ctx context.Context) error {
	select {
	case <-time.After(c.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parsePoem converts the API's flat verse list into couplets. Ganjoor
// returns hemistichs as consecutive entries; a trailing unpaired line is
// dropped.
func parsePoem(poem *apiPoem, meter string) (*internal.Ghazal, error) {
	var verses []internal.Couplet
	for i := 0; i+1 < len(poem.Verses); i += 2 {
		verses = append(verses, internal.Couplet{
			Hemistich1: poem.Verses[i].Text,
			Hemistich2: poem.Verses[i+1].Text,
		})
	}
	if len(verses) == 0 {
		return nil, fmt.Errorf("poem has no complete couplets")
	}

	g := &internal.Ghazal{
		ID:          fmt.Sprintf("F-%04d", poem.ID),
		Number:      poem.ID,
		InternalRef: poem.ID,
		Title:       poem.Title,
		Meter:       meter,
		Rhyme:       extractRhyme(verses[len(verses)-1].Hemistich2),
		Verses:      verses,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// extractRhyme approximates the rhyme from the tail of the final
// hemistich.
func extractRhyme(text string) string {
	words := strings.Fields(strings.TrimSpace(text))
	if len(words) == 0 {
		return ""
	}
	last := []rune(words[len(words)-1])
	if len(last) < 2 {
		return ""
	}
	return "-" + string(last[len(last)-2:])
}

// Corpus is the on-disk source file the pipeline reads from.
type Corpus struct {
	Source  string            `json:"source"`
	Edition string            `json:"edition"`
	Ghazals []internal.Ghazal `json:"ghazals"`
}

// LoadCorpus reads a local corpus JSON file. Every ghazal must validate;
// a corrupt corpus is a fatal configuration error.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	var c Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file %s: %w", path, err)
	}
	if len(c.Ghazals) == 0 {
		return nil, fmt.Errorf("corpus file %s contains no ghazals", path)
	}
	for i := range c.Ghazals {
		g := &c.Ghazals[i]
		if g.ID == "" && g.Number > 0 {
			g.ID = fmt.Sprintf("F-%04d", g.Number)
		}
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("corpus file %s: %w", path, err)
		}
	}
	return &c, nil
}

// SaveCorpus writes fetched ghazals to a corpus JSON file.
func SaveCorpus(path string, ghazals []internal.Ghazal) error {
	c := Corpus{
		Source:  "Divan-e Shams-e Tabrizi (Divan-e Kabir)",
		Edition: "Ganjoor.net (based on Foruzanfar edition)",
		Ghazals: ghazals,
	}
	data, err := json.MarshalIndent(&c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corpus file: %w", err)
	}
	return nil
}
