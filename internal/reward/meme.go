// Package reward implements the gamification layer on top of the logging
// loop: a meme fetched after a successful log, and avatar cosmetics unlocked
// by lifetime log count.
package reward

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultMemeBaseURL = "https://meme-api.com"

// Meme is one reward image.
type Meme struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// MemeProvider fetches a reward; implementations are best-effort.
type MemeProvider interface {
	Random(ctx context.Context) (Meme, error)
}

// MemeClient fetches a random meme from the public meme API.
type MemeClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ MemeProvider = (*MemeClient)(nil)

// Random returns one meme. Errors here never fail the logging flow —
// callers log and move on.
func (c *MemeClient) Random(ctx context.Context) (Meme, error) {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultMemeBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/gimme", nil)
	if err != nil {
		return Meme{}, fmt.Errorf("reward: creating request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Meme{}, fmt.Errorf("reward: fetching meme: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Meme{}, fmt.Errorf("reward: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Meme{}, fmt.Errorf("reward: meme API returned status %d", resp.StatusCode)
	}

	var meme Meme
	if err := json.Unmarshal(body, &meme); err != nil {
		return Meme{}, fmt.Errorf("reward: decoding meme: %w", err)
	}
	if meme.URL == "" {
		return Meme{}, fmt.Errorf("reward: meme API returned no url")
	}
	return meme, nil
}
