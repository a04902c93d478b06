// Package api provides a client for the earshot backend API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tlemoine/earshot/internal/episode"
)

// ErrNotFound is returned when the requested episode does not exist.
var ErrNotFound = errors.New("episode not found")

const userAgent = "earshot/1.0 (https://github.com/tlemoine/earshot)"

// Client is a backend API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. token may be empty for servers that do
// not require authentication.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type episodePayload struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	Status          string `json:"status"`
	AudioURL        string `json:"audio_url"`
	TranscriptURL   string `json:"transcript_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

type libraryPayload struct {
	Podcasts []episodePayload `json:"podcasts"`
	Count    int              `json:"count"`
}

func (p *episodePayload) toEpisode() *episode.Episode {
	return &episode.Episode{
		ID:            p.ID,
		Title:         p.Title,
		Category:      p.Category,
		Status:        p.Status,
		AudioURL:      p.AudioURL,
		TranscriptURL: p.TranscriptURL,
		Duration:      time.Duration(p.DurationSeconds) * time.Second,
	}
}

// Library fetches all episodes in the user's library.
func (c *Client) Library(ctx context.Context) ([]*episode.Episode, error) {
	req, err := c.newRequest(ctx, c.baseURL+"/podcasts/library")
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var payload libraryPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	episodes := make([]*episode.Episode, 0, len(payload.Podcasts))
	for i := range payload.Podcasts {
		episodes = append(episodes, payload.Podcasts[i].toEpisode())
	}
	return episodes, nil
}

// Episode fetches a single episode by ID.
func (c *Client) Episode(ctx context.Context, id string) (*episode.Episode, error) {
	req, err := c.newRequest(ctx, c.baseURL+"/podcasts/"+id)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var payload episodePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.toEpisode(), nil
}

// Transcript fetches the transcript text for an episode. Returns
// ErrNotFound when the episode has no transcript.
func (c *Client) Transcript(ctx context.Context, ep *episode.Episode) (string, error) {
	if ep == nil || ep.TranscriptURL == "" {
		return "", ErrNotFound
	}

	req, err := c.newRequest(ctx, ep.TranscriptURL)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(body), nil
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}
