// Package youtube resolves stream identifiers through the YouTube Data API
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"vthell-api/pkg/models"
)

const (
	// DefaultBaseURL is the base URL for the YouTube Data API v3
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	// WatchURL prefixes a video id to form its canonical watch URL
	WatchURL = "https://www.youtube.com/watch?v="
)

// ErrMissingAPIKey is returned when no Data API key is configured
var ErrMissingAPIKey = errors.New("YouTube Data API key is not configured, please contact the owner")

// Client resolves video ids to job metadata
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type videoListResponse struct {
	Items []videoItem `json:"items"`
	Error *APIError   `json:"error,omitempty"`
}

type videoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title     string `json:"title"`
		ChannelID string `json:"channelId"`
	} `json:"snippet"`
	LiveStreamingDetails *struct {
		ActualStartTime    string `json:"actualStartTime"`
		ScheduledStartTime string `json:"scheduledStartTime"`
	} `json:"liveStreamingDetails"`
}

// APIError represents an error response from the API
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface for APIError
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (code: %d)", e.Message, e.Code)
	}
	return e.Message
}

// New creates a new YouTube client
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ParseID extracts the video id from identifier
func (c *Client) ParseID(identifier string) (string, error) {
	ident, err := ParseIdentifier(identifier)
	if err != nil {
		return "", err
	}
	return ident.VideoID, nil
}

// Resolve fetches the live-stream details for identifier and derives the
// job metadata from them
func (c *Client) Resolve(ctx context.Context, identifier string) (*models.ResolvedStream, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	ident, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	item, err := c.fetchVideo(ctx, ident.VideoID)
	if err != nil {
		return nil, err
	}

	if item.LiveStreamingDetails == nil {
		return nil, fmt.Errorf("video %s is not a live stream", ident.VideoID)
	}
	rawStart := item.LiveStreamingDetails.ActualStartTime
	if rawStart == "" {
		rawStart = item.LiveStreamingDetails.ScheduledStartTime
	}
	if rawStart == "" {
		return nil, fmt.Errorf("video %s has no scheduled start time", ident.VideoID)
	}

	// RFC3339 parsing accepts both the fractional and whole-second forms the API returns
	start, err := time.Parse(time.RFC3339, rawStart)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start time %q: %w", rawStart, err)
	}

	return &models.ResolvedStream{
		ID:         ident.VideoID,
		Filename:   FormatFilename(start, ident.VideoID, item.Snippet.Title),
		StartTime:  start.Unix() - models.LeadTime,
		Streamer:   item.Snippet.ChannelID,
		StreamURL:  WatchURL + ident.VideoID,
		Type:       models.PlatformYouTube,
		MemberOnly: ident.MemberOnly,
	}, nil
}

func (c *Client) fetchVideo(ctx context.Context, videoID string) (*videoItem, error) {
	params := url.Values{}
	params.Set("id", videoID)
	params.Set("key", c.apiKey)
	params.Set("part", "snippet,status,liveStreamingDetails,contentDetails")

	endpoint := fmt.Sprintf("%s/videos?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp videoListResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && apiResp.Error != nil {
			return nil, fmt.Errorf("YouTube API request failed with status %d: %w", resp.StatusCode, apiResp.Error)
		}
		return nil, fmt.Errorf("YouTube API request failed with status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if len(apiResp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}
	return &apiResp.Items[0], nil
}
