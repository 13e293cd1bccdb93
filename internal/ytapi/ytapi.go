// Package ytapi is the authenticated YouTube Data API v3 client: caption
// metadata listing, caption payload download (owner-only), and playlist
// member paging. Requests carry a bearer credential from the oauth2 token
// source; the token lifecycle is oauth2's problem, not ours.
package ytapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ewerx/tubescript/internal/faults"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	EndpointCaptions      = "https://www.googleapis.com/youtube/v3/captions"
	EndpointPlaylistItems = "https://www.googleapis.com/youtube/v3/playlistItems"

	// PageSize is the playlistItems page size, the API maximum.
	PageSize = 50
)

type Client struct {
	http *http.Client

	// Endpoint overrides for tests.
	CaptionsURL      string
	PlaylistItemsURL string
}

// TokenSource builds an auto-refreshing bearer credential from an OAuth
// client and a long-lived refresh token (see cmd/ytauth to obtain one).
func TokenSource(ctx context.Context, clientID, clientSecret, refreshToken string) oauth2.TokenSource {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
	}
	return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
}

func New(ctx context.Context, ts oauth2.TokenSource) *Client {
	return &Client{
		http:             oauth2.NewClient(ctx, ts),
		CaptionsURL:      EndpointCaptions,
		PlaylistItemsURL: EndpointPlaylistItems,
	}
}

// NewWithHTTP is for tests that fake the upstream.
func NewWithHTTP(h *http.Client) *Client {
	return &Client{
		http:             h,
		CaptionsURL:      EndpointCaptions,
		PlaylistItemsURL: EndpointPlaylistItems,
	}
}

type Caption struct {
	ID string
}

type resCaptionsList struct {
	Items []Caption
}

// CaptionsList returns the caption entries for a video. An authorization
// refusal surfaces as faults.ErrAuth so the caller can fall back.
func (c *Client) CaptionsList(ctx context.Context, videoID string) ([]Caption, error) {
	url := fmt.Sprintf("%s?part=id&videoId=%s", c.CaptionsURL, videoID)

	var result resCaptionsList
	if err := c.getJSON(ctx, url, &result); err != nil {
		return nil, fmt.Errorf("listing captions for %q: %w", videoID, err)
	}

	return result.Items, nil
}

// DownloadCaption downloads a caption payload in subtitle format by its
// caption track id. Only the video owner's credential is allowed to do this;
// anyone else gets faults.ErrAuth.
func (c *Client) DownloadCaption(ctx context.Context, captionID string) (string, error) {
	url := fmt.Sprintf("%s/%s?tfmt=srt", c.CaptionsURL, captionID)

	body, err := c.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("downloading caption %q: %w", captionID, err)
	}

	return string(body), nil
}

type PlaylistItemsPage struct {
	NextPageToken string
	Items         []PlaylistItem
}

type PlaylistItem struct {
	ContentDetails struct {
		VideoId string
	}
}

// PlaylistItems fetches one page of playlist members. Pass the previous
// page's NextPageToken to continue; an empty token starts from the beginning.
func (c *Client) PlaylistItems(ctx context.Context, playlistID, pageToken string) (*PlaylistItemsPage, error) {
	url := fmt.Sprintf(
		"%s?part=contentDetails&playlistId=%s&maxResults=%d",
		c.PlaylistItemsURL,
		playlistID,
		PageSize,
	)
	if pageToken != "" {
		url += "&pageToken=" + pageToken
	}

	result := PlaylistItemsPage{}
	if err := c.getJSON(ctx, url, &result); err != nil {
		return nil, fmt.Errorf("retrieving playlist %q items: %w", playlistID, err)
	}

	return &result, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch res.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusForbidden:
		return nil, fmt.Errorf("status 403: %q: %w", string(body), faults.ErrAuth)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("status 429: %w", faults.ErrBlocked)
	default:
		return nil, fmt.Errorf("unexpected status %d: %q", res.StatusCode, string(body))
	}
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshalling response: %w", err)
	}
	return nil
}
