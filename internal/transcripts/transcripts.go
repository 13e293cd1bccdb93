// Package transcripts orchestrates transcript retrieval: cache-aside around
// a dual-strategy fetch (authenticated caption download first, public
// timedtext scrape only when that is forbidden), plus playlist enumeration.
package transcripts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ewerx/tubescript/internal/cache"
	"github.com/ewerx/tubescript/internal/faults"
	"github.com/ewerx/tubescript/internal/ytapi"
)

// API is the authenticated Data API surface (see internal/ytapi).
type API interface {
	CaptionsList(ctx context.Context, videoID string) ([]ytapi.Caption, error)
	DownloadCaption(ctx context.Context, captionID string) (string, error)
	PlaylistItems(ctx context.Context, playlistID, pageToken string) (*ytapi.PlaylistItemsPage, error)
}

// Public is the unauthenticated fallback (see internal/tube).
type Public interface {
	LegacyTranscript(ctx context.Context, videoID string) (string, error)
}

type Service struct {
	API    API
	Public Public
	Cache  cache.Store
	TTL    time.Duration
}

func cacheKey(videoID string) string {
	return "transcript:" + videoID
}

// VideoTranscript returns the caption text for a video, cache-aside: a cache
// hit returns immediately, a miss fetches from origin and populates the cache
// only after full success. Failed fetches are never cached, so they stay
// retryable.
func (s *Service) VideoTranscript(ctx context.Context, videoID string) (string, error) {
	key := cacheKey(videoID)

	if cached, ok, err := s.Cache.Get(ctx, key); err != nil {
		return "", fmt.Errorf("reading cache for %q: %w", videoID, err)
	} else if ok {
		return cached, nil
	}

	transcript, err := s.fetchOrigin(ctx, videoID)
	if err != nil {
		return "", err
	}

	if err := s.Cache.Set(ctx, key, transcript, s.TTL); err != nil {
		log.Printf("[WARN]: caching transcript for %q failed: %v", videoID, err)
	}

	return transcript, nil
}

// fetchOrigin runs the dual strategy. Only an authorization refusal from the
// privileged path opens the public path; every other failure, including
// NotFound from an empty caption list, propagates unmodified.
func (s *Service) fetchOrigin(ctx context.Context, videoID string) (string, error) {
	transcript, err := s.privileged(ctx, videoID)
	if err == nil {
		return transcript, nil
	}

	if !errors.Is(err, faults.ErrAuth) {
		return "", err
	}

	log.Printf("[WARN]: private caption download for %q not authorized, trying public track: %v", videoID, err)
	return s.Public.LegacyTranscript(ctx, videoID)
}

func (s *Service) privileged(ctx context.Context, videoID string) (string, error) {
	captions, err := s.API.CaptionsList(ctx, videoID)
	if err != nil {
		return "", err
	}
	if len(captions) == 0 {
		return "", fmt.Errorf("no captions found for video %q: %w", videoID, faults.ErrNotFound)
	}

	return s.API.DownloadCaption(ctx, captions[0].ID)
}

// Entry pairs a playlist member with its transcript text.
type Entry struct {
	VideoID    string `json:"videoId"`
	Transcript string `json:"transcript"`
}

// PlaylistTranscripts resolves every member of a playlist through
// VideoTranscript, sequentially to keep the outbound request rate bounded and
// cache population deterministic. Results keep first-seen order, each video
// appears once, members without a video id or without captions are skipped.
func (s *Service) PlaylistTranscripts(ctx context.Context, playlistID string) ([]Entry, error) {
	var out []Entry
	seen := map[string]bool{}
	var token string
	for {
		page, err := s.API.PlaylistItems(ctx, playlistID, token)
		if err != nil {
			return nil, fmt.Errorf("enumerating playlist %q: %w", playlistID, err)
		}

		for _, item := range page.Items {
			videoID := item.ContentDetails.VideoId
			if videoID == "" || seen[videoID] {
				continue
			}
			seen[videoID] = true

			transcript, err := s.VideoTranscript(ctx, videoID)
			if err != nil {
				if errors.Is(err, faults.ErrNotFound) {
					log.Printf("[WARN]: no transcript for playlist member %q, skipping: %v", videoID, err)
					continue
				}
				return nil, fmt.Errorf("transcript for playlist member %q: %w", videoID, err)
			}

			out = append(out, Entry{VideoID: videoID, Transcript: transcript})
		}

		if page.NextPageToken == "" {
			return out, nil
		}
		token = page.NextPageToken
	}
}
