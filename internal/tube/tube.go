// Package tube retrieves caption data from YouTube without the Data API:
// it scrapes the watch page for the embedded player response, picks a caption
// track by language, and normalizes the json3 timedtext payload into an
// ordered snippet list. It also carries the legacy unauthenticated timedtext
// path used as fallback when the authenticated caption download is forbidden.
package tube

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/ewerx/tubescript/internal/faults"
)

const (
	DefaultBase     = "https://www.youtube.com"
	DefaultLanguage = "en"
)

// Getter is the outbound session contract (see internal/session).
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, int, error)
}

type Client struct {
	Session Getter

	// Base overrides the youtube.com origin in tests.
	Base string
}

func (c *Client) base() string {
	if c.Base != "" {
		return c.Base
	}
	return DefaultBase
}

// Snippet is one normalized caption line.
type Snippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Transcript is the full structured transcript for one (video, language).
type Transcript struct {
	VideoID              string    `json:"videoId"`
	Language             string    `json:"language"`
	LanguageCode         string    `json:"languageCode"`
	IsGenerated          bool      `json:"isGenerated"`
	IsTranslatable       bool      `json:"isTranslatable"`
	TranslationLanguages []string  `json:"translationLanguages"`
	Snippets             []Snippet `json:"snippets"`
}

// More is returned, this just outlines what we actually use.
type resPlayer struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks        []resTrack
			AudioTracks          []json.RawMessage
			TranslationLanguages []struct {
				LanguageCode string
			}
		}
	}
}

type resTrack struct {
	BaseUrl string
	Name    struct {
		SimpleText string
	}
	LanguageCode string
	Kind         string
}

type resTimedText struct {
	Events []resTimedEvent `json:"events"`
}

type resTimedEvent struct {
	TStartMs    int64 `json:"tStartMs"`
	DDurationMs int64 `json:"dDurationMs"`
	Segs        []struct {
		UTF8 string `json:"utf8"`
	} `json:"segs"`
}

// Fetch retrieves the transcript for videoID in the requested language.
// Pipeline: watch page -> embedded player response -> track selection ->
// json3 timedtext -> snippets.
func (c *Client) Fetch(ctx context.Context, videoID, lang string) (*Transcript, error) {
	if lang == "" {
		lang = DefaultLanguage
	}

	body, status, err := c.Session.Get(ctx, c.base()+"/watch?v="+videoID)
	if err != nil {
		return nil, fmt.Errorf("requesting watch page for %q: %w", videoID, err)
	}
	html := string(body)

	if status == http.StatusTooManyRequests || strings.Contains(html, `class="g-recaptcha"`) {
		return nil, fmt.Errorf("watch page for %q got captcha/rate limit: %w", videoID, faults.ErrBlocked)
	}
	if strings.Contains(html, `action="https://consent.youtube.com/s"`) {
		return nil, fmt.Errorf("watch page for %q got consent form: %w", videoID, faults.ErrBlocked)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("watch page for %q responded with status %d: %w", videoID, status, faults.ErrParse)
	}

	raw, err := ExtractPlayerResponse(html)
	if err != nil {
		log.Printf("[WARN]: parsing ytInitialPlayerResponse failed for %q: %v", videoID, err)
		return nil, err
	}

	var player resPlayer
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("unmarshalling player response for %q: %v: %w", videoID, err, faults.ErrParse)
	}

	if player.Captions == nil {
		return nil, fmt.Errorf("no captions available for %q: %w", videoID, faults.ErrNotFound)
	}
	renderer := player.Captions.PlayerCaptionsTracklistRenderer
	if len(renderer.CaptionTracks) == 0 {
		return nil, fmt.Errorf("no caption tracks for %q: %w", videoID, faults.ErrNotFound)
	}

	track, err := selectTrack(renderer.CaptionTracks, lang)
	if err != nil {
		return nil, err
	}

	snippets, err := c.timedText(ctx, track.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("timedtext for %q (%s): %w", videoID, track.LanguageCode, err)
	}

	language := track.Name.SimpleText
	if language == "" {
		language = track.LanguageCode
	}

	codes := make([]string, 0, len(renderer.TranslationLanguages))
	for _, tl := range renderer.TranslationLanguages {
		codes = append(codes, tl.LanguageCode)
	}

	// Presence of the audio track list marks translatability, even when the
	// list is empty; an absent field decodes to a nil slice.
	translatable := renderer.AudioTracks != nil

	return &Transcript{
		VideoID:              videoID,
		Language:             language,
		LanguageCode:         track.LanguageCode,
		IsGenerated:          track.Kind == "asr",
		IsTranslatable:       translatable,
		TranslationLanguages: codes,
		Snippets:             snippets,
	}, nil
}

// Translate would fetch an existing track translated into another language
// (tlang on the timedtext URL). Deliberately unimplemented for now.
func (c *Client) Translate(_ context.Context, _, _, _ string) (*Transcript, error) {
	return nil, fmt.Errorf("transcript translation: %w", faults.ErrUnimplemented)
}

// selectTrack picks the caption track for the requested language.
// Exact code match wins, first occurrence on ties. When the requested code is
// the default "en" there is nothing further to fall back to, so anything
// unmatched fails with the available codes listed for the caller to retry.
func selectTrack(tracks []resTrack, lang string) (*resTrack, error) {
	for i := range tracks {
		if tracks[i].LanguageCode == lang {
			return &tracks[i], nil
		}
	}

	if lang == DefaultLanguage {
		for i := range tracks {
			if tracks[i].LanguageCode == DefaultLanguage {
				return &tracks[i], nil
			}
		}
	}

	codes := make([]string, len(tracks))
	for i, t := range tracks {
		codes[i] = t.LanguageCode
	}
	return nil, fmt.Errorf(
		"transcript not available in %q, supported: %s: %w",
		lang,
		strings.Join(codes, ", "),
		faults.ErrNotFound,
	)
}

// timedText fetches a track's payload as json3 and flattens the events.
// Event order is preserved; events without segments are skipped; absent
// millisecond fields default to 0.
func (c *Client) timedText(ctx context.Context, baseURL string) ([]Snippet, error) {
	url := baseURL
	if !strings.Contains(url, "fmt=json3") {
		if strings.Contains(url, "?") {
			url += "&fmt=json3"
		} else {
			url += "?fmt=json3"
		}
	}

	body, status, err := c.Session.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching timedtext: %w", err)
	}
	if status == http.StatusTooManyRequests {
		return nil, fmt.Errorf("timedtext rate limited: %w", faults.ErrBlocked)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("timedtext responded with status %d: %w", status, faults.ErrParse)
	}

	var tt resTimedText
	if err := json.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("unmarshalling timedtext json: %v: %w", err, faults.ErrParse)
	}

	snippets := make([]Snippet, 0, len(tt.Events))
	for _, ev := range tt.Events {
		if len(ev.Segs) == 0 {
			continue
		}

		text := strings.Builder{}
		for _, seg := range ev.Segs {
			text.WriteString(seg.UTF8)
		}

		snippets = append(snippets, Snippet{
			Text:     text.String(),
			Start:    float64(ev.TStartMs) / 1000,
			Duration: float64(ev.DDurationMs) / 1000,
		})
	}

	return snippets, nil
}
