package tube

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/ewerx/tubescript/internal/faults"
)

// The legacy timedtext endpoints are unauthenticated and XML-like. They are
// only used as fallback when the Data API caption download is forbidden,
// so language preference logic is deliberately absent: first listed track wins.

var (
	legacyTrackRE   = regexp.MustCompile(`<track [^>]*lang_code="([^"]+)"`)
	legacyOpenTagRE = regexp.MustCompile(`<text[^>]*>`)
)

// LegacyTranscript fetches the public caption text for videoID: list the
// available tracks, take the first language in document order, fetch it, and
// strip the markup down to plain text.
func (c *Client) LegacyTranscript(ctx context.Context, videoID string) (string, error) {
	list, err := c.legacyGet(ctx, c.base()+"/api/timedtext?type=list&v="+videoID)
	if err != nil {
		return "", fmt.Errorf("listing public caption tracks for %q: %w", videoID, err)
	}

	if !strings.Contains(list, "<track") {
		return "", fmt.Errorf("no public captions available for video %q: %w", videoID, faults.ErrNotFound)
	}

	var codes []string
	for _, m := range legacyTrackRE.FindAllStringSubmatch(list, -1) {
		codes = append(codes, m[1])
	}
	if len(codes) == 0 {
		return "", fmt.Errorf("no valid caption tracks for video %q: %w", videoID, faults.ErrNotFound)
	}
	lang := codes[0]

	xml, err := c.legacyGet(ctx, c.base()+"/api/timedtext?v="+videoID+"&lang="+lang)
	if err != nil {
		return "", fmt.Errorf("fetching public caption track %q for %q: %w", lang, videoID, err)
	}

	if !strings.Contains(xml, "<text") {
		return "", fmt.Errorf(
			"caption track found (%s), but no data for video %q: %w",
			lang,
			videoID,
			faults.ErrNotFound,
		)
	}

	plain := legacyOpenTagRE.ReplaceAllString(xml, "")
	plain = strings.ReplaceAll(plain, "</text>", "\n")
	plain = strings.ReplaceAll(plain, "&amp;", "&")

	return strings.TrimSpace(plain), nil
}

func (c *Client) legacyGet(ctx context.Context, url string) (string, error) {
	body, status, err := c.Session.Get(ctx, url)
	if err != nil {
		return "", err
	}
	if status == http.StatusTooManyRequests {
		return "", fmt.Errorf("timedtext rate limited: %w", faults.ErrBlocked)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("timedtext responded with status %d", status)
	}
	return string(body), nil
}
