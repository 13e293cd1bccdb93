// Package tubescript is the HTTP surface of the transcript service.
package tubescript

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/ewerx/tubescript/internal/cache"
	"github.com/ewerx/tubescript/internal/faults"
	"github.com/ewerx/tubescript/internal/format"
	"github.com/ewerx/tubescript/internal/transcripts"
	"github.com/ewerx/tubescript/internal/tube"
	"github.com/gofiber/fiber/v2"
)

var (
	videoIDRE = regexp.MustCompile(`^[\w-]{11}$`)
	langRE    = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)
)

type Server struct {
	Tube        *tube.Client
	Transcripts *transcripts.Service

	// Cache and TTL back response caching on the structured transcript
	// route. Nil Cache disables it.
	Cache cache.Store
	TTL   time.Duration
}

func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "tubescript",
	})

	app.Get("/transcript/video/:videoId", s.cached(s.videoTranscript))
	app.Get("/transcripts/video", s.rawVideoTranscript)
	app.Get("/transcripts/playlist", s.playlistTranscripts)

	return app
}

// videoTranscript serves the structured pipeline:
// GET /transcript/video/:videoId?lang=<code>&format=<json|srt|vtt>
func (s *Server) videoTranscript(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if !videoIDRE.MatchString(videoID) {
		return fiber.NewError(
			http.StatusBadRequest,
			"videoId must be an 11-character YouTube ID (letters, digits, underscore, hyphen)",
		)
	}

	lang := c.Query("lang", tube.DefaultLanguage)
	if !langRE.MatchString(lang) {
		return fiber.NewError(
			http.StatusBadRequest,
			"lang must be a two-letter code or two-letter with region (e.g., en or en-US)",
		)
	}

	f := c.Query("format", format.JSON)
	if !format.Valid(f) {
		return fiber.NewError(http.StatusBadRequest, "format must be one of: json, srt, vtt")
	}

	transcript, err := s.Tube.Fetch(c.Context(), videoID, lang)
	if err != nil {
		return httpError("fetching transcript", videoID, err)
	}

	switch f {
	case format.SRT:
		c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
		return c.SendString(format.ToSRT(transcript.Snippets))
	case format.VTT:
		c.Set(fiber.HeaderContentType, "text/vtt; charset=utf-8")
		return c.SendString(format.ToVTT(transcript.Snippets))
	default:
		return c.JSON(transcript)
	}
}

// rawVideoTranscript serves the dual-strategy text form:
// GET /transcripts/video?id=<videoId>
func (s *Server) rawVideoTranscript(c *fiber.Ctx) error {
	videoID := c.Query("id")
	if !videoIDRE.MatchString(videoID) {
		return fiber.NewError(
			http.StatusBadRequest,
			"id must be an 11-character YouTube ID (letters, digits, underscore, hyphen)",
		)
	}

	transcript, err := s.Transcripts.VideoTranscript(c.Context(), videoID)
	if err != nil {
		return httpError("fetching raw transcript", videoID, err)
	}

	return c.JSON(transcripts.Entry{VideoID: videoID, Transcript: transcript})
}

// playlistTranscripts serves GET /transcripts/playlist?id=<playlistId>
func (s *Server) playlistTranscripts(c *fiber.Ctx) error {
	playlistID := c.Query("id")
	if playlistID == "" {
		return fiber.NewError(http.StatusBadRequest, "id query parameter is required")
	}

	entries, err := s.Transcripts.PlaylistTranscripts(c.Context(), playlistID)
	if err != nil {
		return httpError("fetching playlist transcripts", playlistID, err)
	}
	if entries == nil {
		entries = []transcripts.Entry{}
	}

	return c.JSON(entries)
}

// httpError logs the full failure and maps it onto the error taxonomy with a
// message that is safe to return. NotFound keeps its message so callers can
// see the available language codes and retry.
func httpError(op, id string, err error) error {
	log.Printf("[ERROR]: %s for %q: %v", op, id, err)

	switch {
	case errors.Is(err, faults.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, faults.ErrParse):
		return fiber.NewError(http.StatusBadGateway, "failed to parse transcript")
	case errors.Is(err, faults.ErrBlocked):
		return fiber.NewError(http.StatusServiceUnavailable, "youtube blocked the request")
	case errors.Is(err, faults.ErrUnimplemented):
		return fiber.NewError(http.StatusNotImplemented, "translate not implemented")
	default:
		return fiber.NewError(http.StatusInternalServerError, "failed to fetch transcript")
	}
}
