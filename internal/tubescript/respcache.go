package tubescript

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
)

// cachedResponse is the stored form of a successful response; the content
// type has to travel with the body because srt/vtt/json share the route.
type cachedResponse struct {
	ContentType string `json:"contentType"`
	Body        string `json:"body"`
}

// cached wraps a handler with response caching keyed by the full request URL
// (so language and format variants cache independently). Only 200 responses
// are stored; errors pass through uncached.
func (s *Server) cached(handler fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.Cache == nil {
			return handler(c)
		}

		key := "response:" + c.OriginalURL()

		raw, ok, err := s.Cache.Get(c.Context(), key)
		if err != nil {
			log.Printf("[WARN]: reading response cache for %q: %v", key, err)
		} else if ok {
			var stored cachedResponse
			if err := json.Unmarshal([]byte(raw), &stored); err == nil {
				c.Set(fiber.HeaderContentType, stored.ContentType)
				return c.SendString(stored.Body)
			}
		}

		if err := handler(c); err != nil {
			return err
		}

		if c.Response().StatusCode() == fiber.StatusOK {
			stored := cachedResponse{
				ContentType: string(c.Response().Header.ContentType()),
				Body:        string(c.Response().Body()),
			}
			data, err := json.Marshal(stored)
			if err == nil {
				if err := s.Cache.Set(c.Context(), key, string(data), s.TTL); err != nil {
					log.Printf("[WARN]: writing response cache for %q: %v", key, err)
				}
			}
		}

		return nil
	}
}
