package tube

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ewerx/tubescript/internal/faults"
)

// playerResponseMarker starts the embedded player response JSON in watch page HTML.
const playerResponseMarker = "ytInitialPlayerResponse = "

// ExtractPlayerResponse slices the ytInitialPlayerResponse JSON object out of
// watch page HTML. The object sits between the marker and the closing
// </script> tag; its end is the rightmost "};" before that boundary.
//
// Pure, no I/O. Each structural failure gets its own message so upstream HTML
// drift shows up precisely instead of as a generic downstream error.
func ExtractPlayerResponse(html string) (json.RawMessage, error) {
	start := strings.Index(html, playerResponseMarker)
	if start < 0 {
		return nil, fmt.Errorf("ytInitialPlayerResponse marker not found in HTML: %w", faults.ErrParse)
	}

	jsonStart := start + len(playerResponseMarker)

	scriptEnd := strings.Index(html[jsonStart:], "</script>")
	if scriptEnd < 0 {
		return nil, fmt.Errorf("closing </script> tag not found after ytInitialPlayerResponse: %w", faults.ErrParse)
	}

	window := html[jsonStart : jsonStart+scriptEnd]
	jsonEnd := strings.LastIndex(window, "};")
	if jsonEnd < 0 {
		return nil, fmt.Errorf(`closing brace "};" not found for ytInitialPlayerResponse JSON: %w`, faults.ErrParse)
	}

	var raw json.RawMessage
	if err := json.Unmarshal([]byte(window[:jsonEnd+1]), &raw); err != nil {
		return nil, fmt.Errorf("parsing ytInitialPlayerResponse JSON: %v: %w", err, faults.ErrParse)
	}

	return raw, nil
}
