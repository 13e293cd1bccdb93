// Package format renders a snippet list as subtitle text. The structured
// form needs no serializer here; the HTTP layer encodes it as JSON directly.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/ewerx/tubescript/internal/tube"
)

const (
	JSON = "json"
	SRT  = "srt"
	VTT  = "vtt"
)

// Valid reports whether f is a supported output format.
func Valid(f string) bool {
	return f == JSON || f == SRT || f == VTT
}

// ToSRT renders SubRip: 1-based sequence number, comma before milliseconds,
// blank line between blocks, trailing whitespace trimmed.
func ToSRT(snippets []tube.Snippet) string {
	out := strings.Builder{}
	for i, snip := range snippets {
		fmt.Fprintf(
			&out,
			"%d\n%s --> %s\n%s\n\n",
			i+1,
			timestamp(snip.Start, ","),
			timestamp(snip.Start+snip.Duration, ","),
			snip.Text,
		)
	}
	return strings.TrimSpace(out.String())
}

// ToVTT renders WebVTT: header plus the same blocks as SRT, dot before
// milliseconds.
func ToVTT(snippets []tube.Snippet) string {
	out := strings.Builder{}
	out.WriteString("WEBVTT\n\n")
	for i, snip := range snippets {
		fmt.Fprintf(
			&out,
			"%d\n%s --> %s\n%s\n\n",
			i+1,
			timestamp(snip.Start, "."),
			timestamp(snip.Start+snip.Duration, "."),
			snip.Text,
		)
	}
	return strings.TrimSpace(out.String())
}

// timestamp formats seconds as HH:MM:SS<sep>mmm, all integer division,
// zero-padded.
func timestamp(seconds float64, sep string) string {
	whole := int(seconds)
	hrs := whole / 3600
	mins := whole % 3600 / 60
	secs := whole % 60
	ms := int(math.Floor((seconds - math.Floor(seconds)) * 1000))
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hrs, mins, secs, sep, ms)
}
