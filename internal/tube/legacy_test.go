package tube_test

import (
	"context"
	"testing"

	"github.com/ewerx/tubescript/internal/faults"
	"github.com/ewerx/tubescript/internal/tube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyTranscript(t *testing.T) {
	ctx := context.Background()

	t.Run("first listed language wins, markup stripped", func(t *testing.T) {
		list := `<?xml version="1.0" encoding="utf-8" ?><transcript_list>
			<track id="0" name="" lang_code="nl" lang_original="Nederlands"/>
			<track id="1" name="" lang_code="en" lang_original="English"/>
		</transcript_list>`
		track := `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0" dur="1.5">Tom &amp; Jerry</text><text start="1.5" dur="1">tweede regel</text></transcript>`

		session := &fakeSession{responses: map[string]fakeResponse{
			base + "/api/timedtext?type=list&v=abc12345678": {body: list},
			base + "/api/timedtext?v=abc12345678&lang=nl":   {body: track},
		}}
		client := &tube.Client{Session: session, Base: base}

		plain, err := client.LegacyTranscript(ctx, "abc12345678")
		require.NoError(t, err)
		assert.Equal(t, "Tom & Jerry\ntweede regel", plain)
	})

	t.Run("no tracks at all", func(t *testing.T) {
		session := &fakeSession{responses: map[string]fakeResponse{
			base + "/api/timedtext?type=list&v=abc12345678": {body: `<transcript_list></transcript_list>`},
		}}
		client := &tube.Client{Session: session, Base: base}

		_, err := client.LegacyTranscript(ctx, "abc12345678")
		require.ErrorIs(t, err, faults.ErrNotFound)
		assert.ErrorContains(t, err, "no public captions")
	})

	t.Run("track without caption text", func(t *testing.T) {
		session := &fakeSession{responses: map[string]fakeResponse{
			base + "/api/timedtext?type=list&v=abc12345678": {body: `<track id="0" lang_code="en"/>`},
			base + "/api/timedtext?v=abc12345678&lang=en":   {body: `<transcript></transcript>`},
		}}
		client := &tube.Client{Session: session, Base: base}

		_, err := client.LegacyTranscript(ctx, "abc12345678")
		require.ErrorIs(t, err, faults.ErrNotFound)
	})
}
