package transcripts_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ewerx/tubescript/internal/cache"
	"github.com/ewerx/tubescript/internal/faults"
	"github.com/ewerx/tubescript/internal/transcripts"
	"github.com/ewerx/tubescript/internal/ytapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	captions    []ytapi.Caption
	captionsErr error

	downloadText string
	downloadErr  error

	pages []*ytapi.PlaylistItemsPage

	listCalls     int
	downloadCalls int
	pageCalls     int
}

func (f *fakeAPI) CaptionsList(_ context.Context, _ string) ([]ytapi.Caption, error) {
	f.listCalls++
	return f.captions, f.captionsErr
}

func (f *fakeAPI) DownloadCaption(_ context.Context, _ string) (string, error) {
	f.downloadCalls++
	return f.downloadText, f.downloadErr
}

func (f *fakeAPI) PlaylistItems(_ context.Context, _, pageToken string) (*ytapi.PlaylistItemsPage, error) {
	f.pageCalls++
	for i, page := range f.pages {
		token := ""
		if i > 0 {
			token = f.pages[i-1].NextPageToken
		}
		if token == pageToken {
			return page, nil
		}
	}
	return nil, fmt.Errorf("unexpected page token %q", pageToken)
}

type fakePublic struct {
	text  string
	err   error
	calls int
}

func (f *fakePublic) LegacyTranscript(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

func newService(api *fakeAPI, public *fakePublic) (*transcripts.Service, *cache.Memory) {
	store := cache.NewMemory()
	return &transcripts.Service{
		API:    api,
		Public: public,
		Cache:  store,
		TTL:    time.Hour,
	}, store
}

func TestVideoTranscript(t *testing.T) {
	ctx := context.Background()

	t.Run("privileged path success", func(t *testing.T) {
		api := &fakeAPI{captions: []ytapi.Caption{{ID: "cap1"}}, downloadText: "1\nhello"}
		public := &fakePublic{}
		service, _ := newService(api, public)

		text, err := service.VideoTranscript(ctx, "abc12345678")
		require.NoError(t, err)
		assert.Equal(t, "1\nhello", text)
		assert.Zero(t, public.calls)
	})

	t.Run("second call within TTL hits cache, zero network calls", func(t *testing.T) {
		api := &fakeAPI{captions: []ytapi.Caption{{ID: "cap1"}}, downloadText: "cached text"}
		service, _ := newService(api, &fakePublic{})

		first, err := service.VideoTranscript(ctx, "abc12345678")
		require.NoError(t, err)

		second, err := service.VideoTranscript(ctx, "abc12345678")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, api.listCalls)
		assert.Equal(t, 1, api.downloadCalls)
	})

	t.Run("expired entry causes a fresh fetch", func(t *testing.T) {
		api := &fakeAPI{captions: []ytapi.Caption{{ID: "cap1"}}, downloadText: "text"}
		service, store := newService(api, &fakePublic{})

		_, err := service.VideoTranscript(ctx, "abc12345678")
		require.NoError(t, err)

		store.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })

		_, err = service.VideoTranscript(ctx, "abc12345678")
		require.NoError(t, err)
		assert.Equal(t, 2, api.listCalls)
	})

	t.Run("authorization failure falls back to public exactly once", func(t *testing.T) {
		api := &fakeAPI{
			captions:    []ytapi.Caption{{ID: "cap1"}},
			downloadErr: fmt.Errorf("status 403: %w", faults.ErrAuth),
		}
		public := &fakePublic{text: "public text"}
		service, _ := newService(api, public)

		text, err := service.VideoTranscript(ctx, "abc12345678")
		require.NoError(t, err)
		assert.Equal(t, "public text", text)
		assert.Equal(t, 1, public.calls)
	})

	t.Run("public fallback result is cached", func(t *testing.T) {
		api := &fakeAPI{captionsErr: fmt.Errorf("status 403: %w", faults.ErrAuth)}
		public := &fakePublic{text: "public text"}
		service, _ := newService(api, public)

		_, err := service.VideoTranscript(ctx, "abc12345678")
		require.NoError(t, err)

		_, err = service.VideoTranscript(ctx, "abc12345678")
		require.NoError(t, err)
		assert.Equal(t, 1, public.calls)
		assert.Equal(t, 1, api.listCalls)
	})

	t.Run("non-authorization failure propagates without fallback", func(t *testing.T) {
		timeout := errors.New("context deadline exceeded")
		api := &fakeAPI{captionsErr: timeout}
		public := &fakePublic{text: "should not be used"}
		service, _ := newService(api, public)

		_, err := service.VideoTranscript(ctx, "abc12345678")
		require.ErrorIs(t, err, timeout)
		assert.Zero(t, public.calls)
	})

	t.Run("empty caption list is NotFound, no fallback", func(t *testing.T) {
		api := &fakeAPI{}
		public := &fakePublic{text: "should not be used"}
		service, _ := newService(api, public)

		_, err := service.VideoTranscript(ctx, "abc12345678")
		require.ErrorIs(t, err, faults.ErrNotFound)
		assert.Zero(t, public.calls)
	})

	t.Run("failures are never cached", func(t *testing.T) {
		api := &fakeAPI{captionsErr: errors.New("upstream down")}
		service, _ := newService(api, &fakePublic{})

		_, err := service.VideoTranscript(ctx, "abc12345678")
		require.Error(t, err)

		// Recovery: next call goes to origin again and succeeds.
		api.captionsErr = nil
		api.captions = []ytapi.Caption{{ID: "cap1"}}
		api.downloadText = "recovered"

		text, err := service.VideoTranscript(ctx, "abc12345678")
		require.NoError(t, err)
		assert.Equal(t, "recovered", text)
		assert.Equal(t, 2, api.listCalls)
	})
}

func page(token string, videoIDs ...string) *ytapi.PlaylistItemsPage {
	p := &ytapi.PlaylistItemsPage{NextPageToken: token}
	for _, id := range videoIDs {
		item := ytapi.PlaylistItem{}
		item.ContentDetails.VideoId = id
		p.Items = append(p.Items, item)
	}
	return p
}

func TestPlaylistTranscripts(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates all pages in first-seen order", func(t *testing.T) {
		api := &fakeAPI{
			captions:     []ytapi.Caption{{ID: "cap"}},
			downloadText: "text",
			pages: []*ytapi.PlaylistItemsPage{
				page("page2", "aaaaaaaaaaa", "bbbbbbbbbbb"),
				page("page3", "ccccccccccc"),
				page("", "ddddddddddd", "aaaaaaaaaaa"),
			},
		}
		service, _ := newService(api, &fakePublic{})

		entries, err := service.PlaylistTranscripts(ctx, "PL123")
		require.NoError(t, err)

		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.VideoID
		}
		assert.Equal(t, []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd"}, ids)
		assert.Equal(t, 3, api.pageCalls)
	})

	t.Run("members without a video id are skipped", func(t *testing.T) {
		api := &fakeAPI{
			captions:     []ytapi.Caption{{ID: "cap"}},
			downloadText: "text",
			pages: []*ytapi.PlaylistItemsPage{
				page("page2", "", ""),
				page("", "aaaaaaaaaaa"),
			},
		}
		service, _ := newService(api, &fakePublic{})

		entries, err := service.PlaylistTranscripts(ctx, "PL123")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "aaaaaaaaaaa", entries[0].VideoID)
	})

	t.Run("members without captions are skipped", func(t *testing.T) {
		api := &fakeAPI{
			pages: []*ytapi.PlaylistItemsPage{
				page("", "aaaaaaaaaaa", "bbbbbbbbbbb"),
			},
		}
		service, _ := newService(api, &fakePublic{})

		entries, err := service.PlaylistTranscripts(ctx, "PL123")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("transport errors abort enumeration", func(t *testing.T) {
		boom := errors.New("upstream down")
		api := &fakeAPI{
			captionsErr: boom,
			pages: []*ytapi.PlaylistItemsPage{
				page("", "aaaaaaaaaaa"),
			},
		}
		service, _ := newService(api, &fakePublic{})

		_, err := service.PlaylistTranscripts(ctx, "PL123")
		require.ErrorIs(t, err, boom)
	})
}
