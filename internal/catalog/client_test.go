package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL, Token: "secret", UserID: "u1"})
}

func TestClient_GetItem(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Users/u1/Items/ep1":
			assert.Equal(t, "secret", r.Header.Get("X-Emby-Token"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"Id":                "ep1",
				"Name":              "Pilot",
				"Type":              "Episode",
				"RunTimeTicks":      int64(36_000_000_000),
				"SeriesId":          "show1",
				"ParentIndexNumber": 1,
				"IndexNumber":       3,
				"UserData": map[string]any{
					"PlaybackPositionTicks": int64(18_000_000_000),
				},
				"MediaStreams": []map[string]any{
					{"Index": 0, "Type": "Video", "Codec": "h264"},
					{"Index": 2, "Type": "Subtitle", "Language": "eng", "IsExternal": true},
				},
			})
		case "/MediaSegments/ep1":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"Items": []map[string]any{
					{"Type": "Intro", "StartTicks": int64(0), "EndTicks": int64(900_000_000)},
					{"Type": "Credits", "StartTicks": int64(34_000_000_000), "EndTicks": int64(36_000_000_000)},
					{"Type": "Other", "StartTicks": int64(5), "EndTicks": int64(5)}, // degenerate, dropped
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	item, err := c.GetItem(context.Background(), "ep1")
	require.NoError(t, err)

	assert.Equal(t, "ep1", item.ID)
	assert.Equal(t, KindEpisode, item.Kind)
	assert.Equal(t, int64(36_000_000_000), item.RuntimeTicks)
	assert.Equal(t, int64(18_000_000_000), item.PositionTicks)
	assert.True(t, item.IsEpisode())
	assert.Equal(t, 3, item.EpisodeNumber)

	require.Len(t, item.CaptionTracks, 1)
	assert.Equal(t, 2, item.CaptionTracks[0].Index)
	assert.True(t, item.CaptionTracks[0].External)

	require.Len(t, item.Segments, 2)
	assert.Equal(t, SegmentIntro, item.Segments[0].Type)
	assert.Equal(t, SegmentCredits, item.Segments[1].Type)
}

func TestClient_GetItem_SegmentLookupFailureIsNotFatal(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Users/u1/Items/m1":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"Id": "m1", "Name": "A Movie", "Type": "Movie", "RunTimeTicks": int64(1000),
			})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	item, err := c.GetItem(context.Background(), "m1")
	require.NoError(t, err)
	assert.Empty(t, item.Segments)
}

func TestClient_GetNextUp(t *testing.T) {
	t.Run("returns the next episode", func(t *testing.T) {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/Shows/NextUp", r.URL.Path)
			assert.Equal(t, "show1", r.URL.Query().Get("SeriesId"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"Items": []map[string]any{
					{"Id": "ep4", "Type": "Episode", "SeriesId": "show1", "IndexNumber": 4},
				},
			})
		})

		next, err := c.GetNextUp(context.Background(), "show1")
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, "ep4", next.ID)
	})

	t.Run("returns nil when nothing is next", func(t *testing.T) {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"Items": []map[string]any{}})
		})

		next, err := c.GetNextUp(context.Background(), "show1")
		require.NoError(t, err)
		assert.Nil(t, next)
	})
}

func TestClient_GetEpisodesInSeason(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Shows/show1/Episodes", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("SeasonNumber"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Items": []map[string]any{
				{"Id": "s2e1", "Type": "Episode", "IndexNumber": 1},
				{"Id": "s2e2", "Type": "Episode", "IndexNumber": 2},
			},
		})
	})

	eps, err := c.GetEpisodesInSeason(context.Background(), "show1", 2)
	require.NoError(t, err)
	require.Len(t, eps, 2)
	assert.Equal(t, "s2e1", eps[0].ID)
}

func TestClient_HTTPErrorsSurface(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GetItem(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}
