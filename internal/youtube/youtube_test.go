package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

// fakeAPI serves the slice of the YouTube Data API this package consumes,
// recording every call so tests can assert batching and request shape.
type fakeAPI struct {
	t *testing.T

	// videos served by videos.list, keyed by id.
	videos map[string]*youtubeapi.Video
	// playlists served by playlistItems.list, keyed by playlist id.
	playlists map[string][]*youtubeapi.PlaylistItem
	// channels served by channels.list.
	channels []*youtubeapi.Channel
	// pageSize caps playlistItems.list pages to force pagination.
	pageSize int

	videoCalls      [][]string
	updatedVideos   []*youtubeapi.Video
	insertedItems   []*youtubeapi.PlaylistItem
	updatedItems    []*youtubeapi.PlaylistItem
	updateResponses []*youtubeapi.Video
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{
		t:         t,
		videos:    make(map[string]*youtubeapi.Video),
		playlists: make(map[string][]*youtubeapi.PlaylistItem),
		pageSize:  50,
	}
}

func (f *fakeAPI) addVideo(id, title, processingStatus string) *youtubeapi.Video {
	video := &youtubeapi.Video{
		Id:      id,
		Snippet: &youtubeapi.VideoSnippet{Title: title},
		ProcessingDetails: &youtubeapi.VideoProcessingDetails{
			ProcessingStatus: processingStatus,
		},
	}
	f.videos[id] = video
	return video
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			ids := r.URL.Query()["id"]
			f.videoCalls = append(f.videoCalls, ids)

			resp := &youtubeapi.VideoListResponse{}
			for _, id := range ids {
				if video, ok := f.videos[id]; ok {
					resp.Items = append(resp.Items, video)
				}
			}
			writeJSON(f.t, w, resp)
		case http.MethodPut:
			var body youtubeapi.Video
			require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
			f.updatedVideos = append(f.updatedVideos, &body)

			resp := &body
			if len(f.updateResponses) > 0 {
				resp = f.updateResponses[0]
				f.updateResponses = f.updateResponses[1:]
			}
			writeJSON(f.t, w, resp)
		default:
			http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/youtube/v3/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			f.servePlaylistPage(w, r)
		case http.MethodPost:
			var body youtubeapi.PlaylistItem
			require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
			f.insertedItems = append(f.insertedItems, &body)

			body.Id = "item-" + strconv.Itoa(len(f.insertedItems))
			writeJSON(f.t, w, &body)
		case http.MethodPut:
			var body youtubeapi.PlaylistItem
			require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
			f.updatedItems = append(f.updatedItems, &body)
			writeJSON(f.t, w, &body)
		default:
			http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/youtube/v3/channels", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(f.t, w, &youtubeapi.ChannelListResponse{Items: f.channels})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		f.t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		http.NotFound(w, r)
	})
	return mux
}

func (f *fakeAPI) servePlaylistPage(w http.ResponseWriter, r *http.Request) {
	items := f.playlists[r.URL.Query().Get("playlistId")]

	offset := 0
	if token := r.URL.Query().Get("pageToken"); token != "" {
		var err error
		offset, err = strconv.Atoi(token)
		require.NoError(f.t, err)
	}

	end := offset + f.pageSize
	if end > len(items) {
		end = len(items)
	}

	resp := &youtubeapi.PlaylistItemListResponse{Items: items[offset:end]}
	if end < len(items) {
		resp.NextPageToken = strconv.Itoa(end)
	}
	writeJSON(f.t, w, resp)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// newTestClient points a Client at the fake API with a fresh cache.
func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()

	ts := httptest.NewServer(api.handler())
	t.Cleanup(ts.Close)

	svc, err := youtubeapi.NewService(context.Background(),
		option.WithEndpoint(ts.URL),
		option.WithHTTPClient(ts.Client()),
	)
	require.NoError(t, err)

	cache, err := OpenCache(filepath.Join(t.TempDir(), "youtube-cache.json"))
	require.NoError(t, err)

	return NewClientWithService(svc, cache)
}
