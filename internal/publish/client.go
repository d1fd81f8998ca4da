package publish

import (
	"context"

	youtubeapi "google.golang.org/api/youtube/v3"

	"github.com/clipflow/clipflow/internal/youtube"
)

// Videos is the pull side of a catalog entry sequence. Next returns
// iterator.Done after the final entry.
type Videos interface {
	Next() (*youtubeapi.Video, error)
}

// Client is the slice of the platform API the reconciler consumes.
type Client interface {
	// UploadedVideos yields the channel's most recent uploads, newest first.
	// A negative limit means the entire upload history.
	UploadedVideos(ctx context.Context, limit int) (Videos, error)
	// PlaylistVideos yields the videos of a playlist in playlist order.
	PlaylistVideos(ctx context.Context, playlistID string, limit int) Videos
	// UpdateVideo sets a video's title, description, category, and privacy
	// in one call and returns the raw response.
	UpdateVideo(ctx context.Context, videoID string, update youtube.VideoUpdate) (*youtubeapi.Video, error)
	// InsertPlaylistItem appends a video to a playlist and returns the raw
	// response.
	InsertPlaylistItem(ctx context.Context, playlistID, videoID string) (*youtubeapi.PlaylistItem, error)
}

// apiClient adapts *youtube.Client to the reconciler's Client interface.
type apiClient struct {
	client *youtube.Client
}

// NewAPIClient wraps the concrete API client for use by a Publisher.
func NewAPIClient(client *youtube.Client) Client {
	return &apiClient{client: client}
}

func (a *apiClient) UploadedVideos(ctx context.Context, limit int) (Videos, error) {
	return a.client.UploadedVideos(ctx, limit)
}

func (a *apiClient) PlaylistVideos(ctx context.Context, playlistID string, limit int) Videos {
	return a.client.PlaylistVideos(ctx, playlistID, limit)
}

func (a *apiClient) UpdateVideo(ctx context.Context, videoID string, update youtube.VideoUpdate) (*youtubeapi.Video, error) {
	return a.client.UpdateVideo(ctx, videoID, update)
}

func (a *apiClient) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) (*youtubeapi.PlaylistItem, error) {
	return a.client.InsertPlaylistItem(ctx, playlistID, videoID)
}
