package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"

	"github.com/clipflow/clipflow/internal/utils"
)

// ClientSecretsEnvVar names the OAuth client secrets file when no explicit
// credentials path is configured.
const ClientSecretsEnvVar = "GOOGLE_CLIENT_SECRETS_FILE"

// ErrNoChannel is returned when the authenticated account has no channel to
// read the uploads playlist from.
var ErrNoChannel = errors.New("no channel found")

// requiredScopes is the OAuth scope needed to read, rename, and playlist
// videos.
var requiredScopes = []string{
	"https://www.googleapis.com/auth/youtube",
}

// Options configures a Client.
type Options struct {
	// CredentialsPath names the OAuth client secrets JSON file. When empty,
	// the GOOGLE_CLIENT_SECRETS_FILE environment variable is consulted.
	CredentialsPath string
	// CachePath names the persistent catalog cache file. Defaults to
	// DefaultCacheFile in the working directory.
	CachePath string
}

// Client wraps an authorized YouTube API service together with the catalog
// cache. All remote calls are synchronous; there is no retrying and no
// parallel fan-out, so the platform's undocumented rate limits are respected
// by construction.
type Client struct {
	svc   *youtubeapi.Service
	cache *Cache
}

// NewClient authorizes against the YouTube API and loads the catalog cache.
// Callers must arrange for Cache().Flush() to run on every exit path.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	credentialsPath := opts.CredentialsPath
	if credentialsPath == "" {
		credentialsPath = os.Getenv(ClientSecretsEnvVar)
	}
	if credentialsPath == "" {
		return nil, fmt.Errorf("no credentials configured: pass --credentials or set %s", ClientSecretsEnvVar)
	}

	svc, err := newService(ctx, credentialsPath)
	if err != nil {
		return nil, err
	}

	cachePath := opts.CachePath
	if cachePath == "" {
		cachePath = DefaultCacheFile
	}
	cache, err := OpenCache(cachePath)
	if err != nil {
		return nil, err
	}

	return &Client{svc: svc, cache: cache}, nil
}

// NewClientWithService binds an existing API service and cache. Used by tests
// to point the client at a fake HTTP endpoint.
func NewClientWithService(svc *youtubeapi.Service, cache *Cache) *Client {
	return &Client{svc: svc, cache: cache}
}

// newService runs the OAuth flow and builds the API service. A previously
// stored token is reused while it remains valid; otherwise the default
// browser is sent through the consent flow and the fresh token is stored.
func newService(ctx context.Context, credentialsPath string) (*youtubeapi.Service, error) {
	credentials, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(credentials, requiredScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth config: %w", err)
	}

	tokenStorage, err := utils.NewTokenStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}

	token, err := tokenStorage.LoadToken("youtube")
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	if token == nil || !token.Valid() {
		callbackServer := utils.NewOAuthCallbackServer()
		if err := callbackServer.Start(8080); err != nil {
			return nil, fmt.Errorf("failed to start callback server: %w", err)
		}
		defer func() {
			if err := callbackServer.Stop(); err != nil {
				utils.LogWarning("Failed to stop callback server: %v", err)
			}
		}()

		config.RedirectURL = "http://localhost:8080"

		authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
		if err := callbackServer.OpenURL(authURL); err != nil {
			return nil, fmt.Errorf("failed to open auth URL: %w", err)
		}

		code := callbackServer.WaitForCode()

		token, err = config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
		}

		if err := tokenStorage.SaveToken("youtube", token); err != nil {
			utils.LogWarning("Failed to save token: %v", err)
		}
	} else {
		utils.LogVerbose("Using existing authorization token")
	}

	svc, err := youtubeapi.NewService(ctx, option.WithTokenSource(config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return svc, nil
}

// Cache exposes the catalog cache so callers can defer its flush.
func (c *Client) Cache() *Cache {
	return c.cache
}

// UploadsPlaylistID returns the id of the authenticated channel's uploads
// playlist.
func (c *Client) UploadsPlaylistID(ctx context.Context) (string, error) {
	resp, err := c.svc.Channels.List([]string{"contentDetails"}).
		Mine(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to get channel info: %w", err)
	}

	if len(resp.Items) == 0 {
		return "", ErrNoChannel
	}
	channel := resp.Items[0]
	if channel.ContentDetails == nil || channel.ContentDetails.RelatedPlaylists == nil ||
		channel.ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", ErrNoChannel
	}

	return channel.ContentDetails.RelatedPlaylists.Uploads, nil
}

// PlaylistItems walks every item of a playlist. Item details only; use
// PlaylistVideos for full catalog entries.
func (c *Client) PlaylistItems(ctx context.Context, playlistID string) *Pager[*youtubeapi.PlaylistItem] {
	return NewPager(func(pageToken string) ([]*youtubeapi.PlaylistItem, string, error) {
		resp, err := c.svc.PlaylistItems.List([]string{"contentDetails", "snippet"}).
			PlaylistId(playlistID).
			MaxResults(maxBatchIDs).
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			return nil, "", fmt.Errorf("failed to list playlist items: %w", err)
		}
		return resp.Items, resp.NextPageToken, nil
	})
}

// Videos yields catalog entries for the given ids, in order.
func (c *Client) Videos(ctx context.Context, ids IDSeq) *VideoSeq {
	return &VideoSeq{ctx: ctx, client: c, ids: ids}
}

// PlaylistVideos yields catalog entries for the videos of a playlist, in
// playlist order. A negative limit means no limit.
func (c *Client) PlaylistVideos(ctx context.Context, playlistID string, limit int) *VideoSeq {
	items := c.PlaylistItems(ctx, playlistID)
	ids := IDSeq(func() (string, error) {
		item, err := items.Next()
		if err != nil {
			return "", err
		}
		if item.ContentDetails == nil {
			return "", fmt.Errorf("playlist item %s has no video id", item.Id)
		}
		return item.ContentDetails.VideoId, nil
	})
	return c.Videos(ctx, limitIDs(ids, limit))
}

// UploadedVideos yields catalog entries for the channel's most recent
// uploads. A negative limit means the entire upload history.
func (c *Client) UploadedVideos(ctx context.Context, limit int) (*VideoSeq, error) {
	uploadsID, err := c.UploadsPlaylistID(ctx)
	if err != nil {
		return nil, err
	}
	return c.PlaylistVideos(ctx, uploadsID, limit), nil
}

// VideoUpdate carries the fields a publish mutation sets in one call.
type VideoUpdate struct {
	Title       string
	Description string
	CategoryID  string
	Privacy     string
}

// UpdateVideo applies a partial update to a video's snippet and status and
// writes the changed fields through to the cache entry, if one exists. The
// raw response is returned so callers can verify it names the video.
func (c *Client) UpdateVideo(ctx context.Context, videoID string, update VideoUpdate) (*youtubeapi.Video, error) {
	body := &youtubeapi.Video{
		Id: videoID,
		Snippet: &youtubeapi.VideoSnippet{
			Title:       update.Title,
			Description: update.Description,
			CategoryId:  update.CategoryID,
		},
		Status: &youtubeapi.VideoStatus{
			PrivacyStatus: update.Privacy,
		},
	}

	resp, err := c.svc.Videos.Update([]string{"snippet", "status"}, body).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update video %s: %w", videoID, err)
	}

	if cached := c.cache.Get(videoID); cached != nil {
		if cached.Snippet == nil {
			cached.Snippet = &youtubeapi.VideoSnippet{}
		}
		cached.Snippet.Title = update.Title
		cached.Snippet.Description = update.Description
		cached.Snippet.CategoryId = update.CategoryID
		if cached.Status == nil {
			cached.Status = &youtubeapi.VideoStatus{}
		}
		cached.Status.PrivacyStatus = update.Privacy
	}

	return resp, nil
}

// InsertPlaylistItem appends a video to a playlist. The raw response is
// returned so callers can verify it names the new item.
func (c *Client) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) (*youtubeapi.PlaylistItem, error) {
	item := &youtubeapi.PlaylistItem{
		Snippet: &youtubeapi.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtubeapi.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}

	resp, err := c.svc.PlaylistItems.Insert([]string{"snippet"}, item).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to add video %s to playlist %s: %w", videoID, playlistID, err)
	}

	return resp, nil
}

// PlaylistItemUpdate repositions one existing playlist item.
type PlaylistItemUpdate struct {
	ItemID       string
	PlaylistID   string
	ResourceKind string
	VideoID      string
	Position     int64
	Note         string
}

// UpdatePlaylistItem moves a playlist item to an explicit position and
// restores its note.
func (c *Client) UpdatePlaylistItem(ctx context.Context, update PlaylistItemUpdate) (*youtubeapi.PlaylistItem, error) {
	item := &youtubeapi.PlaylistItem{
		Id: update.ItemID,
		Snippet: &youtubeapi.PlaylistItemSnippet{
			PlaylistId: update.PlaylistID,
			Position:   update.Position,
			ResourceId: &youtubeapi.ResourceId{
				Kind:    update.ResourceKind,
				VideoId: update.VideoID,
			},
			// Position zero is the front of the playlist, not an unset field.
			ForceSendFields: []string{"Position"},
		},
		ContentDetails: &youtubeapi.PlaylistItemContentDetails{
			Note: update.Note,
		},
	}

	resp, err := c.svc.PlaylistItems.Update([]string{"snippet", "contentDetails"}, item).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update playlist item %s: %w", update.ItemID, err)
	}

	return resp, nil
}
