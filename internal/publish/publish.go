package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/iterator"
	youtubeapi "google.golang.org/api/youtube/v3"

	"github.com/clipflow/clipflow/internal/clips"
	"github.com/clipflow/clipflow/internal/utils"
	"github.com/clipflow/clipflow/internal/youtube"
)

// descriptionCredit is appended to published descriptions unless suppressed.
const descriptionCredit = "Published with clipflow: https://github.com/clipflow/clipflow"

// defaultPause is the self-imposed delay between mutating call pairs. It is
// the only backpressure against the platform's per-minute quota.
const defaultPause = 100 * time.Millisecond

// ErrBadResponse is returned when a mutating call's response lacks its
// identifier, which signals an API failure that must not be ignored. The raw
// response is dumped before the reconciliation aborts.
var ErrBadResponse = errors.New("mutation response has no id")

// Options configures a reconciliation pass.
type Options struct {
	// PlaylistID is the playlist every published clip is added to.
	PlaylistID string
	// CategoryID is assigned to every published video.
	CategoryID string
	// UploadsPlaylistID, when set, names the playlist to scan for candidate
	// uploads instead of the channel's upload history.
	UploadsPlaylistID string
	// ScanMoreUploads widens the bounded history scan beyond one video per
	// clip. Ignored when UploadsPlaylistID is set.
	ScanMoreUploads int
	// SuppressCredit drops the credit line from published descriptions.
	SuppressCredit bool
	// Pause overrides the delay between mutating call pairs.
	Pause time.Duration
}

// Publisher reconciles intended clips against the live platform state,
// issuing the minimal rename + set-public + playlist-insert sequence for each
// clip that needs it. A pass is idempotent: clips already converged are never
// touched, so re-running after a failure is always safe.
type Publisher struct {
	client Client
	opts   Options
}

// New builds a Publisher.
func New(client Client, opts Options) *Publisher {
	if opts.Pause <= 0 {
		opts.Pause = defaultPause
	}
	return &Publisher{client: client, opts: opts}
}

// Run performs one reconciliation pass over the clips, in log order. An
// unresolved clip ends the walk without error: uploads are assumed to appear
// in log order, so everything after the first missing one is also missing or
// not yet ready, and a later re-run will pick it up.
func (p *Publisher) Run(ctx context.Context, clipList []clips.Clip) error {
	// Intent map: expected pre-publish title to clip. A later clip with the
	// same expected title overwrites an earlier one but keeps its position.
	intent := make(map[string]clips.Clip, len(clipList))
	var order []string
	for _, clip := range clipList {
		title := clip.ExpectedUploadTitle()
		if _, seen := intent[title]; !seen {
			order = append(order, title)
		}
		intent[title] = clip
	}

	uploaded, err := p.discover(ctx, intent)
	if err != nil {
		return err
	}

	for _, title := range order {
		clip := intent[title]

		if videoID, ok := uploaded[clip.Name]; ok {
			utils.LogInfo("Already renamed: %s %s", videoID, clip.Name)
			continue
		}

		videoID, ok := uploaded[title]
		if !ok {
			utils.LogWarning("Video not uploaded or not done processing: %s (%s)", title, clip.Name)
			break
		}

		if err := p.publishClip(ctx, videoID, title, clip); err != nil {
			return err
		}

		time.Sleep(p.opts.Pause)
	}

	return nil
}

// discover enumerates the candidate uploads and maps each eligible video's
// title to its id. Videos still processing are skipped; titles that match no
// intent entry are logged and ignored because they may be unrelated content.
func (p *Publisher) discover(ctx context.Context, intent map[string]clips.Clip) (map[string]string, error) {
	var (
		candidates Videos
		err        error
	)
	if p.opts.UploadsPlaylistID != "" {
		candidates = p.client.PlaylistVideos(ctx, p.opts.UploadsPlaylistID, -1)
	} else {
		candidates, err = p.client.UploadedVideos(ctx, len(intent)+p.opts.ScanMoreUploads)
		if err != nil {
			return nil, err
		}
	}

	uploaded := make(map[string]string)
	for {
		video, err := candidates.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		title := videoTitle(video)
		if !doneProcessing(video) {
			utils.LogInfo("Ignoring video that is not done processing: %s %s", video.Id, title)
			continue
		}

		uploaded[title] = video.Id

		if _, ok := intent[title]; !ok {
			utils.LogVerbose("Ignoring video with unrecognized title: %s %s", video.Id, title)
			continue
		}
		utils.LogInfo("Discovered uploaded video: %s %s", video.Id, title)
	}

	return uploaded, nil
}

// publishClip issues the mutation pair for one clip: rename + set public,
// then playlist insert. Either response missing its id aborts the run with
// the raw payload dumped for inspection.
func (p *Publisher) publishClip(ctx context.Context, videoID, title string, clip clips.Clip) error {
	utils.LogInfo("Renaming: %s %s", videoID, clip.Name)
	video, err := p.client.UpdateVideo(ctx, videoID, youtube.VideoUpdate{
		Title:       clip.Name,
		Description: p.description(clip),
		CategoryID:  p.opts.CategoryID,
		Privacy:     "public",
	})
	if err != nil {
		return err
	}
	if video == nil || video.Id == "" {
		utils.LogRaw(youtube.DumpJSON(video))
		return fmt.Errorf("updating video %s: %w", videoID, ErrBadResponse)
	}

	utils.LogInfo("Adding it to the playlist")
	item, err := p.client.InsertPlaylistItem(ctx, p.opts.PlaylistID, videoID)
	if err != nil {
		return err
	}
	if item == nil || item.Id == "" {
		utils.LogRaw(youtube.DumpJSON(item))
		return fmt.Errorf("adding video %s to playlist: %w", videoID, ErrBadResponse)
	}

	return nil
}

// description builds the published description: the clip's own text plus the
// credit line, unless suppressed.
func (p *Publisher) description(clip clips.Clip) string {
	if p.opts.SuppressCredit {
		return clip.Description
	}
	if clip.Description == "" {
		return descriptionCredit
	}
	return clip.Description + "\n\n" + descriptionCredit
}

// doneProcessing reports whether the platform has finished processing the
// video successfully. Failed uploads never become eligible; matching them by
// title would publish a broken video.
func doneProcessing(video *youtubeapi.Video) bool {
	return video.ProcessingDetails != nil && video.ProcessingDetails.ProcessingStatus == "succeeded"
}

func videoTitle(video *youtubeapi.Video) string {
	if video.Snippet == nil {
		return ""
	}
	return video.Snippet.Title
}
