package youtube

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
	youtubeapi "google.golang.org/api/youtube/v3"
)

// drain collects every entry of a VideoSeq.
func drain(t *testing.T, seq *VideoSeq) []*youtubeapi.Video {
	t.Helper()
	var got []*youtubeapi.Video
	for {
		video, err := seq.Next()
		if err == iterator.Done {
			return got
		}
		require.NoError(t, err)
		got = append(got, video)
	}
}

func cachedVideo(id, status string) *youtubeapi.Video {
	return &youtubeapi.Video{
		Id: id,
		ProcessingDetails: &youtubeapi.VideoProcessingDetails{
			ProcessingStatus: status,
		},
	}
}

func TestVideosAllCachedIssuesNoRemoteCalls(t *testing.T) {
	api := newFakeAPI(t)
	client := newTestClient(t, api)
	for _, id := range []string{"a", "b", "c"} {
		client.cache.Put(cachedVideo(id, "succeeded"))
	}

	got := drain(t, client.Videos(context.Background(), IDsFrom("a", "b", "c")))

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Id)
	assert.Equal(t, "b", got[1].Id)
	assert.Equal(t, "c", got[2].Id)
	assert.Empty(t, api.videoCalls)
}

func TestVideosEmptySequence(t *testing.T) {
	api := newFakeAPI(t)
	client := newTestClient(t, api)

	seq := client.Videos(context.Background(), IDsFrom())
	_, err := seq.Next()
	assert.ErrorIs(t, err, iterator.Done)
	assert.Empty(t, api.videoCalls)
}

func TestVideosBatchesUncachedIDs(t *testing.T) {
	api := newFakeAPI(t)
	var ids []string
	for i := 0; i < 120; i++ {
		id := fmt.Sprintf("vid%03d", i)
		ids = append(ids, id)
		api.addVideo(id, "Title "+id, "succeeded")
	}
	client := newTestClient(t, api)

	got := drain(t, client.Videos(context.Background(), IDsFrom(ids...)))

	require.Len(t, got, 120)
	for i, video := range got {
		assert.Equal(t, ids[i], video.Id)
	}

	// 120 uncached ids fetch as exactly three batches of 50, 50, and 20.
	require.Len(t, api.videoCalls, 3)
	assert.Len(t, api.videoCalls[0], 50)
	assert.Len(t, api.videoCalls[1], 50)
	assert.Len(t, api.videoCalls[2], 20)

	// Every fetched entry was written through to the cache.
	assert.Equal(t, 120, client.cache.Len())
}

func TestVideosInterleavesCachedAndFetched(t *testing.T) {
	api := newFakeAPI(t)
	api.addVideo("a", "A", "succeeded")
	api.addVideo("c", "C", "succeeded")
	client := newTestClient(t, api)
	client.cache.Put(cachedVideo("b", "succeeded"))

	got := drain(t, client.Videos(context.Background(), IDsFrom("a", "b", "c")))

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Id)
	assert.Equal(t, "b", got[1].Id)
	assert.Equal(t, "c", got[2].Id)

	// The cached id never reaches the API.
	require.Len(t, api.videoCalls, 1)
	assert.Equal(t, []string{"a", "c"}, api.videoCalls[0])
}

func TestVideosDuplicateIDsYieldPerOccurrence(t *testing.T) {
	api := newFakeAPI(t)
	api.addVideo("a", "A", "succeeded")
	client := newTestClient(t, api)

	got := drain(t, client.Videos(context.Background(), IDsFrom("a", "a")))

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Id)
	assert.Equal(t, "a", got[1].Id)

	// The request batch is deduplicated.
	require.Len(t, api.videoCalls, 1)
	assert.Equal(t, []string{"a"}, api.videoCalls[0])
}

func TestVideosRefetchesProcessingEntries(t *testing.T) {
	api := newFakeAPI(t)
	api.addVideo("a", "A", "succeeded")
	client := newTestClient(t, api)
	// A cached entry still processing is not trusted; the platform may have
	// finished it since the last run.
	client.cache.Put(cachedVideo("a", "processing"))

	got := drain(t, client.Videos(context.Background(), IDsFrom("a")))

	require.Len(t, got, 1)
	assert.Equal(t, "succeeded", got[0].ProcessingDetails.ProcessingStatus)
	require.Len(t, api.videoCalls, 1)
}

func TestVideosUnknownID(t *testing.T) {
	api := newFakeAPI(t)
	api.addVideo("a", "A", "succeeded")
	client := newTestClient(t, api)

	seq := client.Videos(context.Background(), IDsFrom("a", "missing"))
	_, err := seq.Next()
	require.ErrorIs(t, err, ErrUnknownVideo)
	assert.Contains(t, err.Error(), "missing")

	// The error is sticky.
	_, again := seq.Next()
	assert.Equal(t, err, again)
}

func TestVideosCachedFastPathSkipsBuffering(t *testing.T) {
	api := newFakeAPI(t)
	api.addVideo("b", "B", "succeeded")
	client := newTestClient(t, api)
	client.cache.Put(cachedVideo("a", "succeeded"))

	seq := client.Videos(context.Background(), IDsFrom("a", "b"))

	// The first id resolves from cache alone; no fetch happens until the
	// uncached id is actually needed.
	first, err := seq.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", first.Id)
	assert.Empty(t, api.videoCalls)

	second, err := seq.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", second.Id)
	require.Len(t, api.videoCalls, 1)
}
