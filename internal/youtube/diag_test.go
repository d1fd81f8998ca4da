package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	youtubeapi "google.golang.org/api/youtube/v3"
)

func TestWalk(t *testing.T) {
	m := map[string]interface{}{
		"snippet": map[string]interface{}{
			"resourceId": map[string]interface{}{
				"videoId": "vid1",
			},
			"title": "T",
		},
	}

	assert.Equal(t, "vid1", Walk(m, "snippet", "resourceId", "videoId"))
	assert.Equal(t, "T", Walk(m, "snippet", "title"))
	assert.Nil(t, Walk(m, "snippet", "missing"))
	assert.Nil(t, Walk(m, "snippet", "title", "deeper"))
	assert.Nil(t, Walk(nil, "anything"))
}

func TestAsMapRoundTrip(t *testing.T) {
	item := &youtubeapi.PlaylistItem{
		Id: "item-1",
		Snippet: &youtubeapi.PlaylistItemSnippet{
			ResourceId: &youtubeapi.ResourceId{VideoId: "vid1"},
		},
	}

	m := AsMap(item)
	assert.Equal(t, "item-1", Walk(m, "id"))
	assert.Equal(t, "vid1", Walk(m, "snippet", "resourceId", "videoId"))
}

func TestDumpJSON(t *testing.T) {
	out := DumpJSON(map[string]string{"id": "vid1"})
	assert.Contains(t, out, `"id": "vid1"`)
}
