package youtube

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/iterator"
	youtubeapi "google.golang.org/api/youtube/v3"
)

// ErrUnknownVideo is returned when the API omits a requested video id from a
// batched fetch: the platform promised data for an id that does not exist or
// was deleted. Wrapped errors carry the offending id.
var ErrUnknownVideo = errors.New("unknown video id")

// maxBatchIDs is the most ids the videos.list operation accepts per call.
const maxBatchIDs = 50

// videoParts are the detail groups fetched for every catalog entry.
var videoParts = []string{"snippet", "contentDetails", "fileDetails", "processingDetails"}

// IDSeq produces an ordered sequence of video ids, possibly with duplicates.
// It returns iterator.Done when exhausted.
type IDSeq func() (string, error)

// IDsFrom adapts a fixed id list into an IDSeq.
func IDsFrom(ids ...string) IDSeq {
	i := 0
	return func() (string, error) {
		if i >= len(ids) {
			return "", iterator.Done
		}
		id := ids[i]
		i++
		return id, nil
	}
}

// limitIDs caps an IDSeq at n ids. A negative n means no cap; zero means the
// sequence is empty.
func limitIDs(ids IDSeq, n int) IDSeq {
	if n < 0 {
		return ids
	}
	return func() (string, error) {
		if n == 0 {
			return "", iterator.Done
		}
		n--
		return ids()
	}
}

// VideoSeq yields catalog entries for an id sequence, in the exact order the
// ids were given, duplicates included. Entries cached with a terminal
// processing status resolve locally; the rest accumulate into a pending
// batch of up to 50 ids that is fetched in one paginated call, written
// through to the cache, and then released in input order. Downstream
// reconciliation correlates ids and entries positionally, so the ordering
// contract is load-bearing.
type VideoSeq struct {
	ctx     context.Context
	client  *Client
	ids     IDSeq
	idsDone bool
	pending []*videoSlot
	err     error
}

// videoSlot is one buffered output position awaiting its entry.
type videoSlot struct {
	id    string
	video *youtubeapi.Video
}

// Next returns the entry for the next input id. It returns iterator.Done
// after the entry for the final id; any other error is sticky.
func (s *VideoSeq) Next() (*youtubeapi.Video, error) {
	if s.err != nil {
		return nil, s.err
	}

	if len(s.pending) > 0 {
		return s.pop(), nil
	}

	// Gather ids until the batch is full or the input runs out. Cached
	// terminal entries either return immediately (nothing batched yet) or
	// are buffered so they release in position once the batch resolves.
	var batch []string
	batched := make(map[string]bool)
	for !s.idsDone && len(batch) < maxBatchIDs {
		id, err := s.ids()
		if err == iterator.Done {
			s.idsDone = true
			break
		}
		if err != nil {
			s.err = err
			return nil, s.err
		}

		if video := s.client.cache.Get(id); hasTerminalStatus(video) {
			if len(batch) == 0 {
				return video, nil
			}
			s.pending = append(s.pending, &videoSlot{id: id, video: video})
			continue
		}

		s.pending = append(s.pending, &videoSlot{id: id})
		if !batched[id] {
			batched[id] = true
			batch = append(batch, id)
		}
	}

	if len(s.pending) == 0 {
		s.err = iterator.Done
		return nil, s.err
	}

	if err := s.resolve(batch); err != nil {
		s.err = err
		return nil, s.err
	}

	return s.pop(), nil
}

// resolve fetches the batched ids in one paginated call, writes every
// returned entry through to the cache, and fills the buffered slots.
func (s *VideoSeq) resolve(batch []string) error {
	pager := NewPager(func(pageToken string) ([]*youtubeapi.Video, string, error) {
		resp, err := s.client.svc.Videos.List(videoParts).
			Id(batch...).
			MaxResults(maxBatchIDs).
			PageToken(pageToken).
			Context(s.ctx).
			Do()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get videos: %w", err)
		}
		return resp.Items, resp.NextPageToken, nil
	})

	for {
		video, err := pager.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}

		s.client.cache.Put(video)
		for _, slot := range s.pending {
			if slot.video == nil && slot.id == video.Id {
				slot.video = video
			}
		}
	}

	for _, slot := range s.pending {
		if slot.video == nil {
			return fmt.Errorf("%w: %s", ErrUnknownVideo, slot.id)
		}
	}

	return nil
}

func (s *VideoSeq) pop() *youtubeapi.Video {
	video := s.pending[0].video
	s.pending = s.pending[1:]
	return video
}

// hasTerminalStatus reports whether the entry carries a processing status the
// platform will no longer change. Entries still processing must be re-fetched
// on every run.
func hasTerminalStatus(video *youtubeapi.Video) bool {
	if video == nil || video.ProcessingDetails == nil {
		return false
	}
	status := video.ProcessingDetails.ProcessingStatus
	return status != "" && status != "processing"
}
