package catalog

import (
	"bytes"
	"io"
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

const (
	minRating = 1.0
	maxRating = 5.0
)

// Store holds the catalog behind Server.
type Store interface {
	List() []Video
	Get(id int64) (Video, error)
	// Add assigns the next ID. urlFor builds the record's dataUrl from it.
	Add(video Video, urlFor func(id int64) string) Video
	Rate(id int64, rating float64) (Video, error)
	PutData(id int64, data io.Reader) error
	OpenData(id int64) (io.ReadCloser, error)
}

type ratingTally struct {
	sum   float64
	count int
}

// MemoryStore keeps videos, ratings and payloads in memory.
type MemoryStore struct {
	nextID atomic.Int64

	mu      sync.RWMutex
	videos  map[int64]Video
	ratings map[int64]ratingTally
	data    map[int64][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		videos:  make(map[int64]Video),
		ratings: make(map[int64]ratingTally),
		data:    make(map[int64][]byte),
	}
}

// List returns all videos ordered by ID.
func (s *MemoryStore) List() []Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Video, 0, len(s.videos))
	for _, v := range s.videos {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) Get(id int64) (Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.videos[id]
	if !ok {
		return Video{}, ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Add(video Video, urlFor func(id int64) string) Video {
	id := s.nextID.Add(1)
	video.ID = id
	video.AvgRating = 0
	video.DataURL = ""
	if urlFor != nil {
		video.DataURL = urlFor(id)
	}

	s.mu.Lock()
	s.videos[id] = video
	s.mu.Unlock()
	return video
}

// Rate clamps rating to [1,5] and folds it into the video's average.
func (s *MemoryStore) Rate(id int64, rating float64) (Video, error) {
	if math.IsNaN(rating) {
		return Video{}, ErrInvalidRating
	}
	rating = math.Max(minRating, math.Min(maxRating, rating))

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[id]
	if !ok {
		return Video{}, ErrNotFound
	}
	tally := s.ratings[id]
	tally.sum += rating
	tally.count++
	s.ratings[id] = tally

	v.AvgRating = tally.sum / float64(tally.count)
	s.videos[id] = v
	return v, nil
}

func (s *MemoryStore) PutData(id int64, data io.Reader) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data[id] = payload
	s.mu.Unlock()
	return nil
}

// OpenData returns ErrNotFound for unknown videos and for videos without a
// stored payload.
func (s *MemoryStore) OpenData(id int64) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}
