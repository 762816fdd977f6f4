package level

import (
	"fmt"
	"sync"

	"github.com/blockyard/stagekit/internal/domain"
)

// Registry provides access to loaded tracks and levels
type Registry struct {
	loader *Loader
	mu     sync.RWMutex
	tracks map[string]*Track
	levels map[string][]*Level
	loaded bool
}

// NewRegistry creates a new level registry
func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		loader: loader,
		tracks: make(map[string]*Track),
		levels: make(map[string][]*Level),
	}
}

// Load loads all tracks and their levels into memory
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tracks, err := r.loader.LoadAllTracks()
	if err != nil {
		return fmt.Errorf("load tracks: %w", err)
	}

	for _, track := range tracks {
		levels, err := r.loader.LoadTrackLevels(track.ID)
		if err != nil {
			return fmt.Errorf("load levels for track %s: %w", track.ID, err)
		}
		r.tracks[track.ID] = track
		r.levels[track.ID] = levels
	}

	r.loaded = true
	return nil
}

// Reload reloads all tracks (useful for development)
func (r *Registry) Reload() error {
	r.mu.Lock()
	r.tracks = make(map[string]*Track)
	r.levels = make(map[string][]*Level)
	r.loaded = false
	r.mu.Unlock()

	return r.Load()
}

// GetTrack returns a track by ID
func (r *Registry) GetTrack(id string) (*Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	track, ok := r.tracks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTrackNotFound, id)
	}
	return track, nil
}

// GetLevel returns a level by track and level number
func (r *Registry) GetLevel(trackID string, number int) (*Level, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	levels, ok := r.levels[trackID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTrackNotFound, trackID)
	}
	for _, lvl := range levels {
		if lvl.Number == number {
			return lvl, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%d", domain.ErrLevelNotFound, trackID, number)
}

// ListTracks returns all loaded tracks
func (r *Registry) ListTracks() []*Track {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tracks := make([]*Track, 0, len(r.tracks))
	for _, track := range r.tracks {
		tracks = append(tracks, track)
	}
	return tracks
}

// ListLevels returns all levels for a track in order
func (r *Registry) ListLevels(trackID string) ([]*Level, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	levels, ok := r.levels[trackID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTrackNotFound, trackID)
	}
	return levels, nil
}
