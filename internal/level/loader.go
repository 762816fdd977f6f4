// Package level loads authored level definitions from YAML track
// directories and serves them from an in-memory registry.
package level

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/blockyard/stagekit/internal/domain"
	"github.com/blockyard/stagekit/internal/interstitial"
)

// TrackFile represents the YAML structure for a track
type TrackFile struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Skin        string   `yaml:"skin"`
	Mode        string   `yaml:"mode"`
	Levels      []string `yaml:"levels"`
}

// LevelFile represents the YAML structure for a level
type LevelFile struct {
	Number         int    `yaml:"number"`
	Name           string `yaml:"name"`
	CheckEmpty     bool   `yaml:"check_empty_blocks"`
	IdealBlocks    int    `yaml:"ideal_blocks"`
	MaxMissing     int    `yaml:"max_missing"`
	FreeBlocks     string `yaml:"free_blocks"`
	Page           string `yaml:"page"`
	Skin           string `yaml:"skin"`
	Mode           string `yaml:"mode"`
	RequiredBlocks []struct {
		ID        string `yaml:"id"`
		Literal   string `yaml:"literal"`
		BlockType string `yaml:"block_type"`
	} `yaml:"required_blocks"`
	Interstitial struct {
		Pre     bool   `yaml:"pre"`
		Post    bool   `yaml:"post"`
		Message string `yaml:"message"`
		Video   string `yaml:"video"`
		Quiz    *struct {
			Question string `yaml:"question"`
			Options  []struct {
				Text    string `yaml:"text"`
				Correct bool   `yaml:"correct"`
			} `yaml:"options"`
		} `yaml:"quiz"`
	} `yaml:"interstitial"`
}

// Loader handles loading tracks and levels from YAML files
type Loader struct {
	basePath string
}

// NewLoader creates a new level loader
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// LoadTrack loads a track definition from a directory
func (l *Loader) LoadTrack(trackID string) (*Track, error) {
	trackPath := filepath.Join(l.basePath, trackID, "track.yaml")

	data, err := os.ReadFile(trackPath)
	if err != nil {
		return nil, fmt.Errorf("read track file: %w", err)
	}

	var trackFile TrackFile
	if err := yaml.Unmarshal(data, &trackFile); err != nil {
		return nil, fmt.Errorf("parse track file: %w", err)
	}

	return &Track{
		ID:          trackFile.ID,
		Name:        trackFile.Name,
		Description: trackFile.Description,
		MaxLevel:    len(trackFile.Levels),
		Skin:        trackFile.Skin,
		Mode:        trackFile.Mode,
	}, nil
}

// LoadLevel loads a single level from a YAML file
func (l *Loader) LoadLevel(trackID, slug string) (*Level, error) {
	levelPath := filepath.Join(l.basePath, trackID, slug+".yaml")

	data, err := os.ReadFile(levelPath)
	if err != nil {
		return nil, fmt.Errorf("read level file: %w", err)
	}

	var levelFile LevelFile
	if err := yaml.Unmarshal(data, &levelFile); err != nil {
		return nil, fmt.Errorf("parse level file: %w", err)
	}

	lvl := &Level{
		Track:  trackID,
		Number: levelFile.Number,
		Name:   levelFile.Name,
		Page:   levelFile.Page,
		Skin:   levelFile.Skin,
		Mode:   levelFile.Mode,
		Eval: domain.EvalConfig{
			CheckEmptyBlocks: levelFile.CheckEmpty,
			MaxMissing:       levelFile.MaxMissing,
			IdealBlockCount:  levelFile.IdealBlocks,
		},
	}

	if levelFile.FreeBlocks != "" {
		// Authored config degrades: a bad pattern costs the free-block
		// exemption, not the level.
		free, err := regexp.Compile(levelFile.FreeBlocks)
		if err != nil {
			slog.Warn("invalid free_blocks pattern ignored",
				"track", trackID, "level", slug, "error", err)
		} else {
			lvl.Eval.FreeBlocks = free
		}
	}

	lvl.Eval.RequiredBlocks = make([]domain.RequiredBlockSpec, 0, len(levelFile.RequiredBlocks))
	for _, rb := range levelFile.RequiredBlocks {
		spec := domain.RequiredBlockSpec{ID: rb.ID, Literal: rb.Literal}
		if rb.BlockType != "" {
			spec.Test = domain.TypePredicate(rb.BlockType)
		}
		lvl.Eval.RequiredBlocks = append(lvl.Eval.RequiredBlocks, spec)
	}

	if levelFile.Interstitial.Pre {
		lvl.Interstitials |= interstitial.FlagPre
	}
	if levelFile.Interstitial.Post {
		lvl.Interstitials |= interstitial.FlagPost
	}

	if levelFile.Interstitial.Message != "" || levelFile.Interstitial.Video != "" || levelFile.Interstitial.Quiz != nil {
		content := &interstitial.Content{
			Message: levelFile.Interstitial.Message,
			VideoID: levelFile.Interstitial.Video,
		}
		if q := levelFile.Interstitial.Quiz; q != nil {
			quiz := &interstitial.Quiz{Question: q.Question}
			for _, opt := range q.Options {
				quiz.Options = append(quiz.Options, interstitial.QuizOption{
					Text:    opt.Text,
					Correct: opt.Correct,
				})
			}
			content.Quiz = quiz
		}
		lvl.Content = content
	}

	return lvl, nil
}

// LoadTrackLevels loads all levels for a track in declaration order
func (l *Loader) LoadTrackLevels(trackID string) ([]*Level, error) {
	trackPath := filepath.Join(l.basePath, trackID, "track.yaml")

	data, err := os.ReadFile(trackPath)
	if err != nil {
		return nil, fmt.Errorf("read track file: %w", err)
	}

	var trackFile TrackFile
	if err := yaml.Unmarshal(data, &trackFile); err != nil {
		return nil, fmt.Errorf("parse track file: %w", err)
	}

	levels := make([]*Level, 0, len(trackFile.Levels))
	for _, slug := range trackFile.Levels {
		lvl, err := l.LoadLevel(trackID, slug)
		if err != nil {
			return nil, fmt.Errorf("load level %s/%s: %w", trackID, slug, err)
		}
		levels = append(levels, lvl)
	}
	return levels, nil
}

// LoadAllTracks loads every track directory under the base path
func (l *Loader) LoadAllTracks() ([]*Track, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("read levels directory: %w", err)
	}

	var tracks []*Track
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		trackPath := filepath.Join(l.basePath, entry.Name(), "track.yaml")
		if _, err := os.Stat(trackPath); os.IsNotExist(err) {
			continue
		}

		track, err := l.LoadTrack(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("load track %s: %w", entry.Name(), err)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}
