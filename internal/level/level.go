package level

import (
	"github.com/blockyard/stagekit/internal/domain"
	"github.com/blockyard/stagekit/internal/interstitial"
)

// Level is one authored level within a track: pass criteria, interstitial
// content, and navigation parameters.
type Level struct {
	Track  string
	Number int
	Name   string

	Eval domain.EvalConfig

	Interstitials interstitial.Flags
	Content       *interstitial.Content

	// Navigation parameters forwarded into the next-level URL.
	Page string
	Skin string
	Mode string
}

// Track groups an ordered run of levels sharing defaults.
type Track struct {
	ID          string
	Name        string
	Description string
	MaxLevel    int
	Skin        string
	Mode        string
}
