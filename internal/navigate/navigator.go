// Package navigate owns confirmed level advancement: constructing the
// next-level address and performing the navigation, plus the try-again
// reset path.
package navigate

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/blockyard/stagekit/internal/overlay"
	"github.com/blockyard/stagekit/internal/progress"
)

// Redirector performs the browser navigation side effect.
type Redirector interface {
	Navigate(url string)
}

// EditorControls toggles the run/reset affordances in the block editor.
type EditorControls interface {
	EnableRun()
	DisableReset()
}

// Gate arbitrates advancement; satisfied by interstitial.Coordinator.
type Gate interface {
	RequestAdvance() bool
}

// Navigator executes level transitions once the feedback cycle settles.
type Navigator struct {
	overlay  *overlay.Controller
	gate     Gate
	redirect Redirector
	controls EditorControls
	logger   *slog.Logger
}

// NewNavigator creates a navigator
func NewNavigator(ctrl *overlay.Controller, gate Gate, redirect Redirector, controls EditorControls, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		overlay:  ctrl,
		gate:     gate,
		redirect: redirect,
		controls: controls,
		logger:   logger,
	}
}

// AdvanceOrReset resolves the learner's choice in the feedback dialog. A
// reset closes the overlay with animation and leaves the editor state intact
// for another attempt. An advance first defers to the interstitial gate;
// once clear it closes the overlay without animation and navigates to the
// next destination.
func (n *Navigator) AdvanceOrReset(advance bool, p *progress.LevelProgress) {
	if !advance {
		n.overlay.Hide(true)
		if n.controls != nil {
			n.controls.EnableRun()
			n.controls.DisableReset()
		}
		return
	}

	if n.gate != nil && !n.gate.RequestAdvance() {
		n.logger.Debug("advance deferred to gating content", "track", p.Track, "level", p.Level)
		return
	}

	n.overlay.Hide(false)
	dest := NextLevelURL(p)
	n.logger.Info("advancing level", "track", p.Track, "from", p.Level, "to", dest)
	n.redirect.Navigate(dest)
}

// NextLevelURL constructs the next-level address. A server-supplied redirect
// overrides everything, including the level-increment arithmetic, so a
// hosting service can steer adaptive-learning flows. Otherwise the address
// is same-origin and same-path:
//
//	<origin><path>?lang=<lang>[&page=<page>]&level=<n+1>[&skin=<id>]|[&reinf=1][&mode=<mode>]
//
// The page parameter is omitted when falsy; the skin parameter appears only
// when a skin is configured, else the legacy reinf=1 marker is appended; the
// mode parameter appears only when configured.
func NextLevelURL(p *progress.LevelProgress) string {
	if p.RedirectURL != "" {
		return p.RedirectURL
	}

	var b strings.Builder
	b.WriteString(p.Origin)
	b.WriteString(p.Path)
	b.WriteString("?lang=")
	b.WriteString(url.QueryEscape(p.Lang))
	if p.Page != "" && p.Page != "0" {
		b.WriteString("&page=")
		b.WriteString(url.QueryEscape(p.Page))
	}
	fmt.Fprintf(&b, "&level=%d", p.Level+1)
	if p.Skin != "" {
		b.WriteString("&skin=")
		b.WriteString(url.QueryEscape(p.Skin))
	} else {
		b.WriteString("&reinf=1")
	}
	if p.Mode != "" {
		b.WriteString("&mode=")
		b.WriteString(url.QueryEscape(p.Mode))
	}
	return b.String()
}
