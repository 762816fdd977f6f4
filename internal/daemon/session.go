package daemon

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/blockyard/stagekit/internal/domain"
	"github.com/blockyard/stagekit/internal/interstitial"
	"github.com/blockyard/stagekit/internal/level"
	"github.com/blockyard/stagekit/internal/navigate"
	"github.com/blockyard/stagekit/internal/overlay"
	"github.com/blockyard/stagekit/internal/progress"
)

// Session is one learner's live level cycle: their progress, the feedback
// overlay, and the interstitial gate. All mutation goes through the session
// mutex since handlers run concurrently.
type Session struct {
	ID    string
	Level *level.Level

	mu          sync.Mutex
	Progress    *progress.LevelProgress
	Coordinator *interstitial.Coordinator
	Overlay     *overlay.Controller
	Navigator   *navigate.Navigator
	RunToken    uuid.UUID

	surface  *headlessSurface
	redirect *captureRedirector
	controls *captureControls
	shown    *interstitial.Content
	store    progress.Store
}

// headlessSurface satisfies overlay.Surface for a server-driven session. It
// records the overlay's visible state instead of touching a real DOM.
type headlessSurface struct {
	overlayVisible bool
	scrimVisible   bool
	attached       overlay.Node
	style          map[string]string
}

func (s *headlessSurface) ApplyStyle(style map[string]string) { s.style = style }
func (s *headlessSurface) Attach(content overlay.Node)        { s.attached = content }
func (s *headlessSurface) Detach(content overlay.Node)        { s.attached = nil }
func (s *headlessSurface) SetScrimVisible(visible bool)       { s.scrimVisible = visible }
func (s *headlessSurface) SetOverlayVisible(visible bool)     { s.overlayVisible = visible }
func (s *headlessSurface) ShowGhost(from, to overlay.Bounds)  {}
func (s *headlessSurface) HideGhost()                         {}

// noBounds reports no geometry, which degrades every show to a synchronous
// reveal. Morph timing belongs to browser hosts, not the daemon.
type noBounds struct{}

func (noBounds) BoundsOf(n overlay.Node) (overlay.Bounds, bool) {
	return overlay.Bounds{}, false
}

// captureRedirector records the destination instead of navigating; the
// handler returns it to the client, which performs the actual jump.
type captureRedirector struct {
	url string
}

func (r *captureRedirector) Navigate(url string) { r.url = url }

// captureControls records editor affordance toggles for the response.
type captureControls struct {
	runEnabled    bool
	resetDisabled bool
}

func (c *captureControls) EnableRun()    { c.runEnabled = true }
func (c *captureControls) DisableReset() { c.resetDisabled = true }

// dialogNode is the feedback dialog content attached to the overlay.
type dialogNode struct {
	id string
}

func (n dialogNode) ID() string { return n.id }

func newSession(lvl *level.Level, p *progress.LevelProgress, logger *slog.Logger) *Session {
	sess := &Session{
		ID:       uuid.New().String(),
		Level:    lvl,
		Progress: p,
		RunToken: uuid.New(),
		surface:  &headlessSurface{},
		redirect: &captureRedirector{},
		controls: &captureControls{},
	}

	sess.Coordinator = interstitial.New(lvl.Interstitials, lvl.Content, func(c *interstitial.Content) {
		sess.shown = c
	}, logger)

	sess.Overlay = overlay.NewController(sess.surface, noBounds{}, overlay.TimerScheduler{}, logger)
	sess.Overlay.OnHide(sess.Coordinator.CancelPending)

	sess.Navigator = navigate.NewNavigator(sess.Overlay, sess.Coordinator, sess.redirect, sess.controls, logger)
	return sess
}

// SessionManager holds live sessions keyed by id.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Add registers a session.
func (m *SessionManager) Add(sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
}

// Get returns a session by id, or ErrSessionNotFound.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return sess, nil
}

// Remove drops a session.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// blockWorkspace adapts a submitted run payload to the evaluator's workspace
// view. The generated program arrives precomputed from the block editor.
type blockWorkspace struct {
	blocks  []domain.Block
	program string
}

func (w blockWorkspace) Blocks() []domain.Block { return w.blocks }
func (w blockWorkspace) GenerateCode() string   { return w.program }
func (w blockWorkspace) RemainingCapacity() (int, bool) {
	return 0, false
}
