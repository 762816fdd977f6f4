package overlay

import (
	"log/slog"
	"time"
)

// morphDuration is the fixed slide/morph animation time between the trigger
// element's bounds and the overlay bounds.
const morphDuration = 175 * time.Millisecond

// Surface is the rendering collaborator the controller drives. A browser
// host toggles real element visibility; tests record the calls.
type Surface interface {
	// ApplyStyle sets style attributes on the overlay container.
	ApplyStyle(style map[string]string)

	// Attach places content into the overlay container.
	Attach(content Node)

	// Detach removes content from the overlay and returns it to the hidden
	// holding area, preserving node identity.
	Detach(content Node)

	// SetScrimVisible fades the full-screen modal scrim in or out.
	SetScrimVisible(visible bool)

	// SetOverlayVisible reveals or hides the overlay container.
	SetOverlayVisible(visible bool)

	// ShowGhost displays the transient morphing border at from, targeting to.
	ShowGhost(from, to Bounds)

	// HideGhost removes the morphing border.
	HideGhost()
}

// Key is a keyboard input the controller may consume while visible.
type Key int

const (
	KeyConfirm Key = iota
	KeyCancel
	KeySpace
)

// ShowOptions control the presentation of one overlay session.
type ShowOptions struct {
	// Animate morphs a ghost border from the origin to the overlay. It has
	// no effect when the origin node is nil.
	Animate bool

	// Modal fades in a full-screen scrim behind the overlay.
	Modal bool

	// Style attributes applied to the overlay container.
	Style map[string]string

	// OnDispose runs exactly once when the session closes.
	OnDispose func()
}

// session is one open-to-close overlay lifecycle. At most one session is
// live at a time; the controller owns it exclusively.
type session struct {
	content Node
	origin  Node // nil disables animation
	dispose func()
	visible bool
}

// Controller is the generic modal-overlay primitive: show/hide with optional
// morph animation, mutual exclusion, and a disposal-callback contract.
type Controller struct {
	surface Surface
	bounds  BoundsProvider
	sched   Scheduler
	logger  *slog.Logger

	sess        *session
	cancelMorph func()
	finalize    func()
	hideHooks   []func()
}

// NewController creates an overlay controller driving the given surface.
func NewController(surface Surface, bounds BoundsProvider, sched Scheduler, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		surface: surface,
		bounds:  bounds,
		sched:   sched,
		logger:  logger,
	}
}

// OnHide registers a hook invoked on every hide, before the surface effects.
// The interstitial coordinator uses this to cancel pending gating content.
func (c *Controller) OnHide(fn func()) {
	c.hideHooks = append(c.hideHooks, fn)
}

// IsVisible reports whether a session is between a completed Show and its
// matching Hide. It is false during a morph transition.
func (c *Controller) IsVisible() bool {
	return c.sess != nil && c.sess.visible
}

// Content returns the currently attached content node, or nil.
func (c *Controller) Content() Node {
	if c.sess == nil {
		return nil
	}
	return c.sess.content
}

// Show opens a new overlay session. If a session is already active it is
// force-closed without animation first. With Animate and a non-nil origin,
// a ghost border morphs from the origin's bounds to the overlay's bounds and
// the final overlay is revealed after the morph completes; otherwise the
// final state applies synchronously.
func (c *Controller) Show(content Node, origin Node, opts ShowOptions) {
	// A request landing inside a transition window applies its end state
	// outright; animations never queue.
	if c.settle() {
		opts.Animate = false
	}
	if c.sess != nil {
		c.Hide(false)
	}

	sess := &session{
		content: content,
		origin:  origin,
		dispose: opts.OnDispose,
	}
	c.sess = sess

	if opts.Style != nil {
		c.surface.ApplyStyle(opts.Style)
	}
	c.surface.Attach(content)
	if opts.Modal {
		c.surface.SetScrimVisible(true)
	}

	if opts.Animate && origin != nil {
		from, fromOK := c.bounds.BoundsOf(origin)
		to, toOK := c.bounds.BoundsOf(content)
		if fromOK && toOK {
			c.surface.ShowGhost(from, to)
			reveal := func() {
				c.surface.HideGhost()
				c.surface.SetOverlayVisible(true)
				sess.visible = true
			}
			c.finalize = reveal
			c.cancelMorph = c.sched.After(morphDuration, func() {
				c.cancelMorph = nil
				c.finalize = nil
				reveal()
			})
			return
		}
		// Missing geometry degrades to a synchronous reveal.
		c.logger.Debug("overlay bounds unavailable, skipping morph", "content", content.ID())
	}

	c.surface.SetOverlayVisible(true)
	sess.visible = true
}

// Hide closes the active session. It is a no-op when no session is active,
// making a second Hide idempotent. The disposal callback fires exactly once,
// strictly before the session is cleared. With animate and a recorded origin
// the ghost border reverse-morphs to the origin before the scrim drops;
// otherwise everything hides immediately. Content is detached back to the
// hidden holding area either way.
func (c *Controller) Hide(animate bool) {
	if c.settle() {
		animate = false
	}

	sess := c.sess
	if sess == nil {
		return
	}

	if sess.dispose != nil {
		dispose := sess.dispose
		sess.dispose = nil
		dispose()
	}
	for _, fn := range c.hideHooks {
		fn()
	}

	finish := func() {
		c.surface.HideGhost()
		c.surface.SetOverlayVisible(false)
		c.surface.SetScrimVisible(false)
		c.surface.Detach(sess.content)
	}

	if animate && sess.origin != nil && sess.visible {
		from, fromOK := c.bounds.BoundsOf(sess.content)
		to, toOK := c.bounds.BoundsOf(sess.origin)
		if fromOK && toOK {
			sess.visible = false
			c.sess = nil
			c.surface.SetOverlayVisible(false)
			c.surface.ShowGhost(from, to)
			c.finalize = finish
			c.cancelMorph = c.sched.After(morphDuration, func() {
				c.cancelMorph = nil
				c.finalize = nil
				finish()
			})
			return
		}
	}

	sess.visible = false
	c.sess = nil
	finish()
}

// HandleKey consumes a dismissal key while a session is visible. The caller
// attaches its key listener only while visible, so stale sessions never see
// input; this check backs that contract.
func (c *Controller) HandleKey(k Key) bool {
	if !c.IsVisible() {
		return false
	}
	switch k {
	case KeyConfirm, KeyCancel, KeySpace:
		c.Hide(true)
		return true
	}
	return false
}

// settle cancels an in-flight morph and applies its end state outright,
// reporting whether a morph was interrupted. A Show or Hide arriving inside
// the 175ms transition window must not queue behind the animation.
func (c *Controller) settle() bool {
	if c.cancelMorph == nil {
		return false
	}
	c.cancelMorph()
	c.cancelMorph = nil
	if c.finalize != nil {
		fn := c.finalize
		c.finalize = nil
		fn()
	}
	return true
}
