// Package interstitial gates level progression on auxiliary content: hint
// bubbles shown before a level, and post-completion hints, quizzes and
// videos shown before the learner may continue.
package interstitial

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/blockyard/stagekit/internal/domain"
)

// Flags is the per-level interstitial configuration bitmask.
type Flags int

const (
	FlagNone Flags = 0
	FlagPre  Flags = 1 << 0
	FlagPost Flags = 1 << 1
)

// Has reports whether all given flags are set
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// State is the coordinator's position in the gating lifecycle.
type State int

const (
	StateHidden State = iota
	StatePreShown
	StatePostShown
	StateQuizPending
	StateQuizResolved
)

// String returns a human-readable name for the state
func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StatePreShown:
		return "pre_shown"
	case StatePostShown:
		return "post_shown"
	case StateQuizPending:
		return "quiz_pending"
	case StateQuizResolved:
		return "quiz_resolved"
	default:
		return "unknown"
	}
}

// Quiz verdict values carried in authored markup.
const (
	VerdictRight = "right"
	VerdictWrong = "wrong"
)

// videoURLTemplate binds an opaque video identifier to its presentation
// surface. No other handling of video content happens here.
const videoURLTemplate = "https://videos.blockyard.dev/embed/%s"

// QuizOption is one selectable quiz answer.
type QuizOption struct {
	Text    string
	Correct bool
}

// Quiz is an authored multiple-choice question shown post-completion.
type Quiz struct {
	Question string
	Options  []QuizOption
}

// Content is the authored interstitial payload for a level.
type Content struct {
	Message string
	Quiz    *Quiz
	VideoID string
}

// HasMessage reports whether the content carries non-blank auxiliary text.
func (c *Content) HasMessage() bool {
	return c != nil && strings.TrimSpace(c.Message) != ""
}

// HasQuiz reports whether a quiz affordance is present
func (c *Content) HasQuiz() bool {
	return c != nil && c.Quiz != nil
}

// VideoURL returns the embed address for the content's video, or empty.
func (c *Content) VideoURL() string {
	if c == nil || c.VideoID == "" {
		return ""
	}
	return fmt.Sprintf(videoURLTemplate, c.VideoID)
}

// Coordinator decides whether gating content must be shown before the
// learner proceeds, and holds the quiz-resolution state machine.
type Coordinator struct {
	flags   Flags
	content *Content
	display func(*Content)
	logger  *slog.Logger

	state     State
	ranOnce   bool
	pending   bool
	lastWrong bool
}

// New creates a coordinator for one level cycle. display is invoked whenever
// gating content must be (re)shown.
func New(flags Flags, content *Content, display func(*Content), logger *slog.Logger) *Coordinator {
	if display == nil {
		display = func(*Content) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		flags:   flags,
		content: content,
		display: display,
		logger:  logger,
		state:   StateHidden,
	}
}

// State returns the current gating state.
func (c *Coordinator) State() State {
	return c.state
}

// PageReady shows pre-level content before the learner may interact with
// feedback. It only fires when the PRE flag is set and no run has occurred.
func (c *Coordinator) PageReady() {
	if !c.flags.Has(FlagPre) || c.ranOnce || !c.content.HasMessage() {
		return
	}
	c.state = StatePreShown
	c.display(c.content)
}

// RunStarted records that a run occurred, which retires the pre-level gate.
func (c *Coordinator) RunStarted() {
	c.ranOnce = true
	if c.state == StatePreShown {
		c.state = StateHidden
	}
}

// LevelCompleted arms the post-completion gate. The content is not displayed
// yet; it surfaces on the next advancement attempt or an explicit
// ShowPending, and a Hide of the feedback overlay cancels it for this cycle.
func (c *Coordinator) LevelCompleted() {
	if !c.flags.Has(FlagPost) {
		return
	}
	if !c.content.HasMessage() && !c.content.HasQuiz() {
		return
	}
	c.pending = true
}

// ShowPending displays armed post-completion content, transitioning into
// QuizPending when a quiz affordance is present.
func (c *Coordinator) ShowPending() {
	if !c.pending {
		return
	}
	c.pending = false
	c.state = StatePostShown
	if c.content.HasQuiz() {
		c.state = StateQuizPending
		c.lastWrong = false
	}
	c.display(c.content)
}

// CancelPending drops any armed gating content for this cycle. The overlay
// controller calls this on every hide.
func (c *Coordinator) CancelPending() {
	c.pending = false
}

// GatePending reports whether advancement is currently refused.
func (c *Coordinator) GatePending() bool {
	return c.pending || c.state == StatePreShown || c.state == StateQuizPending
}

// ContinueEnabled reports whether the continue affordance is active.
func (c *Coordinator) ContinueEnabled() bool {
	return !c.GatePending()
}

// RequestAdvance arbitrates an advancement attempt. When gating content is
// pending the attempt is refused and redirected into displaying the content
// again; the caller must not navigate.
func (c *Coordinator) RequestAdvance() bool {
	if c.pending {
		c.ShowPending()
		return false
	}
	if c.state == StatePreShown || c.state == StateQuizPending {
		c.display(c.content)
		return false
	}
	return true
}

// AnswerQuiz consumes a quiz response. Wrong answers keep the gate closed
// and flag the feedback for recoloring; a correct answer resolves the quiz
// and enables continue. Any other verdict is corrupted markup and fails
// loudly so it is caught during level authoring.
func (c *Coordinator) AnswerQuiz(verdict string) (correct bool, err error) {
	if c.state != StateQuizPending {
		return false, nil
	}
	switch verdict {
	case VerdictRight:
		c.state = StateQuizResolved
		c.lastWrong = false
		return true, nil
	case VerdictWrong:
		c.lastWrong = true
		return false, nil
	default:
		c.logger.Error("quiz markup produced unrecognized verdict", "verdict", verdict)
		return false, fmt.Errorf("%w: %q", domain.ErrMalformedQuizResponse, verdict)
	}
}

// LastAnswerWrong reports whether the most recent quiz answer was wrong,
// which recolors the feedback text.
func (c *Coordinator) LastAnswerWrong() bool {
	return c.lastWrong
}

// Dismiss closes shown content that no longer gates: post content without an
// unresolved quiz, or a resolved quiz.
func (c *Coordinator) Dismiss() {
	switch c.state {
	case StatePostShown, StateQuizResolved:
		c.state = StateHidden
	}
}
