package interstitial

import (
	"errors"
	"testing"

	"github.com/blockyard/stagekit/internal/domain"
)

func TestCoordinator_PreGateShowsOnPageReady(t *testing.T) {
	shown := 0
	c := New(FlagPre, &Content{Message: "read this first"}, func(*Content) { shown++ }, nil)

	c.PageReady()

	if c.State() != StatePreShown {
		t.Fatalf("state = %s, want pre_shown", c.State())
	}
	if shown != 1 {
		t.Errorf("content shown %d times, want 1", shown)
	}
	if !c.GatePending() {
		t.Error("gate not pending while pre content shown")
	}
}

func TestCoordinator_PreGateSkippedWithoutFlag(t *testing.T) {
	c := New(FlagNone, &Content{Message: "hint"}, nil, nil)

	c.PageReady()

	if c.State() != StateHidden {
		t.Errorf("state = %s, want hidden", c.State())
	}
}

func TestCoordinator_PreGateSkippedAfterRun(t *testing.T) {
	c := New(FlagPre, &Content{Message: "hint"}, nil, nil)

	c.RunStarted()
	c.PageReady()

	if c.State() != StateHidden {
		t.Errorf("state = %s, want hidden after a run occurred", c.State())
	}
}

func TestCoordinator_AdvanceRefusedWhilePreShown(t *testing.T) {
	shown := 0
	c := New(FlagPre, &Content{Message: "hint"}, func(*Content) { shown++ }, nil)

	c.PageReady()
	if c.RequestAdvance() {
		t.Fatal("advance allowed while pre content shown")
	}
	if shown != 2 {
		t.Errorf("content shown %d times, want redisplay on refused advance", shown)
	}
}

func TestCoordinator_QuizFlow(t *testing.T) {
	// Scenario: POST flag set, level completed, quiz present. A wrong answer
	// keeps continue disabled; the following right answer enables it.
	content := &Content{
		Message: "quick check",
		Quiz: &Quiz{
			Question: "how many sides does a square have?",
			Options: []QuizOption{
				{Text: "3"},
				{Text: "4", Correct: true},
			},
		},
	}
	c := New(FlagPost, content, nil, nil)

	c.RunStarted()
	c.LevelCompleted()
	if !c.GatePending() {
		t.Fatal("gate not armed after completion with POST flag")
	}

	c.ShowPending()
	if c.State() != StateQuizPending {
		t.Fatalf("state = %s, want quiz_pending", c.State())
	}

	correct, err := c.AnswerQuiz(VerdictWrong)
	if err != nil {
		t.Fatalf("wrong answer returned error: %v", err)
	}
	if correct {
		t.Error("wrong answer reported correct")
	}
	if c.ContinueEnabled() {
		t.Error("continue enabled after wrong answer")
	}
	if !c.LastAnswerWrong() {
		t.Error("wrong answer not flagged for recoloring")
	}

	correct, err = c.AnswerQuiz(VerdictRight)
	if err != nil {
		t.Fatalf("right answer returned error: %v", err)
	}
	if !correct {
		t.Error("right answer reported incorrect")
	}
	if c.State() != StateQuizResolved {
		t.Errorf("state = %s, want quiz_resolved", c.State())
	}
	if !c.ContinueEnabled() {
		t.Error("continue not enabled after right answer")
	}
}

func TestCoordinator_MalformedQuizResponseIsFatal(t *testing.T) {
	c := New(FlagPost, &Content{Quiz: &Quiz{}}, nil, nil)
	c.LevelCompleted()
	c.ShowPending()

	_, err := c.AnswerQuiz("maybe")
	if !errors.Is(err, domain.ErrMalformedQuizResponse) {
		t.Fatalf("err = %v, want ErrMalformedQuizResponse", err)
	}
}

func TestCoordinator_AdvanceShowsArmedContent(t *testing.T) {
	shown := 0
	c := New(FlagPost, &Content{Message: "watch this"}, func(*Content) { shown++ }, nil)

	c.LevelCompleted()
	if c.RequestAdvance() {
		t.Fatal("advance allowed with armed gating content")
	}
	if shown != 1 {
		t.Errorf("armed content shown %d times, want 1", shown)
	}

	// No quiz: content was shown, gate satisfied, next attempt proceeds.
	c.Dismiss()
	if !c.RequestAdvance() {
		t.Error("advance refused after gating content dismissed")
	}
}

func TestCoordinator_CancelPendingDropsArmedContent(t *testing.T) {
	c := New(FlagPost, &Content{Message: "watch this"}, nil, nil)

	c.LevelCompleted()
	c.CancelPending()

	if c.GatePending() {
		t.Error("gate still pending after cancel")
	}
	if !c.RequestAdvance() {
		t.Error("advance refused after pending content cancelled")
	}
}

func TestCoordinator_BlankContentDoesNotGate(t *testing.T) {
	c := New(FlagPre|FlagPost, &Content{Message: "   "}, nil, nil)

	c.PageReady()
	if c.State() != StateHidden {
		t.Error("blank pre content gated")
	}

	c.LevelCompleted()
	if c.GatePending() {
		t.Error("blank post content armed the gate")
	}
}

func TestContent_VideoURL(t *testing.T) {
	c := &Content{VideoID: "abc123"}
	want := "https://videos.blockyard.dev/embed/abc123"
	if got := c.VideoURL(); got != want {
		t.Errorf("VideoURL() = %q, want %q", got, want)
	}

	var empty *Content
	if got := empty.VideoURL(); got != "" {
		t.Errorf("nil content VideoURL() = %q, want empty", got)
	}
}
