// Package quiz runs a single multiple-choice quiz session: question-by-question progress,
// scoring, a cancellable auto-advance after each answer, and the final result.
package quiz

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gmucodingclub/clubbot/models"
)

var (
	// ErrInvalidInput covers every broken call contract: an option out of range, a question
	// that is already answered, or an operation that is not valid in the current state.
	ErrInvalidInput = errors.New("invalid input")

	ErrNotCompleted    = fmt.Errorf("%w: quiz not completed", ErrInvalidInput)
	ErrAlreadyAnswered = fmt.Errorf("%w: question already answered", ErrInvalidInput)
	ErrStaleAnswer     = fmt.Errorf("%w: answer is for another question", ErrInvalidInput)
	ErrSessionClosed   = fmt.Errorf("%w: session closed", ErrInvalidInput)

	ErrNoQuestions = errors.New("quiz has no questions")
)

// DefaultAdvanceDelay is how long an answered question stays on screen before the next one
const DefaultAdvanceDelay = 1500 * time.Millisecond

// NoSelection marks that no option is selected for the active question
const NoSelection = -1

// Outcome of a submitted answer
type Outcome int

const (
	// Incorrect is any option other than the right answer
	Incorrect Outcome = iota
	// Correct is the right answer; it adds one to the score
	Correct
)

func (o Outcome) String() string {
	if o == Correct {
		return "correct"
	}
	return "incorrect"
}

// Session is a copy of the engine state at one point in time.
// Generation identifies the run the copy was taken from; it changes on every Restart and on Close.
type Session struct {
	Generation uint64
	Index      int
	Score      int
	Answered   []bool
	Selected   int
	Completed  bool
}

// Option configures an Engine
type Option func(*Engine)

// WithAdvanceDelay sets the pause between an answer and the next question. Zero advances immediately.
func WithAdvanceDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d < 0 {
			d = 0
		}
		e.delay = d
	}
}

// WithOnAdvance registers fn to be called after every advance with the new state.
// fn runs outside the engine lock and may call back into the engine.
func WithOnAdvance(fn func(Session)) Option {
	return func(e *Engine) {
		e.onAdvance = fn
	}
}

// Engine owns one quiz session. It is safe for concurrent use because the
// auto-advance fires on a timer goroutine.
type Engine struct {
	questions []models.Question
	delay     time.Duration
	onAdvance func(Session)

	mu         sync.Mutex
	state      Session
	generation uint64
	pending    *time.Timer
	closed     bool
}

// New starts a session at the first question
func New(questions []models.Question, opts ...Option) (*Engine, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	for i, q := range questions {
		if len(q.Answers) == 0 {
			return nil, fmt.Errorf("question %d has no answers", i+1)
		}
		if q.RightAnswer < 0 || q.RightAnswer >= len(q.Answers) {
			return nil, fmt.Errorf("question %d: right answer %d out of range", i+1, q.RightAnswer)
		}
	}

	e := &Engine{
		questions: questions,
		delay:     DefaultAdvanceDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = freshSession(len(questions))
	return e, nil
}

func freshSession(n int) Session {
	return Session{
		Answered: make([]bool, n),
		Selected: NoSelection,
	}
}

// Len returns the number of questions
func (e *Engine) Len() int {
	return len(e.questions)
}

// Question returns the question at index i
func (e *Engine) Question(i int) (models.Question, bool) {
	if i < 0 || i >= len(e.questions) {
		return models.Question{}, false
	}
	return e.questions[i], true
}

// Snapshot returns a copy of the current state
func (e *Engine) Snapshot() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Session {
	s := e.state
	s.Generation = e.generation
	s.Answered = append([]bool(nil), e.state.Answered...)
	return s
}

// Current returns the active question. It returns false once the quiz is completed.
func (e *Engine) Current() (models.Question, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Completed {
		return models.Question{}, false
	}
	return e.questions[e.state.Index], true
}

// Pending reports whether an advance is scheduled
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

// Progress is the percentage shown on the progress bar: (index+1)/N, 100 once completed
func (s Session) Progress() int {
	if s.Completed || len(s.Answered) == 0 {
		return 100
	}
	return (s.Index + 1) * 100 / len(s.Answered)
}

// SubmitAnswer answers the active question with the option at index option
func (e *Engine) SubmitAnswer(option int) (Outcome, error) {
	e.mu.Lock()
	return e.submitLocked(option)
}

// SubmitAnswerAt is SubmitAnswer for callers that rendered a specific run and question.
// An answer coming from an earlier run or question fails with ErrStaleAnswer.
func (e *Engine) SubmitAnswerAt(generation uint64, question, option int) (Outcome, error) {
	e.mu.Lock()
	if generation != e.generation || question != e.state.Index {
		e.mu.Unlock()
		return Incorrect, ErrStaleAnswer
	}
	return e.submitLocked(option)
}

// submitLocked must be called with e.mu held and releases it
func (e *Engine) submitLocked(option int) (Outcome, error) {
	if e.closed {
		e.mu.Unlock()
		return Incorrect, ErrSessionClosed
	}
	if e.state.Completed || e.state.Answered[e.state.Index] {
		e.mu.Unlock()
		return Incorrect, ErrAlreadyAnswered
	}
	q := e.questions[e.state.Index]
	if option < 0 || option >= len(q.Answers) {
		e.mu.Unlock()
		return Incorrect, fmt.Errorf("%w: option %d, question has %d", ErrInvalidInput, option, len(q.Answers))
	}

	e.state.Answered[e.state.Index] = true
	e.state.Selected = option
	outcome := Incorrect
	if option == q.RightAnswer {
		outcome = Correct
		e.state.Score++
	}

	if e.delay == 0 {
		snap := e.advanceLocked()
		e.mu.Unlock()
		e.notify(snap)
		return outcome, nil
	}

	gen := e.generation
	e.pending = time.AfterFunc(e.delay, func() { e.fire(gen) })
	e.mu.Unlock()
	return outcome, nil
}

func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	if gen != e.generation || e.closed {
		e.mu.Unlock()
		return
	}
	e.pending = nil
	if e.state.Completed || !e.state.Answered[e.state.Index] {
		e.mu.Unlock()
		return
	}
	snap := e.advanceLocked()
	e.mu.Unlock()
	e.notify(snap)
}

func (e *Engine) advanceLocked() Session {
	if e.state.Index+1 < len(e.questions) {
		e.state.Index++
		e.state.Selected = NoSelection
	} else {
		e.state.Completed = true
	}
	return e.snapshotLocked()
}

func (e *Engine) notify(s Session) {
	if e.onAdvance != nil {
		e.onAdvance(s)
	}
}

// Restart returns the session to the first question and drops any pending advance.
// It is valid in every state, including after Close.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
	e.closed = false
	e.state = freshSession(len(e.questions))
}

// Close discards the session. An advance that has not been applied yet is dropped.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
	e.closed = true
}

func (e *Engine) cancelLocked() {
	e.generation++
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
}

// Result returns the final score. It fails with ErrNotCompleted before the last advance.
func (e *Engine) Result() (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.Completed {
		return Result{}, ErrNotCompleted
	}
	return NewResult(e.state.Score, len(e.questions)), nil
}
