package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bugpersona/pkg/persona"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultFailureMessage is shown when persona generation fails
const DefaultFailureMessage = "Ops! O servidor caiu na daily. Tente novamente."

var (
	ErrInvalidInput     = errors.New("mood words are incomplete")
	ErrBusy             = errors.New("a generation is already in progress")
	ErrGenerationFailed = errors.New("persona generation failed")
	// ErrDiscarded is returned by Submit when a reset overtook the sequence
	ErrDiscarded = errors.New("generation discarded by reset")
)

// Workflow drives one persona generation at a time through
// Idle -> GeneratingText -> GeneratingImage -> Done.
//
// All state is owned by the workflow and guarded by mu. Each sequence is
// tagged with the value of seq at dispatch; results are only applied while
// that token is still current, so a Reset makes late responses harmless.
type Workflow struct {
	text           TextGenerator
	image          ImageGenerator
	logger         *zap.Logger
	failureMessage string

	mu      sync.RWMutex
	seq     uint64
	state   State
	words   []string
	persona *persona.Persona
	img     *persona.Image
	errMsg  string
	id      string
}

type Option func(*Workflow)

func WithLogger(logger *zap.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithFailureMessage overrides the user-facing text shown on failure
func WithFailureMessage(msg string) Option {
	return func(w *Workflow) {
		if msg != "" {
			w.failureMessage = msg
		}
	}
}

func New(text TextGenerator, image ImageGenerator, opts ...Option) *Workflow {
	w := &Workflow{
		text:           text,
		image:          image,
		logger:         zap.NewNop(),
		failureMessage: DefaultFailureMessage,
		state:          Idle,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type sequence struct {
	token uint64
	words []string
	done  chan struct{}
	err   error
}

// Start validates the words and launches a generation in the background.
// The returned channel is closed once the sequence has finished, whether its
// result was applied or discarded.
func (w *Workflow) Start(words []string) (<-chan struct{}, error) {
	s, err := w.begin(words)
	if err != nil {
		return nil, err
	}
	go w.run(s)
	return s.done, nil
}

// Submit runs a generation and waits for it. The context bounds the wait
// only: the sequence keeps running if ctx ends first.
func (w *Workflow) Submit(ctx context.Context, words []string) error {
	s, err := w.begin(words)
	if err != nil {
		return err
	}
	go w.run(s)

	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Workflow) begin(words []string) (*sequence, error) {
	normalized, err := persona.NormalizeMood(words)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != Idle {
		return nil, ErrBusy
	}

	w.seq++
	w.state = GeneratingText
	w.words = normalized
	w.errMsg = ""
	w.persona = nil
	w.img = nil
	w.id = ""

	w.logger.Info("generation started",
		zap.Uint64("seq", w.seq),
		zap.Strings("words", normalized))

	return &sequence{
		token: w.seq,
		words: normalized,
		done:  make(chan struct{}),
	}, nil
}

func (w *Workflow) run(s *sequence) {
	defer close(s.done)

	// No cancellation: a reset only stops the result from being applied.
	ctx := context.Background()
	log := w.logger.With(zap.Uint64("seq", s.token))

	p, err := w.text.GeneratePersona(ctx, s.words)
	if err == nil && p == nil {
		err = errors.New("text generator returned no persona")
	}
	if err != nil {
		log.Error("persona generation failed", zap.Error(err))
		if !w.apply(s.token, func() {
			w.state = Idle
			w.errMsg = w.failureMessage
		}) {
			s.err = ErrDiscarded
			return
		}
		s.err = fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		return
	}

	id := uuid.NewString()
	if !w.apply(s.token, func() {
		w.persona = p
		w.id = id
		w.state = GeneratingImage
	}) {
		s.err = ErrDiscarded
		return
	}
	log.Info("persona generated", zap.String("id", id), zap.String("name", p.Name))

	img, err := w.image.GenerateImage(ctx, p.Appearance)
	if err == nil && (img == nil || len(img.Data) == 0) {
		err = errors.New("image generator returned no payload")
	}
	if err != nil {
		// The card is still worth showing without an illustration.
		log.Warn("image generation failed, finishing without illustration", zap.String("id", id), zap.Error(err))
		img = nil
	}

	if !w.apply(s.token, func() {
		w.img = img
		w.state = Done
	}) {
		s.err = ErrDiscarded
		return
	}
	log.Info("generation done", zap.String("id", id), zap.Bool("illustrated", img != nil))
}

// apply runs fn under the lock if token is still the current sequence
func (w *Workflow) apply(token uint64, fn func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.seq != token {
		w.logger.Debug("discarding stale result", zap.Uint64("seq", token), zap.Uint64("current", w.seq))
		return false
	}
	fn()
	return true
}

// Reset returns to Idle and clears everything derived from the last
// generation. Any in-flight result is discarded when it arrives.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	w.state = Idle
	w.words = nil
	w.persona = nil
	w.img = nil
	w.errMsg = ""
	w.id = ""
}

// DismissError clears the failure message while Idle
func (w *Workflow) DismissError() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == Idle {
		w.errMsg = ""
	}
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var words []string
	if w.words != nil {
		words = append([]string(nil), w.words...)
	}

	return Snapshot{
		State:   w.state,
		Words:   words,
		Persona: w.persona,
		Image:   w.img,
		Error:   w.errMsg,
		ID:      w.id,
		Seq:     w.seq,
	}
}
