// Package workflow implements the query-to-case-record lifecycle: submit a
// free-text query, normalize the inference answer into a draft case record,
// let the caller review and edit it, then save or discard it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ppiankov/lawai/internal/model"
	"github.com/ppiankov/lawai/internal/normalize"
)

// Inferer maps a query to a raw inference payload
type Inferer interface {
	Infer(ctx context.Context, query string) ([]byte, error)
}

// CaseSaver persists a case record and returns it with its assigned id
type CaseSaver interface {
	SaveCase(ctx context.Context, rec model.CaseRecord) (model.CaseRecord, error)
}

// TransitionFunc observes state changes. It runs with the workflow lock held
// and must not call back into the workflow.
type TransitionFunc func(from, to State)

// Option configures a Workflow
type Option func(*Workflow)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithNormalizer replaces the default normalizer
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(w *Workflow) {
		if n != nil {
			w.normalizer = n
		}
	}
}

// WithTransitionObserver registers fn for every state change
func WithTransitionObserver(fn TransitionFunc) Option {
	return func(w *Workflow) { w.observer = fn }
}

// WithRejectEmptyQuery makes SubmitQuery refuse blank queries
func WithRejectEmptyQuery(reject bool) Option {
	return func(w *Workflow) { w.rejectEmpty = reject }
}

// Workflow is a single query-to-case-record cycle. It is safe for
// concurrent use but allows one inference call and one save at a time.
type Workflow struct {
	inferer     Inferer
	store       CaseSaver
	normalizer  *normalize.Normalizer
	logger      *zap.Logger
	observer    TransitionFunc
	rejectEmpty bool

	// lifetime is cancelled by Close and aborts any in-flight call
	lifetime context.Context
	cancel   context.CancelFunc

	mu        sync.Mutex
	state     State
	answer    model.Answer
	hasAnswer bool
	draft     model.CaseRecord
	hasDraft  bool
	saving    bool
	closed    bool
	lastErr   error
}

// New creates a workflow in the Idle state. store may be nil when drafts
// are never saved.
func New(inferer Inferer, store CaseSaver, opts ...Option) *Workflow {
	lifetime, cancel := context.WithCancel(context.Background())
	w := &Workflow{
		inferer:    inferer,
		store:      store,
		normalizer: normalize.New(false),
		logger:     zap.NewNop(),
		lifetime:   lifetime,
		cancel:     cancel,
		state:      Idle,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SubmitQuery sends text to the inference service and derives a draft.
//
// A malformed payload still moves the workflow to Answered with a FreeText
// draft; the returned answer is usable and the error wraps
// ErrMalformedResponse. Transport failures move through Failed back to Idle
// and wrap ErrNetwork.
func (w *Workflow) SubmitQuery(ctx context.Context, text string) (model.Answer, error) {
	w.mu.Lock()
	switch {
	case w.closed:
		w.mu.Unlock()
		return model.Answer{}, ErrClosed
	case w.state == Submitting:
		w.mu.Unlock()
		return model.Answer{}, ErrConcurrentSubmission
	case w.saving || !w.state.canSubmit():
		state := w.state
		w.mu.Unlock()
		return model.Answer{}, fmt.Errorf("%w: cannot submit while %s", ErrInvalidState, state)
	case w.rejectEmpty && strings.TrimSpace(text) == "":
		w.mu.Unlock()
		return model.Answer{}, ErrEmptyQuery
	}

	w.answer, w.hasAnswer = model.Answer{}, false
	w.draft, w.hasDraft = model.CaseRecord{}, false
	w.lastErr = nil
	w.transition(Submitting)
	w.mu.Unlock()

	reqCtx, cancel := w.requestContext(ctx)
	defer cancel()

	payload, err := w.inferer.Infer(reqCtx, text)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err == nil && w.closed {
		err = context.Canceled
	}
	if err != nil {
		if w.closed {
			err = fmt.Errorf("%w: %w: %w", ErrClosed, ErrNetwork, err)
		} else {
			err = fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		w.lastErr = err
		w.logger.Warn("inference failed", zap.Error(err))
		w.transition(Failed)
		w.transition(Idle)
		return model.Answer{}, err
	}

	answer, parseErr := w.normalizer.Parse(text, payload)
	w.answer, w.hasAnswer = answer, true
	w.draft, w.hasDraft = normalize.Derive(answer), true
	w.transition(Answered)

	w.logger.Debug("inference answered",
		zap.Stringer("kind", answer.Response.Kind()),
		zap.String("heading", w.draft.CaseHeading),
	)

	if parseErr != nil {
		err = fmt.Errorf("%w: %w", ErrMalformedResponse, parseErr)
		w.lastErr = err
		w.logger.Warn("inference payload not recognized, using free text", zap.Error(parseErr))
		return answer, err
	}
	return answer, nil
}

// Review makes the draft editable
func (w *Workflow) Review() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkOpen(); err != nil {
		return err
	}
	switch w.state {
	case Reviewing:
		return nil
	case Answered:
		w.transition(Reviewing)
		return nil
	default:
		return fmt.Errorf("%w: cannot review while %s", ErrInvalidState, w.state)
	}
}

// AddTag trims tag and adds it unless it is empty or already present.
// Returns true if the tag set changed.
func (w *Workflow) AddTag(tag string) (bool, error) {
	var changed bool
	err := w.edit(func(d *model.CaseRecord) { changed = d.Tags.Add(tag) })
	return changed, err
}

// RemoveTag removes the tag at index. Out-of-range indices are a no-op.
func (w *Workflow) RemoveTag(index int) (bool, error) {
	var changed bool
	err := w.edit(func(d *model.CaseRecord) { changed = d.Tags.Remove(index) })
	return changed, err
}

// SetHeading replaces the case heading
func (w *Workflow) SetHeading(heading string) error {
	return w.edit(func(d *model.CaseRecord) { d.CaseHeading = heading })
}

// SetQuery replaces the recorded query text. The answer is not re-derived.
func (w *Workflow) SetQuery(query string) error {
	return w.edit(func(d *model.CaseRecord) { d.Query = query })
}

// SetDescription replaces both the description and the applicable article
func (w *Workflow) SetDescription(description string) error {
	return w.edit(func(d *model.CaseRecord) {
		d.Description = description
		d.ApplicableArticle = description
	})
}

// SetStatus replaces the case status
func (w *Workflow) SetStatus(status model.CaseStatus) error {
	return w.edit(func(d *model.CaseRecord) { d.Status = status })
}

// edit applies fn to the draft; only allowed in Reviewing with no save in flight
func (w *Workflow) edit(fn func(*model.CaseRecord)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkOpen(); err != nil {
		return err
	}
	if w.state != Reviewing || !w.hasDraft {
		return fmt.Errorf("%w: cannot edit while %s", ErrInvalidState, w.state)
	}
	if w.saving {
		return fmt.Errorf("%w: save in progress", ErrInvalidState)
	}
	fn(&w.draft)
	return nil
}

// SaveDraft sends the draft to the case store.
//
// On success the workflow moves to Saved and the draft is released. On
// failure it stays in Reviewing with the draft untouched; the caller may
// retry. Nothing is retried automatically.
func (w *Workflow) SaveDraft(ctx context.Context) (model.CaseRecord, error) {
	w.mu.Lock()
	switch {
	case w.closed:
		w.mu.Unlock()
		return model.CaseRecord{}, ErrClosed
	case w.saving:
		w.mu.Unlock()
		return model.CaseRecord{}, ErrConcurrentSubmission
	case w.state != Reviewing || !w.hasDraft:
		state := w.state
		w.mu.Unlock()
		return model.CaseRecord{}, fmt.Errorf("%w: cannot save while %s", ErrInvalidState, state)
	case w.store == nil:
		w.mu.Unlock()
		return model.CaseRecord{}, fmt.Errorf("%w: no case store configured", ErrPersistence)
	}

	w.saving = true
	draft := w.draft.Clone()
	draft.Tags = draft.Tags.Clean()
	w.mu.Unlock()

	reqCtx, cancel := w.requestContext(ctx)
	defer cancel()

	saved, err := w.store.SaveCase(reqCtx, draft)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.saving = false

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPersistence, err)
		w.lastErr = err
		w.logger.Warn("case save failed, draft retained", zap.Error(err))
		return model.CaseRecord{}, err
	}

	if w.closed {
		// already Discarded by Close; the store has the record regardless
		return saved, nil
	}

	w.lastErr = nil
	w.draft, w.hasDraft = model.CaseRecord{}, false
	w.transition(Saved)
	w.logger.Info("case saved",
		zap.String("id", string(saved.ID)),
		zap.String("heading", saved.CaseHeading),
	)
	return saved, nil
}

// Discard drops the draft without saving
func (w *Workflow) Discard() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkOpen(); err != nil {
		return err
	}
	if w.saving {
		return fmt.Errorf("%w: save in progress", ErrInvalidState)
	}
	if w.state != Answered && w.state != Reviewing {
		return fmt.Errorf("%w: nothing to discard while %s", ErrInvalidState, w.state)
	}
	w.draft, w.hasDraft = model.CaseRecord{}, false
	w.transition(Discarded)
	return nil
}

// Close releases the workflow. In-flight calls are cancelled and an
// unsaved draft is discarded. Close is idempotent.
func (w *Workflow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.cancel()

	if w.state == Answered || w.state == Reviewing {
		w.draft, w.hasDraft = model.CaseRecord{}, false
		w.transition(Discarded)
	}
	return nil
}

// State returns the current state
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Draft returns a copy of the current draft
func (w *Workflow) Draft() (model.CaseRecord, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.hasDraft {
		return model.CaseRecord{}, false
	}
	return w.draft.Clone(), true
}

// Answer returns the normalized answer of the current cycle
func (w *Workflow) Answer() (model.Answer, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.answer, w.hasAnswer
}

// LastError returns the error surfaced by the most recent submit or save
func (w *Workflow) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// requestContext derives a per-call context that is also cancelled by Close
func (w *Workflow) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(w.lifetime, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}

func (w *Workflow) checkOpen() error {
	if w.closed {
		return ErrClosed
	}
	return nil
}

// transition must be called with mu held
func (w *Workflow) transition(to State) {
	from := w.state
	w.state = to
	w.logger.Debug("workflow transition",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
	if w.observer != nil {
		w.observer(from, to)
	}
}

// IsRecoverable reports whether err left the workflow with a usable answer
func IsRecoverable(err error) bool {
	return err == nil || errors.Is(err, ErrMalformedResponse)
}
