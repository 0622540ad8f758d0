package workflow

import (
	"context"

	"github.com/ppiankov/lawai/internal/model"
)

// Triager runs a query through a fresh workflow without user review:
// submit, apply the preset edits, optionally save, then close.
type Triager struct {
	Inferer Inferer
	Store   CaseSaver
	Options []Option

	Save   bool
	Tags   []string
	Status model.CaseStatus
}

// Triage returns the resulting record. A malformed response still yields a
// record together with an error wrapping ErrMalformedResponse.
func (t *Triager) Triage(ctx context.Context, query string) (model.CaseRecord, error) {
	w := New(t.Inferer, t.Store, t.Options...)
	defer func() { _ = w.Close() }()

	_, submitErr := w.SubmitQuery(ctx, query)
	if !IsRecoverable(submitErr) {
		return model.CaseRecord{}, submitErr
	}

	if err := w.Review(); err != nil {
		return model.CaseRecord{}, err
	}
	for _, tag := range t.Tags {
		if _, err := w.AddTag(tag); err != nil {
			return model.CaseRecord{}, err
		}
	}
	if t.Status != "" {
		if err := w.SetStatus(t.Status); err != nil {
			return model.CaseRecord{}, err
		}
	}

	if !t.Save {
		draft, _ := w.Draft()
		return draft, submitErr
	}

	saved, err := w.SaveDraft(ctx)
	if err != nil {
		draft, _ := w.Draft()
		return draft, err
	}
	return saved, submitErr
}
