package workflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ppiankov/lawai/internal/backend"
	"github.com/ppiankov/lawai/internal/mockserver"
	"github.com/ppiankov/lawai/internal/model"
)

type fakeInferer struct {
	payload string
	err     error
	calls   atomic.Int32

	// when set, Infer signals started and blocks until release or ctx is done
	started chan struct{}
	release chan struct{}
}

func (f *fakeInferer) Infer(ctx context.Context, query string) ([]byte, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.payload), nil
}

type fakeSaver struct {
	mu    sync.Mutex
	saved []model.CaseRecord
	fail  []error // consumed in order, nil means success

	started chan struct{}
	release chan struct{}
}

func (f *fakeSaver) SaveCase(ctx context.Context, rec model.CaseRecord) (model.CaseRecord, error) {
	if f.started != nil {
		f.started <- struct{}{}
		select {
		case <-f.release:
		case <-ctx.Done():
			return model.CaseRecord{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fail) > 0 {
		err := f.fail[0]
		f.fail = f.fail[1:]
		if err != nil {
			return model.CaseRecord{}, err
		}
	}
	rec.ID = "42"
	f.saved = append(f.saved, rec)
	return rec, nil
}

func answered(t *testing.T, payload string, saver CaseSaver, opts ...Option) *Workflow {
	t.Helper()
	w := New(&fakeInferer{payload: payload}, saver, opts...)
	if _, err := w.SubmitQuery(context.Background(), "query"); err != nil {
		t.Fatalf("SubmitQuery failed: %v", err)
	}
	return w
}

func TestSubmitQuery_SectionMap(t *testing.T) {
	var transitions []string
	inf := &fakeInferer{payload: `{"acts": {"302": "Murder", "304": "Culpable homicide"}}`}
	w := New(inf, nil, WithTransitionObserver(func(from, to State) {
		transitions = append(transitions, from.String()+">"+to.String())
	}))

	answer, err := w.SubmitQuery(context.Background(), "a man was killed")
	if err != nil {
		t.Fatalf("SubmitQuery failed: %v", err)
	}
	if answer.Response.Kind() != model.KindSectionMap {
		t.Errorf("expected section map, got %s", answer.Response.Kind())
	}
	if w.State() != Answered {
		t.Errorf("expected Answered, got %s", w.State())
	}

	draft, ok := w.Draft()
	if !ok {
		t.Fatal("expected a draft")
	}
	want := "Section 302: Murder\nSection 304: Culpable homicide"
	if draft.Description != want {
		t.Errorf("description = %q, want %q", draft.Description, want)
	}
	if draft.Query != "a man was killed" {
		t.Errorf("query not copied: %q", draft.Query)
	}
	if draft.CaseHeading != model.PlaceholderHeading {
		t.Errorf("expected placeholder heading, got %q", draft.CaseHeading)
	}
	if draft.ID != "" {
		t.Errorf("draft must not carry an id, got %q", draft.ID)
	}

	if len(transitions) != 2 || transitions[0] != "idle>submitting" || transitions[1] != "submitting>answered" {
		t.Errorf("unexpected transitions %v", transitions)
	}
}

func TestSubmitQuery_DescriptionVerbatimByDefault(t *testing.T) {
	w := answered(t, `{"acts": {"304B": "Dowry death where value<lakh and term>7 years", "379": "<b>Theft</b>"}}`, nil)

	draft, _ := w.Draft()
	want := "Section 304B: Dowry death where value<lakh and term>7 years\nSection 379: <b>Theft</b>"
	if draft.Description != want {
		t.Errorf("description = %q, want %q", draft.Description, want)
	}
}

func TestSubmitQuery_Resubmission(t *testing.T) {
	payload := `{"caseHeading": "Theft", "acts": {"379": "Theft"}}`
	w := answered(t, payload, nil)
	first, _ := w.Draft()

	if _, err := w.SubmitQuery(context.Background(), "query"); err != nil {
		t.Fatal(err)
	}
	second, _ := w.Draft()

	if first.CaseHeading != second.CaseHeading || first.Description != second.Description {
		t.Errorf("re-derivation not idempotent: %+v vs %+v", first, second)
	}
}

func TestSubmitQuery_FreeTextSaved(t *testing.T) {
	saver := &fakeSaver{}
	w := answered(t, `"No applicable law found"`, saver)

	answer, _ := w.Answer()
	text, ok := answer.Response.(model.FreeText)
	if !ok || text.Text != "No applicable law found" {
		t.Fatalf("expected free text, got %#v", answer.Response)
	}

	if err := w.Review(); err != nil {
		t.Fatal(err)
	}
	saved, err := w.SaveDraft(context.Background())
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if saved.Description != "No applicable law found" {
		t.Errorf("description = %q", saved.Description)
	}
	if saved.ID != "42" {
		t.Errorf("expected assigned id, got %q", saved.ID)
	}
	if w.State() != Saved {
		t.Errorf("expected Saved, got %s", w.State())
	}
	if _, ok := w.Draft(); ok {
		t.Error("draft should be released after save")
	}
}

func TestSubmitQuery_NetworkError(t *testing.T) {
	var states []State
	inf := &fakeInferer{err: &backend.StatusError{Method: "POST", URL: "/encode/", StatusCode: 503}}
	w := New(inf, nil, WithTransitionObserver(func(_, to State) { states = append(states, to) }))

	_, err := w.SubmitQuery(context.Background(), "q")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	var statusErr *backend.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 503 {
		t.Errorf("cause not preserved: %v", err)
	}
	if w.State() != Idle {
		t.Errorf("expected Idle after failure, got %s", w.State())
	}
	if !errors.Is(w.LastError(), ErrNetwork) {
		t.Errorf("LastError = %v", w.LastError())
	}
	want := []State{Submitting, Failed, Idle}
	if len(states) != len(want) {
		t.Fatalf("transitions = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, states[i], want[i])
		}
	}
	if inf.calls.Load() != 1 {
		t.Errorf("no automatic retry expected, got %d calls", inf.calls.Load())
	}
}

func TestSubmitQuery_Malformed(t *testing.T) {
	w := New(&fakeInferer{payload: "<html>Internal error</html>"}, nil)

	answer, err := w.SubmitQuery(context.Background(), "q")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if !IsRecoverable(err) {
		t.Error("malformed response should be recoverable")
	}
	if w.State() != Answered {
		t.Errorf("expected Answered, got %s", w.State())
	}
	if _, ok := answer.Response.(model.FreeText); !ok {
		t.Errorf("expected free text fallback, got %T", answer.Response)
	}
	draft, _ := w.Draft()
	if draft.Description != "<html>Internal error</html>" {
		t.Errorf("unexpected fallback description %q", draft.Description)
	}
}

func TestSubmitQuery_EmptyQuery(t *testing.T) {
	inf := &fakeInferer{payload: `"ok"`}
	if _, err := New(inf, nil).SubmitQuery(context.Background(), ""); err != nil {
		t.Errorf("empty query should be allowed by default: %v", err)
	}
	if inf.calls.Load() != 1 {
		t.Error("empty query should still be sent")
	}

	w := New(inf, nil, WithRejectEmptyQuery(true))
	if _, err := w.SubmitQuery(context.Background(), "  "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if inf.calls.Load() != 1 {
		t.Error("rejected query must not reach the network")
	}
}

func TestSubmitQuery_ConcurrentRejected(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	inf := &fakeInferer{
		payload: `"ok"`,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	w := New(inf, nil)
	defer func() { _ = w.Close() }()

	done := make(chan error, 1)
	go func() {
		_, err := w.SubmitQuery(context.Background(), "first")
		done <- err
	}()
	<-inf.started

	if w.State() != Submitting {
		t.Errorf("expected Submitting, got %s", w.State())
	}
	if _, err := w.SubmitQuery(context.Background(), "second"); !errors.Is(err, ErrConcurrentSubmission) {
		t.Errorf("expected ErrConcurrentSubmission, got %v", err)
	}
	if inf.calls.Load() != 1 {
		t.Errorf("second submit must not call the network, got %d calls", inf.calls.Load())
	}

	close(inf.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if w.State() != Answered {
		t.Errorf("expected Answered, got %s", w.State())
	}
}

func TestSubmitQuery_RejectedWhileReviewing(t *testing.T) {
	w := answered(t, `"ok"`, nil)
	if err := w.Review(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.SubmitQuery(context.Background(), "again"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestTags(t *testing.T) {
	w := answered(t, `"ok"`, nil)

	if _, err := w.AddTag("theft"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("tags should be locked before review, got %v", err)
	}
	if err := w.Review(); err != nil {
		t.Fatal(err)
	}

	tags := func() model.Tags {
		d, _ := w.Draft()
		return d.Tags
	}

	for _, tag := range []string{"theft", "theft", "  theft  ", "", "   ", "Theft"} {
		if _, err := w.AddTag(tag); err != nil {
			t.Fatal(err)
		}
	}
	if got := tags(); len(got) != 2 || got[0] != "theft" || got[1] != "Theft" {
		t.Errorf("unexpected tags %v", got)
	}

	for _, idx := range []int{-1, 2, 100} {
		changed, err := w.RemoveTag(idx)
		if err != nil || changed {
			t.Errorf("RemoveTag(%d) = %v, %v; want no-op", idx, changed, err)
		}
	}
	if len(tags()) != 2 {
		t.Errorf("out-of-range removal changed tags: %v", tags())
	}

	changed, err := w.RemoveTag(0)
	if err != nil || !changed {
		t.Fatalf("RemoveTag(0) = %v, %v", changed, err)
	}
	if got := tags(); len(got) != 1 || got[0] != "Theft" {
		t.Errorf("unexpected tags after removal %v", got)
	}
}

func TestEdits(t *testing.T) {
	saver := &fakeSaver{}
	w := answered(t, `{"acts": {"379": "Theft"}}`, saver)

	if err := w.SetHeading("x"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("edit before review: %v", err)
	}
	if err := w.Review(); err != nil {
		t.Fatal(err)
	}

	if err := w.SetHeading("Bicycle theft"); err != nil {
		t.Fatal(err)
	}
	if err := w.SetQuery("bicycle stolen from station"); err != nil {
		t.Fatal(err)
	}
	if err := w.SetDescription("Section 379: Theft (bicycle)"); err != nil {
		t.Fatal(err)
	}
	if err := w.SetStatus(model.StatusAssigned); err != nil {
		t.Fatal(err)
	}

	saved, err := w.SaveDraft(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if saved.CaseHeading != "Bicycle theft" || saved.Query != "bicycle stolen from station" ||
		saved.ApplicableArticle != "Section 379: Theft (bicycle)" || saved.Status != model.StatusAssigned {
		t.Errorf("edits not saved: %+v", saved)
	}
}

func TestSaveDraft_FailureRetainsDraft(t *testing.T) {
	saver := &fakeSaver{fail: []error{&backend.StatusError{Method: "POST", URL: "/case_save/", StatusCode: 500}}}
	w := answered(t, `{"acts": {"302": "Murder"}}`, saver)
	if err := w.Review(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.AddTag("homicide"); err != nil {
		t.Fatal(err)
	}
	before, _ := w.Draft()

	_, err := w.SaveDraft(context.Background())
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if w.State() != Reviewing {
		t.Errorf("expected Reviewing after failed save, got %s", w.State())
	}
	after, ok := w.Draft()
	if !ok {
		t.Fatal("draft lost after failed save")
	}
	if after.CaseHeading != before.CaseHeading || after.Description != before.Description ||
		after.Tags.String() != before.Tags.String() || after.Status != before.Status {
		t.Errorf("draft changed: %+v -> %+v", before, after)
	}
	if len(saver.saved) != 0 {
		t.Error("nothing should be stored yet")
	}

	saved, err := w.SaveDraft(context.Background())
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if saved.Description != before.Description || len(saver.saved) != 1 {
		t.Errorf("unexpected retry result %+v", saved)
	}
}

func TestSaveDraft_States(t *testing.T) {
	w := answered(t, `"ok"`, &fakeSaver{})
	if _, err := w.SaveDraft(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("save before review: %v", err)
	}

	noStore := answered(t, `"ok"`, nil)
	_ = noStore.Review()
	if _, err := noStore.SaveDraft(context.Background()); !errors.Is(err, ErrPersistence) {
		t.Errorf("save without store: %v", err)
	}
}

func TestSaveDraft_ConcurrentRejected(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	saver := &fakeSaver{started: make(chan struct{}), release: make(chan struct{})}
	w := answered(t, `"ok"`, saver)
	defer func() { _ = w.Close() }()
	if err := w.Review(); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := w.SaveDraft(context.Background())
		done <- err
	}()
	<-saver.started

	if _, err := w.SaveDraft(context.Background()); !errors.Is(err, ErrConcurrentSubmission) {
		t.Errorf("expected ErrConcurrentSubmission, got %v", err)
	}
	if _, err := w.AddTag("late"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("edits during save should be rejected, got %v", err)
	}
	if err := w.Discard(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("discard during save should be rejected, got %v", err)
	}

	close(saver.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if len(saver.saved) != 1 {
		t.Errorf("expected exactly one save, got %d", len(saver.saved))
	}
}

func TestDiscard(t *testing.T) {
	w := answered(t, `"ok"`, nil)
	if err := w.Discard(); err != nil {
		t.Fatal(err)
	}
	if w.State() != Discarded {
		t.Errorf("expected Discarded, got %s", w.State())
	}
	if _, ok := w.Draft(); ok {
		t.Error("draft should be dropped")
	}
	if err := w.Discard(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second discard: %v", err)
	}

	// a new cycle starts fresh
	if _, err := w.SubmitQuery(context.Background(), "again"); err != nil {
		t.Fatal(err)
	}
	if w.State() != Answered {
		t.Errorf("expected Answered, got %s", w.State())
	}
}

func TestClose_CancelsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	inf := &fakeInferer{started: make(chan struct{}), release: make(chan struct{})}
	w := New(inf, nil)

	done := make(chan error, 1)
	go func() {
		_, err := w.SubmitQuery(context.Background(), "q")
		done <- err
	}()
	<-inf.started

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) || !errors.Is(err, context.Canceled) {
			t.Errorf("expected closed/cancelled error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request was not cancelled")
	}

	if _, err := w.SubmitQuery(context.Background(), "q"); !errors.Is(err, ErrClosed) {
		t.Errorf("submit after close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close should be idempotent: %v", err)
	}
}

func TestClose_DiscardsDraft(t *testing.T) {
	w := answered(t, `"ok"`, nil)
	_ = w.Review()
	_ = w.Close()

	if w.State() != Discarded {
		t.Errorf("expected Discarded, got %s", w.State())
	}
	if _, err := w.AddTag("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("edit after close: %v", err)
	}
}

func TestCallerContextCancel(t *testing.T) {
	inf := &fakeInferer{started: make(chan struct{}), release: make(chan struct{})}
	w := New(inf, nil)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := w.SubmitQuery(ctx, "q")
		done <- err
	}()
	<-inf.started
	cancel()

	err := <-done
	if !errors.Is(err, ErrNetwork) || errors.Is(err, ErrClosed) {
		t.Errorf("expected plain network error, got %v", err)
	}
	if w.State() != Idle {
		t.Errorf("expected Idle, got %s", w.State())
	}
}

func TestWorkflow_AgainstMockBackend(t *testing.T) {
	mock := mockserver.New()
	server := httptest.NewServer(mock.Handler())
	defer server.Close()

	cfg := model.DefaultConfig()
	cfg.Backend.BaseURL = server.URL
	client := backend.NewClient(cfg)
	defer client.CloseIdleConnections()

	w := New(backend.NewHTTPInference(client), backend.NewCaseStore(client))
	defer func() { _ = w.Close() }()

	if _, err := w.SubmitQuery(context.Background(), "my scooter was stolen"); err != nil {
		t.Fatal(err)
	}
	draft, _ := w.Draft()
	if draft.CaseHeading != "Theft reported" {
		t.Errorf("heading = %q", draft.CaseHeading)
	}

	_ = w.Review()
	_, _ = w.AddTag("theft")
	mock.FailNext("/case_save/", http.StatusServiceUnavailable)

	if _, err := w.SaveDraft(context.Background()); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	saved, err := w.SaveDraft(context.Background())
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if saved.ID != "4" {
		t.Errorf("expected id 4, got %q", saved.ID)
	}
	if mock.Requests("/case_save/") != 2 {
		t.Errorf("expected two save attempts, got %d", mock.Requests("/case_save/"))
	}
}

func TestClose_CancelsHTTPRequest(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mock := mockserver.New()
	release := mock.HoldInference()
	defer release()
	server := httptest.NewServer(mock.Handler())
	defer server.Close()

	cfg := model.DefaultConfig()
	cfg.Backend.BaseURL = server.URL
	client := backend.NewClient(cfg)
	defer client.CloseIdleConnections()

	w := New(backend.NewHTTPInference(client), nil)

	done := make(chan error, 1)
	go func() {
		_, err := w.SubmitQuery(context.Background(), "q")
		done <- err
	}()

	deadline := time.Now().Add(5 * time.Second)
	for mock.Requests("/encode/") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("request never reached the backend")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_ = w.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("HTTP request was not cancelled by Close")
	}
}
