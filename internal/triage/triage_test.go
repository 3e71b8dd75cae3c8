package triage_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/kcvinod/triage/internal/email"
	"github.com/kcvinod/triage/internal/escalations"
	"github.com/kcvinod/triage/internal/kb"
	"github.com/kcvinod/triage/internal/publish"
	"github.com/kcvinod/triage/internal/triage"
	"github.com/kcvinod/triage/internal/workflow"
)

// fakeExecutor escalates any email whose raw text contains "URGENT" and
// drafts a reply otherwise.
type fakeExecutor struct {
	err      error
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeExecutor) Execute(ctx context.Context, raw string) (*workflow.Result, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := email.Parse(raw)
	state := workflow.State{Raw: raw, Document: &doc}

	if strings.Contains(raw, "URGENT") {
		rec, err := workflow.Escalate(doc, workflow.Classification{Urgency: workflow.LevelHigh, Complexity: workflow.LevelLow})
		if err != nil {
			return nil, err
		}
		state.Escalation = rec
		state.Route = workflow.RouteEscalate
	} else {
		state.Route = workflow.RouteDraft
		state.KBResults = []kb.Result{{Reference: "kb/a.txt", RelevanceScore: 0.9}}
		state.Reply = &workflow.Reply{Body: "Thanks for reaching out."}
	}

	return &workflow.Result{RunID: uuid.New(), State: state, CompletedAt: time.Now()}, nil
}

type fakeStore struct {
	mu       sync.Mutex
	err      error
	commands []escalations.RecordCommand
}

func (s *fakeStore) Record(_ context.Context, cmd escalations.RecordCommand) (*escalations.Escalation, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	return &escalations.Escalation{ID: uuid.New(), RunID: cmd.RunID}, nil
}

type fakePublisher struct {
	mu          sync.Mutex
	err         error
	escalations []publish.EscalationMessage
	replies     []publish.ReplyMessage
}

func (p *fakePublisher) PublishEscalation(_ context.Context, msg publish.EscalationMessage) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.escalations = append(p.escalations, msg)
	return nil
}

func (p *fakePublisher) PublishReply(_ context.Context, msg publish.ReplyMessage) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, msg)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	urgentEmail = "Subject: URGENT outage\nFrom: ops@example.com\n\nEverything is down."
	plainEmail  = "Subject: Password help\nFrom: user@example.com\n\nHow do I reset my password?"
)

func TestTriageEscalation(t *testing.T) {
	store, pub := &fakeStore{}, &fakePublisher{}
	sys := triage.New(&fakeExecutor{}, store, pub, triage.Config{MaxConcurrency: 2}, discard())

	out, err := sys.Triage(context.Background(), urgentEmail)
	if err != nil {
		t.Fatalf("Triage: %v", err)
	}

	if out.EscalationID == nil {
		t.Fatal("EscalationID should be set for a stored escalation")
	}
	if !out.Published {
		t.Error("Published should be true")
	}
	if len(store.commands) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.commands))
	}

	cmd := store.commands[0]
	if cmd.RunID != out.RunID || cmd.Subject != "URGENT outage" || cmd.Sender != "ops@example.com" {
		t.Errorf("command = %+v", cmd)
	}
	if len(pub.escalations) != 1 || len(pub.replies) != 0 {
		t.Fatalf("published %d escalations %d replies", len(pub.escalations), len(pub.replies))
	}
	if pub.escalations[0].Escalation.Payload.Assignee != workflow.AssigneeOnCall {
		t.Errorf("assignee = %q", pub.escalations[0].Escalation.Payload.Assignee)
	}
}

func TestTriageReply(t *testing.T) {
	store, pub := &fakeStore{}, &fakePublisher{}
	sys := triage.New(&fakeExecutor{}, store, pub, triage.Config{}, discard())

	out, err := sys.Triage(context.Background(), plainEmail)
	if err != nil {
		t.Fatalf("Triage: %v", err)
	}

	if out.EscalationID != nil {
		t.Error("EscalationID should be nil for a reply")
	}
	if len(store.commands) != 0 {
		t.Errorf("stored %d records, want 0", len(store.commands))
	}
	if len(pub.replies) != 1 {
		t.Fatalf("published %d replies, want 1", len(pub.replies))
	}

	got := pub.replies[0]
	want := publish.ReplyMessage{
		RunID:      out.RunID,
		To:         "user@example.com",
		Subject:    "Re: Password help",
		Body:       "Thanks for reaching out.",
		References: []string{"kb/a.txt"},
		CreatedAt:  out.CompletedAt,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reply mismatch (-want +got):\n%s", diff)
	}
}

func TestTriageWithoutStore(t *testing.T) {
	pub := &fakePublisher{}
	sys := triage.New(&fakeExecutor{}, nil, pub, triage.Config{}, discard())

	out, err := sys.Triage(context.Background(), urgentEmail)
	if err != nil {
		t.Fatalf("Triage: %v", err)
	}
	if out.EscalationID != nil {
		t.Error("EscalationID should be nil without a store")
	}
	if len(pub.escalations) != 1 {
		t.Errorf("published %d escalations, want 1", len(pub.escalations))
	}
}

func TestTriageWithoutPublisher(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		escalated bool
	}{
		{"reply", plainEmail, false},
		{"escalation", urgentEmail, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			sys := triage.New(&fakeExecutor{}, store, nil, triage.Config{}, discard())

			out, err := sys.Triage(context.Background(), tt.raw)
			if err != nil {
				t.Fatalf("Triage: %v", err)
			}
			if out.Published {
				t.Error("Published should be false without a publisher")
			}
			if got := out.EscalationID != nil; got != tt.escalated {
				t.Errorf("EscalationID set = %v, want %v", got, tt.escalated)
			}
			if got := len(store.commands) == 1; got != tt.escalated {
				t.Errorf("stored %d records", len(store.commands))
			}
		})
	}
}

func TestTriageDispatchFailures(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
		pub   *fakePublisher
		raw   string
	}{
		{"store fails", &fakeStore{err: errors.New("db down")}, &fakePublisher{}, urgentEmail},
		{"escalation publish fails", &fakeStore{}, &fakePublisher{err: errors.New("broker down")}, urgentEmail},
		{"reply publish fails", &fakeStore{}, &fakePublisher{err: errors.New("broker down")}, plainEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := triage.New(&fakeExecutor{}, tt.store, tt.pub, triage.Config{}, discard())

			_, err := sys.Triage(context.Background(), tt.raw)
			if !errors.Is(err, triage.ErrDispatchFailed) {
				t.Errorf("error = %v, want ErrDispatchFailed", err)
			}
			if got := triage.MapHTTPStatus(err); got != http.StatusBadGateway {
				t.Errorf("status = %d, want %d", got, http.StatusBadGateway)
			}
		})
	}
}

func TestTriageExecuteError(t *testing.T) {
	execErr := errors.New("execute graph: boom")
	sys := triage.New(&fakeExecutor{err: execErr}, nil, nil, triage.Config{}, discard())

	if _, err := sys.Triage(context.Background(), plainEmail); !errors.Is(err, execErr) {
		t.Errorf("error = %v, want %v", err, execErr)
	}
}

func TestTriageBatch(t *testing.T) {
	exec := &fakeExecutor{}
	pub := &fakePublisher{}
	sys := triage.New(exec, &fakeStore{}, pub, triage.Config{MaxConcurrency: 3, MaxBatchSize: 50}, discard())

	raws := make([]string, 12)
	for i := range raws {
		if i%2 == 0 {
			raws[i] = urgentEmail
		} else {
			raws[i] = plainEmail
		}
	}

	outcomes, err := sys.TriageBatch(context.Background(), raws)
	if err != nil {
		t.Fatalf("TriageBatch: %v", err)
	}
	if len(outcomes) != len(raws) {
		t.Fatalf("outcomes = %d, want %d", len(outcomes), len(raws))
	}

	for i, out := range outcomes {
		escalated := out.State.Escalation != nil
		if escalated != (i%2 == 0) {
			t.Errorf("outcome %d escalated = %v, order not preserved", i, escalated)
		}
	}
	if peak := exec.peak.Load(); peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
	if len(pub.escalations) != 6 || len(pub.replies) != 6 {
		t.Errorf("published %d escalations %d replies, want 6 and 6", len(pub.escalations), len(pub.replies))
	}
}

func TestTriageBatchLimits(t *testing.T) {
	sys := triage.New(&fakeExecutor{}, nil, nil, triage.Config{MaxBatchSize: 2}, discard())

	tests := []struct {
		name string
		raws []string
		want error
	}{
		{"empty", nil, triage.ErrEmptyBatch},
		{"too large", []string{"a", "b", "c"}, triage.ErrBatchTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sys.TriageBatch(context.Background(), tt.raws)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if got := triage.MapHTTPStatus(err); got != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", got)
			}
		})
	}
}

func TestTriageBatchCancelled(t *testing.T) {
	sys := triage.New(&fakeExecutor{}, nil, nil, triage.Config{MaxConcurrency: 2}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sys.TriageBatch(ctx, []string{plainEmail, plainEmail})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestNewReplyMessageWithoutDocument(t *testing.T) {
	result := &workflow.Result{RunID: uuid.New()}

	msg := triage.NewReplyMessage(result)
	if msg.To != "" || msg.Subject != "" || msg.Body != "" {
		t.Errorf("msg = %+v, want empty addressing", msg)
	}
	if msg.References == nil {
		t.Error("References should be non-nil")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("CreatedAt should default to now")
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{triage.ErrEmptyBatch, http.StatusBadRequest},
		{triage.ErrDispatchFailed, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := triage.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	cfg := triage.Config{MaxConcurrency: 2, MaxBatchSize: 5, MaxBodySize: 1 << 10}
	sys := triage.New(&fakeExecutor{}, &fakeStore{}, &fakePublisher{}, cfg, discard())
	h := sys.Handler()

	t.Run("routes", func(t *testing.T) {
		g := h.Routes()
		if g.Prefix != "/triage" || len(g.Routes) != 2 {
			t.Errorf("group = %+v", g)
		}
	})

	t.Run("triage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/triage", strings.NewReader(urgentEmail))
		rec := httptest.NewRecorder()

		h.Triage(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		for _, want := range []string{`"run_id"`, `"escalation_id"`, `"assignee":"on-call"`} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %s: %s", want, body)
			}
		}
	})

	t.Run("triage body too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/triage", strings.NewReader(strings.Repeat("x", 2<<10)))
		rec := httptest.NewRecorder()

		h.Triage(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})

	t.Run("batch", func(t *testing.T) {
		body := `{"documents": ["Subject: a\n\nbody", "Subject: URGENT b\n\nbody"]}`
		req := httptest.NewRequest(http.MethodPost, "/triage/batch", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.Batch(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if n := strings.Count(rec.Body.String(), `"run_id"`); n != 2 {
			t.Errorf("run_id count = %d, want 2", n)
		}
	})

	t.Run("batch invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/triage/batch", strings.NewReader("{"))
		rec := httptest.NewRecorder()

		h.Batch(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("batch empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/triage/batch", strings.NewReader(`{"documents": []}`))
		rec := httptest.NewRecorder()

		h.Batch(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
