package aggregates

import (
	"context"
	"testing"
	"time"

	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
)

func TestExecuteWriteReportsOutcome(t *testing.T) {
	cases := []struct {
		name          string
		fnErr         error
		wantStatus    string
		wantConflicts int
		wantRetries   int
	}{
		{name: "success", wantStatus: "success"},
		{name: "invariant", fnErr: InvariantError("failed attempt with points"), wantStatus: string(domainagg.CodeInvariantViolation)},
		{name: "precondition", fnErr: PreconditionError("mission locked"), wantStatus: string(domainagg.CodePreconditionFailed)},
		{name: "conflict", fnErr: ConflictError("progress changed"), wantStatus: string(domainagg.CodeConflict), wantConflicts: 1},
		{name: "retryable", fnErr: RetryableError("lock timeout"), wantStatus: string(domainagg.CodeRetryable), wantRetries: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "agg."+tc.name,
				func(_ dbctx.Context) error { return tc.fnErr })
			if (err == nil) != (tc.fnErr == nil) {
				t.Fatalf("err = %v", err)
			}
			if len(hooks.Operations) != 1 || hooks.Operations[0].Status != tc.wantStatus {
				t.Fatalf("operations: %+v", hooks.Operations)
			}
			if len(hooks.Conflicts) != tc.wantConflicts || len(hooks.Retries) != tc.wantRetries {
				t.Fatalf("conflicts=%v retries=%v", hooks.Conflicts, hooks.Retries)
			}
		})
	}
}

func TestExecuteWriteDefaultsOpName(t *testing.T) {
	hooks := &spyHooks{}
	_ = executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "  ", func(dbctx.Context) error { return nil })
	if hooks.Operations[0].Name != "aggregate.write" {
		t.Fatalf("op name = %q", hooks.Operations[0].Name)
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != "success" {
		t.Fatalf("nil status: %s", got)
	}
	if got := aggregateErrorStatus(context.DeadlineExceeded); got != string(domainagg.CodeRetryable) {
		t.Fatalf("deadline status: %s", got)
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) { h.Conflicts = append(h.Conflicts, name) }

func (h *spyHooks) IncRetry(name string) { h.Retries = append(h.Retries, name) }
