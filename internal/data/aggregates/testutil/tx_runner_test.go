package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/missions-backend/internal/platform/dbctx"
)

func TestInjectedTxRunner(t *testing.T) {
	bodyErr := errors.New("boom")
	commitErr := errors.New("commit failed")

	cases := []struct {
		name         string
		runner       *InjectedTxRunner
		body         error
		wantErr      error
		wantCalled   bool
		wantCommit   int
		wantRollback int
	}{
		{name: "commit", runner: &InjectedTxRunner{}, wantCalled: true, wantCommit: 1},
		{name: "body error", runner: &InjectedTxRunner{}, body: bodyErr, wantErr: bodyErr, wantCalled: true, wantRollback: 1},
		{name: "commit failure", runner: &InjectedTxRunner{FailCommit: commitErr}, wantErr: commitErr, wantCalled: true, wantRollback: 1},
		{name: "before body", runner: &InjectedTxRunner{FailBeforeBody: bodyErr}, wantErr: bodyErr, wantRollback: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			err := tc.runner.InTx(context.Background(), func(_ dbctx.Context) error {
				called = true
				return tc.body
			})
			if !errors.Is(err, tc.wantErr) || (tc.wantErr == nil && err != nil) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if called != tc.wantCalled {
				t.Fatalf("called = %v, want %v", called, tc.wantCalled)
			}
			r := tc.runner
			if r.BeginCalls != 1 || r.CommitCalls != tc.wantCommit || r.RollbackCalls != tc.wantRollback {
				t.Fatalf("counters begin=%d commit=%d rollback=%d", r.BeginCalls, r.CommitCalls, r.RollbackCalls)
			}
		})
	}
}
