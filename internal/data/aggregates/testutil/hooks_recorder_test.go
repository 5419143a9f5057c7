package testutil

import (
	"testing"
	"time"
)

func TestHooksRecorderCapturesSignals(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("Progression.RecordQuizAttempt", "success", 10*time.Millisecond)
	h.ObserveOperation("Certificate.Issue", "conflict", time.Millisecond)
	h.ObserveOperation("Progression.RecordQuizAttempt", "precondition_failed", time.Millisecond)
	h.IncConflict("Certificate.Issue")
	h.IncRetry("Progression.RecordQuizAttempt")

	got := h.Statuses("Progression.RecordQuizAttempt")
	if len(got) != 2 || got[0] != "success" || got[1] != "precondition_failed" {
		t.Fatalf("Statuses: %v", got)
	}
	if len(h.Conflicts) != 1 || h.Conflicts[0] != "Certificate.Issue" {
		t.Fatalf("unexpected conflicts: %+v", h.Conflicts)
	}
	if len(h.Retries) != 1 {
		t.Fatalf("unexpected retries: %+v", h.Retries)
	}
}
