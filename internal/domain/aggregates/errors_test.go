package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormattingAndCodes(t *testing.T) {
	base := errors.New("duplicate key")
	err := Wrap(CodeConflict, "Certificate.Issue", base)
	if got := err.Error(); got != "Certificate.Issue: duplicate key (conflict)" {
		t.Fatalf("Error() = %q", got)
	}
	wrapped := fmt.Errorf("issue: %w", err)
	if !IsCode(wrapped, CodeConflict) {
		t.Fatalf("expected conflict code through wrapping")
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("cause lost")
	}
	if CodeOf(base) != "" || IsCode(base, "") {
		t.Fatalf("plain error must carry no code")
	}
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil) must be nil")
	}
	if got := NewError(CodeNotFound, "", "", nil).Error(); got != "not_found" {
		t.Fatalf("bare Error() = %q", got)
	}
}

func TestContractsValidate(t *testing.T) {
	for _, c := range Contracts() {
		if err := c.Validate(); err != nil {
			t.Fatalf("contract %s: %v", c.Name, err)
		}
		if !c.RequiresAggregateOwnedTx() {
			t.Fatalf("contract %s must own its transaction", c.Name)
		}
	}
	if err := (Contract{Name: "x", WriteTxOwnership: "nope", ReadPolicy: ReadPolicyInvariantScoped}).Validate(); err == nil {
		t.Fatalf("expected unknown ownership to fail")
	}
}
