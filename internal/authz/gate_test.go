package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hirelink/hirelink/internal/shared"
)

type decisionCounter struct {
	outcomes map[string]int
}

func (c *decisionCounter) RecordDecision(outcome string) {
	if c.outcomes == nil {
		c.outcomes = make(map[string]int)
	}
	c.outcomes[outcome]++
}

func newTestGate(store Store, metrics DecisionRecorder) *Gate {
	g := NewGate(store, newTestResolver(store), nil, metrics)
	g.now = func() time.Time { return testNow }
	return g
}

func authedCtx(userID int64) context.Context {
	return shared.ContextWithUserID(context.Background(), userID)
}

func TestGateRequiresAuthentication(t *testing.T) {
	gate := newTestGate(newMemStore(), nil)

	_, err := gate.Require(context.Background(), "reports.view", nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if IsDenied(err) {
		t.Fatalf("unauthenticated must be distinct from forbidden")
	}
}

func TestGateBlockedAccount(t *testing.T) {
	store := newMemStore()
	until := testNow.Add(2 * time.Hour)
	store.addSubject(Subject{ID: 1, Verified: true, BlockedUntil: &until})
	store.addOverride(Override{UserID: 1, Code: "reports.view", Action: ActionGrant})
	gate := newTestGate(store, nil)

	_, err := gate.Require(authedCtx(1), "reports.view", nil)
	var denial *DenialError
	if !errors.As(err, &denial) {
		t.Fatalf("expected DenialError, got %v", err)
	}
	if denial.Reason != ReasonBlocked {
		t.Fatalf("expected blocked reason, got %s", denial.Reason)
	}
	if denial.BlockedUntil == nil || !denial.BlockedUntil.Equal(until) {
		t.Fatalf("expected block expiry to be surfaced")
	}
}

func TestGateExpiredBlockIsLifted(t *testing.T) {
	store := newMemStore()
	until := testNow.Add(-time.Minute)
	store.addSubject(Subject{ID: 1, Verified: true, BlockedUntil: &until})
	store.addOverride(Override{UserID: 1, Code: "reports.view", Action: ActionGrant})
	gate := newTestGate(store, nil)

	sub, err := gate.Require(authedCtx(1), "reports.view", nil)
	if err != nil {
		t.Fatalf("require: %v", err)
	}
	if sub.ID != 1 {
		t.Fatalf("expected subject 1, got %d", sub.ID)
	}
}

func TestGateVerifiedVariant(t *testing.T) {
	store := newMemStore()
	store.addSubject(Subject{ID: 1, Verified: false})
	store.addOverride(Override{UserID: 1, Code: "reports.view", Action: ActionGrant})
	gate := newTestGate(store, nil)

	// The basic variant does not demand verification.
	if _, err := gate.Require(authedCtx(1), "reports.view", nil); err != nil {
		t.Fatalf("require: %v", err)
	}

	_, err := gate.RequireVerified(authedCtx(1), "reports.view", nil)
	var denial *DenialError
	if !errors.As(err, &denial) {
		t.Fatalf("expected DenialError, got %v", err)
	}
	if denial.Reason != ReasonUnverified {
		t.Fatalf("expected unverified reason, got %s", denial.Reason)
	}
}

func TestGateDenialNamesPermission(t *testing.T) {
	store := newMemStore()
	store.addSubject(Subject{ID: 1, Verified: true})
	metrics := &decisionCounter{}
	gate := newTestGate(store, metrics)

	_, err := gate.Require(authedCtx(1), "roles.edit", nil)
	var denial *DenialError
	if !errors.As(err, &denial) {
		t.Fatalf("expected DenialError, got %v", err)
	}
	if denial.Code != "roles.edit" {
		t.Fatalf("expected missing code in denial, got %q", denial.Code)
	}
	if metrics.outcomes[OutcomeDenied] != 1 {
		t.Fatalf("expected one denied decision, got %v", metrics.outcomes)
	}
}

func TestGateAllows(t *testing.T) {
	store := newMemStore()
	store.addSubject(Subject{ID: 1, Verified: true})
	store.addOverride(Override{UserID: 1, Code: "reports.view", Action: ActionGrant})
	gate := newTestGate(store, nil)

	if !gate.Allows(authedCtx(1), "reports.view", nil) {
		t.Fatalf("expected allows true for granted permission")
	}
	if gate.Allows(authedCtx(1), "roles.edit", nil) {
		t.Fatalf("expected allows false for missing permission")
	}
	if gate.Allows(context.Background(), "reports.view", nil) {
		t.Fatalf("expected allows false without authentication")
	}
}

func TestGateStoreFailureIsNotDenial(t *testing.T) {
	store := newMemStore()
	store.addSubject(Subject{ID: 1, Verified: true})
	store.failOp = "list overrides"
	metrics := &decisionCounter{}
	gate := newTestGate(store, metrics)

	_, err := gate.Require(authedCtx(1), "reports.view", nil)
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if IsDenied(err) {
		t.Fatalf("store failure must not read as a denial")
	}
	if metrics.outcomes[OutcomeError] != 1 {
		t.Fatalf("expected one error decision, got %v", metrics.outcomes)
	}
}
