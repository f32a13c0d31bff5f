package authz

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestGrants(store Store) *Grants {
	g := NewGrants(store, nil, nil)
	g.now = func() time.Time { return testNow }
	return g
}

func countOverrides(store *memStore, action OverrideAction) int {
	n := 0
	for _, o := range store.overrides {
		if o.Action == action {
			n++
		}
	}
	return n
}

func TestAssignIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.addSubject(Subject{ID: 1})
	grants := newTestGrants(store)
	params := OverrideParams{UserID: 1, Code: "reports.view", GrantedBy: ptr[int64](99)}

	if err := grants.Assign(context.Background(), params); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if err := grants.Assign(context.Background(), params); err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if got := countOverrides(store, ActionGrant); got != 1 {
		t.Fatalf("expected exactly one grant row, got %d", got)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.addSubject(Subject{ID: 1})
	grants := newTestGrants(store)
	params := OverrideParams{UserID: 1, Code: "reports.view"}

	if err := grants.Revoke(context.Background(), params); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := grants.Revoke(context.Background(), params); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if got := countOverrides(store, ActionRevoke); got != 1 {
		t.Fatalf("expected exactly one revoke row, got %d", got)
	}
}

func TestAssignSupersedesRevoke(t *testing.T) {
	store := newMemStore()
	store.addSubject(Subject{ID: 1})
	grants := newTestGrants(store)
	resolver := newTestResolver(store)
	params := OverrideParams{UserID: 1, Code: "reports.view"}

	if err := grants.Revoke(context.Background(), params); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	allowed, err := resolver.HasPermission(context.Background(), 1, "reports.view", nil)
	if err != nil {
		t.Fatalf("has permission: %v", err)
	}
	if allowed {
		t.Fatalf("expected revoke to deny")
	}

	if err := grants.Assign(context.Background(), params); err != nil {
		t.Fatalf("assign: %v", err)
	}
	allowed, err = resolver.HasPermission(context.Background(), 1, "reports.view", nil)
	if err != nil {
		t.Fatalf("has permission: %v", err)
	}
	if !allowed {
		t.Fatalf("expected assign to supersede prior revoke")
	}
	if got := countOverrides(store, ActionRevoke); got != 0 {
		t.Fatalf("expected revoke row to be deleted, found %d", got)
	}
}

func TestRevokeKeepsGrantHistory(t *testing.T) {
	store := newMemStore()
	store.addSubject(Subject{ID: 1})
	grants := newTestGrants(store)
	resolver := newTestResolver(store)
	params := OverrideParams{UserID: 1, Code: "reports.view"}

	if err := grants.Assign(context.Background(), params); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := grants.Revoke(context.Background(), params); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	// The grant row stays for the audit trail; resolver ordering makes the
	// revoke win regardless.
	if got := countOverrides(store, ActionGrant); got != 1 {
		t.Fatalf("expected grant row to survive revoke, found %d", got)
	}
	allowed, err := resolver.HasPermission(context.Background(), 1, "reports.view", nil)
	if err != nil {
		t.Fatalf("has permission: %v", err)
	}
	if allowed {
		t.Fatalf("expected revoke to win over retained grant row")
	}
}

func TestGrantRevokeGrantEndsAllowed(t *testing.T) {
	store := newMemStore()
	store.addSubject(Subject{ID: 1})
	grants := newTestGrants(store)
	resolver := newTestResolver(store)
	params := OverrideParams{UserID: 1, Code: "reports.view", CompanyID: ptr[int64](7)}

	for _, step := range []func(context.Context, OverrideParams) error{grants.Assign, grants.Revoke, grants.Assign} {
		if err := step(context.Background(), params); err != nil {
			t.Fatalf("lifecycle step: %v", err)
		}
	}

	allowed, err := resolver.HasPermission(context.Background(), 1, "reports.view", ptr[int64](7))
	if err != nil {
		t.Fatalf("has permission: %v", err)
	}
	if !allowed {
		t.Fatalf("expected grant-revoke-grant to end granted")
	}
	if got := countOverrides(store, ActionRevoke); got != 0 {
		t.Fatalf("expected final assign to delete the revoke, found %d", got)
	}
}

func TestGlobalAndCompanyOverridesAreDistinctKeys(t *testing.T) {
	store := newMemStore()
	store.addSubject(Subject{ID: 1})
	grants := newTestGrants(store)

	if err := grants.Assign(context.Background(), OverrideParams{UserID: 1, Code: "reports.view"}); err != nil {
		t.Fatalf("global assign: %v", err)
	}
	if err := grants.Assign(context.Background(), OverrideParams{UserID: 1, Code: "reports.view", CompanyID: ptr[int64](7)}); err != nil {
		t.Fatalf("company assign: %v", err)
	}
	if got := countOverrides(store, ActionGrant); got != 2 {
		t.Fatalf("expected two distinct grant rows, got %d", got)
	}
}

func TestAssignExpiredGrantInsertsFreshRow(t *testing.T) {
	store := newMemStore()
	store.addSubject(Subject{ID: 1})
	past := testNow.Add(-time.Hour)
	store.addOverride(Override{UserID: 1, Code: "reports.view", Action: ActionGrant, ExpiresAt: &past})
	grants := newTestGrants(store)

	if err := grants.Assign(context.Background(), OverrideParams{UserID: 1, Code: "reports.view"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	// The expired row does not satisfy the idempotence check.
	if got := countOverrides(store, ActionGrant); got != 2 {
		t.Fatalf("expected a fresh grant row next to the expired one, got %d", got)
	}
}

func TestAssignValidation(t *testing.T) {
	grants := newTestGrants(newMemStore())

	if err := grants.Assign(context.Background(), OverrideParams{Code: "reports.view"}); !errors.Is(err, ErrInvalidSubject) {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
	if err := grants.Assign(context.Background(), OverrideParams{UserID: 1}); err == nil {
		t.Fatalf("expected error for empty code")
	}
}

func TestAssignStoreFailure(t *testing.T) {
	store := newMemStore()
	store.failOp = "insert override"
	grants := newTestGrants(store)

	err := grants.Assign(context.Background(), OverrideParams{UserID: 1, Code: "reports.view"})
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}
