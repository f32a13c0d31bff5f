package authz

import (
	"context"
	"testing"
)

func TestEvaluateAllIsPublic(t *testing.T) {
	eval := NewScopeEvaluator(newMemStore())
	ok, err := eval.Evaluate(context.Background(), ScopeAll, 1, ScopeContext{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !ok {
		t.Fatalf("expected 'all' to allow without an entity")
	}
}

func TestEvaluateMissingEntityFailsClosed(t *testing.T) {
	eval := NewScopeEvaluator(newMemStore())
	for _, scope := range []Scope{ScopeOwn, ScopeOwnPerm, ScopeFollowers, ScopeApproved, ScopeMembers, ScopeAdmin} {
		ok, err := eval.Evaluate(context.Background(), scope, 1, ScopeContext{OwnerTable: "companies"})
		if err != nil {
			t.Fatalf("evaluate %s: %v", scope, err)
		}
		if ok {
			t.Fatalf("expected scope %s without entity id to deny", scope)
		}
	}
}

func TestEvaluateUnknownScopeFailsClosed(t *testing.T) {
	eval := NewScopeEvaluator(newMemStore())
	for _, scope := range []Scope{"", "everything", "owner"} {
		ok, err := eval.Evaluate(context.Background(), scope, 1, ScopeContext{OwnerTable: "companies", EntityID: ptr[int64](1)})
		if err != nil {
			t.Fatalf("evaluate %q: %v", scope, err)
		}
		if ok {
			t.Fatalf("expected unknown scope %q to deny", scope)
		}
	}
}

func TestEvaluateOwn(t *testing.T) {
	store := newMemStore()
	store.addCreator("companies", 7, 1)
	eval := NewScopeEvaluator(store)

	ok, err := eval.Evaluate(context.Background(), ScopeOwn, 1, ScopeContext{OwnerTable: "companies", EntityID: ptr[int64](7)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !ok {
		t.Fatalf("expected creator to pass 'own'")
	}

	ok, err = eval.Evaluate(context.Background(), ScopeOwn, 2, ScopeContext{OwnerTable: "companies", EntityID: ptr[int64](7)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ok {
		t.Fatalf("expected non-creator to fail 'own'")
	}
}

func TestEvaluateOwnPerm(t *testing.T) {
	store := newMemStore()
	store.addCreator("companies", 7, 1)
	store.followers[[2]int64{7, 2}] = true  // approved follower
	store.followers[[2]int64{7, 3}] = false // pending follower
	eval := NewScopeEvaluator(store)

	cases := []struct {
		userID int64
		want   bool
	}{
		{1, true},  // creator
		{2, true},  // approved follower
		{3, false}, // unapproved follower
		{4, false}, // stranger
	}
	for _, tc := range cases {
		ok, err := eval.Evaluate(context.Background(), ScopeOwnPerm, tc.userID, ScopeContext{OwnerTable: "companies", EntityID: ptr[int64](7)})
		if err != nil {
			t.Fatalf("evaluate user %d: %v", tc.userID, err)
		}
		if ok != tc.want {
			t.Fatalf("user %d: expected %v, got %v", tc.userID, tc.want, ok)
		}
	}
}

func TestEvaluateFollowersIgnoresApproval(t *testing.T) {
	store := newMemStore()
	store.followers[[2]int64{7, 3}] = false
	eval := NewScopeEvaluator(store)

	ok, err := eval.Evaluate(context.Background(), ScopeFollowers, 3, ScopeContext{OwnerTable: "companies", EntityID: ptr[int64](7)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !ok {
		t.Fatalf("expected pending follower to pass 'followers'")
	}

	ok, err = eval.Evaluate(context.Background(), ScopeApproved, 3, ScopeContext{OwnerTable: "companies", EntityID: ptr[int64](7)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ok {
		t.Fatalf("expected pending follower to fail 'approved'")
	}
}

func TestEvaluateMembersAndAdmin(t *testing.T) {
	store := newMemStore()
	store.members[[2]int64{7, 1}] = "admin"
	store.members[[2]int64{7, 2}] = "recruiter"
	eval := NewScopeEvaluator(store)

	for _, tc := range []struct {
		scope  Scope
		userID int64
		want   bool
	}{
		{ScopeMembers, 1, true},
		{ScopeMembers, 2, true},
		{ScopeMembers, 3, false},
		{ScopeAdmin, 1, true},
		{ScopeAdmin, 2, false},
		{ScopeAdmin, 3, false},
	} {
		ok, err := eval.Evaluate(context.Background(), tc.scope, tc.userID, ScopeContext{OwnerTable: "companies", EntityID: ptr[int64](7)})
		if err != nil {
			t.Fatalf("evaluate %s user %d: %v", tc.scope, tc.userID, err)
		}
		if ok != tc.want {
			t.Fatalf("%s user %d: expected %v, got %v", tc.scope, tc.userID, tc.want, ok)
		}
	}
}
