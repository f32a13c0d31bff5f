package authz

import "context"

// ScopeEvaluator decides visibility verdicts from ownership, membership and
// follower relations. Every branch fails closed: an unknown scope or a
// missing entity id denies rather than erroring.
type ScopeEvaluator struct {
	store Store
}

// NewScopeEvaluator constructs an evaluator over the given store.
func NewScopeEvaluator(store Store) *ScopeEvaluator {
	return &ScopeEvaluator{store: store}
}

// Evaluate applies the named scope for userID against the entity context.
func (e *ScopeEvaluator) Evaluate(ctx context.Context, scope Scope, userID int64, sc ScopeContext) (bool, error) {
	if scope == ScopeAll {
		return true, nil
	}
	// Every remaining scope tests a relation against a concrete entity.
	if sc.EntityID == nil {
		return false, nil
	}
	entityID := *sc.EntityID

	switch scope {
	case ScopeOwn:
		ok, err := e.store.IsCreator(ctx, sc.OwnerTable, entityID, userID)
		return ok, storeErr("is creator", err)

	case ScopeOwnPerm:
		ok, err := e.store.IsCreator(ctx, sc.OwnerTable, entityID, userID)
		if err != nil {
			return false, storeErr("is creator", err)
		}
		if ok {
			return true, nil
		}
		approved, found, err := e.store.Follower(ctx, entityID, userID)
		if err != nil {
			return false, storeErr("follower", err)
		}
		return found && approved, nil

	case ScopeFollowers:
		_, found, err := e.store.Follower(ctx, entityID, userID)
		return found, storeErr("follower", err)

	case ScopeApproved:
		approved, found, err := e.store.Follower(ctx, entityID, userID)
		if err != nil {
			return false, storeErr("follower", err)
		}
		return found && approved, nil

	case ScopeMembers:
		_, found, err := e.store.MemberRole(ctx, entityID, userID)
		return found, storeErr("member role", err)

	case ScopeAdmin:
		role, found, err := e.store.MemberRole(ctx, entityID, userID)
		if err != nil {
			return false, storeErr("member role", err)
		}
		return found && role == AdminMemberRole, nil
	}

	// Unrecognized scopes (including empty) deny.
	return false, nil
}
