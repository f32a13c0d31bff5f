package authz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"
)

// Resolver is the authorization decision engine. It is stateless apart from
// its store handle; concurrent resolutions interleave freely.
type Resolver struct {
	store  Store
	scopes *ScopeEvaluator
	group  singleflight.Group
	now    func() time.Time
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{
		store:  store,
		scopes: NewScopeEvaluator(store),
		now:    time.Now,
	}
}

// HasPermission resolves (user, code, company) to an allow/deny verdict.
// Precedence, in strict order: unexpired revoke override denies, unexpired
// grant override allows, direct role association allows, and finally the
// permission's configured access level delegates to scope evaluation. When
// nothing decides, the verdict is deny.
func (r *Resolver) HasPermission(ctx context.Context, userID int64, code string, companyID *int64) (bool, error) {
	if userID <= 0 {
		return false, ErrInvalidSubject
	}

	overrides, err := r.store.ListOverrides(ctx, userID, code, companyID)
	if err != nil {
		return false, storeErr("list overrides", err)
	}
	now := r.now()
	var granted bool
	for _, o := range overrides {
		if !o.ActiveAt(now) {
			continue
		}
		// Revoke wins over any grant in the same batch, so it cannot be
		// short-circuited by row order.
		if o.Action == ActionRevoke {
			return false, nil
		}
		if o.Action == ActionGrant {
			granted = true
		}
	}
	if granted {
		return true, nil
	}

	sub, err := r.store.GetSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrInvalidSubject) {
			return false, err
		}
		return false, storeErr("get subject", err)
	}
	if sub.RoleID != nil {
		ok, err := r.store.RoleHasPermission(ctx, *sub.RoleID, code)
		if err != nil {
			return false, storeErr("role permission", err)
		}
		if ok {
			return true, nil
		}
	}

	perm, err := r.store.GetPermission(ctx, code)
	if err != nil {
		return false, storeErr("get permission", err)
	}
	if perm == nil || perm.AccessLevel == "" {
		// No role grant and no configured scope: inaccessible by default.
		return false, nil
	}
	return r.scopes.Evaluate(ctx, perm.AccessLevel, userID, ScopeContext{
		OwnerTable: OwnerTableFor(code),
		EntityID:   companyID,
	})
}

// EffectivePermissions returns the sorted union of role-derived codes and
// unexpired granted overrides, minus unexpired revoked codes. Revoke wins
// over role here exactly as in HasPermission. Concurrent callers for the
// same key share one computation.
func (r *Resolver) EffectivePermissions(ctx context.Context, userID int64, companyID *int64) ([]string, error) {
	if userID <= 0 {
		return nil, ErrInvalidSubject
	}
	key := fmt.Sprintf("%d", userID)
	if companyID != nil {
		key = fmt.Sprintf("%d:%d", userID, *companyID)
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.effectivePermissions(ctx, userID, companyID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (r *Resolver) effectivePermissions(ctx context.Context, userID int64, companyID *int64) ([]string, error) {
	sub, err := r.store.GetSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrInvalidSubject) {
			return nil, err
		}
		return nil, storeErr("get subject", err)
	}

	codes := make(map[string]struct{})
	if sub.RoleID != nil {
		roleCodes, err := r.store.ListRoleCodes(ctx, *sub.RoleID)
		if err != nil {
			return nil, storeErr("role codes", err)
		}
		for _, code := range roleCodes {
			codes[code] = struct{}{}
		}
	}

	overrides, err := r.store.ListUserOverrides(ctx, userID, companyID)
	if err != nil {
		return nil, storeErr("list overrides", err)
	}
	now := r.now()
	revoked := make(map[string]struct{})
	for _, o := range overrides {
		if !o.ActiveAt(now) {
			continue
		}
		switch o.Action {
		case ActionGrant:
			codes[o.Code] = struct{}{}
		case ActionRevoke:
			revoked[o.Code] = struct{}{}
		}
	}
	for code := range revoked {
		delete(codes, code)
	}

	out := make([]string, 0, len(codes))
	for code := range codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}
