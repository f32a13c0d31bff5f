package authz

import (
	"context"
	"errors"
	"time"
)

// memStore is an in-memory Store for tests, one isolated instance per case.
type memStore struct {
	subjects  map[int64]Subject
	perms     map[string]Permission
	rolePerms map[int64]map[string]bool
	overrides []Override
	nextID    int64

	creators  map[string]map[int64]int64
	members   map[[2]int64]string
	followers map[[2]int64]bool

	// failOp makes the named operation return an error, to exercise the
	// store-failure propagation paths.
	failOp string
}

var errStoreDown = errors.New("store down")

func newMemStore() *memStore {
	return &memStore{
		subjects:  make(map[int64]Subject),
		perms:     make(map[string]Permission),
		rolePerms: make(map[int64]map[string]bool),
		creators:  make(map[string]map[int64]int64),
		members:   make(map[[2]int64]string),
		followers: make(map[[2]int64]bool),
	}
}

func (m *memStore) addSubject(s Subject) { m.subjects[s.ID] = s }

func (m *memStore) addPermission(p Permission) { m.perms[p.Code] = p }

func (m *memStore) addRolePerm(roleID int64, code string) {
	if m.rolePerms[roleID] == nil {
		m.rolePerms[roleID] = make(map[string]bool)
	}
	m.rolePerms[roleID][code] = true
}

func (m *memStore) addCreator(table string, entityID, userID int64) {
	if m.creators[table] == nil {
		m.creators[table] = make(map[int64]int64)
	}
	m.creators[table][entityID] = userID
}

func (m *memStore) addOverride(o Override) {
	m.nextID++
	o.ID = m.nextID
	m.overrides = append(m.overrides, o)
}

func (m *memStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return fn(m)
}

func (m *memStore) GetSubject(ctx context.Context, userID int64) (Subject, error) {
	if m.failOp == "get subject" {
		return Subject{}, errStoreDown
	}
	sub, ok := m.subjects[userID]
	if !ok {
		return Subject{}, ErrInvalidSubject
	}
	return sub, nil
}

func (m *memStore) GetPermission(ctx context.Context, code string) (*Permission, error) {
	if m.failOp == "get permission" {
		return nil, errStoreDown
	}
	p, ok := m.perms[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) RoleHasPermission(ctx context.Context, roleID int64, code string) (bool, error) {
	if m.failOp == "role permission" {
		return false, errStoreDown
	}
	return m.rolePerms[roleID][code], nil
}

func (m *memStore) ListRoleCodes(ctx context.Context, roleID int64) ([]string, error) {
	if m.failOp == "role codes" {
		return nil, errStoreDown
	}
	var codes []string
	for code := range m.rolePerms[roleID] {
		codes = append(codes, code)
	}
	return codes, nil
}

func sameKey(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *memStore) ListOverrides(ctx context.Context, userID int64, code string, companyID *int64) ([]Override, error) {
	if m.failOp == "list overrides" {
		return nil, errStoreDown
	}
	var out []Override
	for _, o := range m.overrides {
		if o.UserID == userID && o.Code == code && sameKey(o.CompanyID, companyID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) ListUserOverrides(ctx context.Context, userID int64, companyID *int64) ([]Override, error) {
	if m.failOp == "list overrides" {
		return nil, errStoreDown
	}
	var out []Override
	for _, o := range m.overrides {
		if o.UserID == userID && sameKey(o.CompanyID, companyID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) InsertOverride(ctx context.Context, o Override) error {
	if m.failOp == "insert override" {
		return errStoreDown
	}
	m.addOverride(o)
	return nil
}

func (m *memStore) DeleteOverrides(ctx context.Context, userID int64, code string, companyID *int64, action OverrideAction) (int64, error) {
	if m.failOp == "delete overrides" {
		return 0, errStoreDown
	}
	var kept []Override
	var removed int64
	for _, o := range m.overrides {
		if o.UserID == userID && o.Code == code && o.Action == action && sameKey(o.CompanyID, companyID) {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	m.overrides = kept
	return removed, nil
}

func (m *memStore) DeleteExpiredOverrides(ctx context.Context, before time.Time) (int64, error) {
	var kept []Override
	var removed int64
	for _, o := range m.overrides {
		if o.ExpiresAt != nil && !o.ExpiresAt.After(before) {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	m.overrides = kept
	return removed, nil
}

func (m *memStore) IsCreator(ctx context.Context, ownerTable string, entityID, userID int64) (bool, error) {
	if m.failOp == "is creator" {
		return false, errStoreDown
	}
	return m.creators[ownerTable][entityID] == userID, nil
}

func (m *memStore) MemberRole(ctx context.Context, companyID, userID int64) (string, bool, error) {
	if m.failOp == "member role" {
		return "", false, errStoreDown
	}
	role, ok := m.members[[2]int64{companyID, userID}]
	return role, ok, nil
}

func (m *memStore) Follower(ctx context.Context, companyID, userID int64) (bool, bool, error) {
	if m.failOp == "follower" {
		return false, false, errStoreDown
	}
	approved, ok := m.followers[[2]int64{companyID, userID}]
	return approved, ok, nil
}

var _ Store = (*memStore)(nil)

func ptr[T any](v T) *T { return &v }
