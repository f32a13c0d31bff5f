package authz

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hirelink/hirelink/internal/shared"
)

// Grants manages the override lifecycle: assigning and revoking per-user
// permission facts with idempotence and grant/revoke supersession.
type Grants struct {
	store  Store
	audit  *shared.AuditLogger
	logger *slog.Logger
	now    func() time.Time
}

// NewGrants constructs a Grants manager.
func NewGrants(store Store, audit *shared.AuditLogger, logger *slog.Logger) *Grants {
	return &Grants{store: store, audit: audit, logger: logger, now: time.Now}
}

func (g *Grants) validate(p OverrideParams) error {
	if p.UserID <= 0 {
		return ErrInvalidSubject
	}
	if p.Code == "" {
		return errors.New("authz: permission code required")
	}
	return nil
}

// Assign records a grant override for the (user, code, company) key. A prior
// revoke for the same key is deleted in the same transaction (a new grant
// supersedes it), and an already-active grant makes the call a no-op. The
// delete, idempotence check and insert run atomically so two concurrent
// assigns cannot both insert.
func (g *Grants) Assign(ctx context.Context, p OverrideParams) error {
	if err := g.validate(p); err != nil {
		return err
	}
	now := g.now()
	err := g.store.WithinTx(ctx, func(tx Store) error {
		if _, err := tx.DeleteOverrides(ctx, p.UserID, p.Code, p.CompanyID, ActionRevoke); err != nil {
			return err
		}
		rows, err := tx.ListOverrides(ctx, p.UserID, p.Code, p.CompanyID)
		if err != nil {
			return err
		}
		for _, o := range rows {
			if o.Action == ActionGrant && o.ActiveAt(now) {
				return nil
			}
		}
		return tx.InsertOverride(ctx, Override{
			UserID:    p.UserID,
			Code:      p.Code,
			CompanyID: p.CompanyID,
			Action:    ActionGrant,
			GrantedBy: p.GrantedBy,
			Note:      p.Note,
			ExpiresAt: p.ExpiresAt,
			CreatedAt: now,
		})
	})
	if err != nil {
		return storeErr("assign override", err)
	}
	g.record(ctx, "permission.grant", p)
	return nil
}

// Revoke records a revoke override for the (user, code, company) key.
// Idempotent: an already-active revoke makes the call a no-op. A prior grant
// row is intentionally left in place; resolver precedence guarantees the
// revoke wins while the grant history stays available for audit.
func (g *Grants) Revoke(ctx context.Context, p OverrideParams) error {
	if err := g.validate(p); err != nil {
		return err
	}
	now := g.now()
	err := g.store.WithinTx(ctx, func(tx Store) error {
		rows, err := tx.ListOverrides(ctx, p.UserID, p.Code, p.CompanyID)
		if err != nil {
			return err
		}
		for _, o := range rows {
			if o.Action == ActionRevoke && o.ActiveAt(now) {
				return nil
			}
		}
		return tx.InsertOverride(ctx, Override{
			UserID:    p.UserID,
			Code:      p.Code,
			CompanyID: p.CompanyID,
			Action:    ActionRevoke,
			GrantedBy: p.GrantedBy,
			Note:      p.Note,
			ExpiresAt: p.ExpiresAt,
			CreatedAt: now,
		})
	})
	if err != nil {
		return storeErr("revoke override", err)
	}
	g.record(ctx, "permission.revoke", p)
	return nil
}

func (g *Grants) record(ctx context.Context, action string, p OverrideParams) {
	if g.audit == nil {
		return
	}
	var actor int64
	if p.GrantedBy != nil {
		actor = *p.GrantedBy
	}
	meta := map[string]any{"code": p.Code, "key": p.Key()}
	if p.Note != "" {
		meta["note"] = p.Note
	}
	if p.ExpiresAt != nil {
		meta["expires_at"] = p.ExpiresAt.UTC().Format(time.RFC3339)
	}
	log := shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "user_permission_overrides",
		EntityID: strconv.FormatInt(p.UserID, 10),
		Meta:     meta,
	}
	if err := g.audit.Record(ctx, log); err != nil && g.logger != nil {
		g.logger.Warn("audit override", slog.Any("error", err))
	}
}
