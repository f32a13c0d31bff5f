package authz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hirelink/hirelink/internal/shared"
)

// Decision outcomes reported to the metrics recorder.
const (
	OutcomeAllowed      = "allowed"
	OutcomeDenied       = "denied"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

// DecisionRecorder counts gate verdicts; satisfied by observability.Metrics.
type DecisionRecorder interface {
	RecordDecision(outcome string)
}

// Gate is the consumer-facing facade: it layers authentication-state
// preconditions over the resolver and turns denial into a terminal error
// for the request-handling layer.
type Gate struct {
	store    Store
	resolver *Resolver
	logger   *slog.Logger
	metrics  DecisionRecorder
	now      func() time.Time
}

// NewGate constructs a Gate. The metrics recorder may be nil.
func NewGate(store Store, resolver *Resolver, logger *slog.Logger, metrics DecisionRecorder) *Gate {
	return &Gate{store: store, resolver: resolver, logger: logger, metrics: metrics, now: time.Now}
}

// Require checks that the context carries an authenticated, unblocked subject
// holding the permission. On success it returns the subject; otherwise it
// returns ErrUnauthorized, a DenialError, or a propagated store failure.
func (g *Gate) Require(ctx context.Context, code string, companyID *int64) (*Subject, error) {
	return g.require(ctx, code, companyID, false)
}

// RequireVerified is the full-check variant: the subject must additionally
// have a verified contact channel.
func (g *Gate) RequireVerified(ctx context.Context, code string, companyID *int64) (*Subject, error) {
	return g.require(ctx, code, companyID, true)
}

// Allows reports the verdict as a plain boolean for conditional branching
// inside business logic. Faults and missing authentication read as false;
// use Require when the caller must distinguish them.
func (g *Gate) Allows(ctx context.Context, code string, companyID *int64) bool {
	_, err := g.require(ctx, code, companyID, false)
	return err == nil
}

func (g *Gate) require(ctx context.Context, code string, companyID *int64, needVerified bool) (*Subject, error) {
	userID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		g.count(OutcomeUnauthorized)
		return nil, ErrUnauthorized
	}

	sub, err := g.store.GetSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrInvalidSubject) {
			g.count(OutcomeUnauthorized)
			return nil, err
		}
		g.fail("get subject", err)
		return nil, storeErr("get subject", err)
	}

	now := g.now()
	if sub.Blocked(now) {
		g.count(OutcomeDenied)
		return nil, &DenialError{Reason: ReasonBlocked, BlockedUntil: sub.BlockedUntil}
	}
	if needVerified && !sub.Verified {
		g.count(OutcomeDenied)
		return nil, &DenialError{Reason: ReasonUnverified}
	}

	allowed, err := g.resolver.HasPermission(ctx, userID, code, companyID)
	if err != nil {
		g.fail("resolve", err)
		return nil, err
	}
	if !allowed {
		g.count(OutcomeDenied)
		return nil, &DenialError{Reason: ReasonMissingPermission, Code: code}
	}
	g.count(OutcomeAllowed)
	return &sub, nil
}

func (g *Gate) count(outcome string) {
	if g.metrics != nil {
		g.metrics.RecordDecision(outcome)
	}
}

func (g *Gate) fail(op string, err error) {
	g.count(OutcomeError)
	if g.logger != nil {
		g.logger.Error("authz gate", slog.String("op", op), slog.Any("error", err))
	}
}
