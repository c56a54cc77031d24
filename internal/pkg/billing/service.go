package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/entitlements"
)

// Service reconciles payment webhooks into business plan state. Every event
// is applied at most once per provider reference.
type Service struct {
	repo     Repository
	gateways *Registry
	cfg      Config
	now      func() time.Time
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, gateways *Registry, cfg Config) *Service {
	return &Service{repo: repo, gateways: gateways, cfg: cfg, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle and the
// environment.
func NewServiceFromDB(db *gorm.DB) *Service {
	cfg := ConfigFromEnv()
	return NewService(NewRepository(db), NewDefaultRegistry(cfg), cfg)
}

// HandleWebhook verifies, parses and applies one delivery. Errors wrap
// ErrInvalidSignature, ErrInvalidPayload, ErrNotConfigured or
// ErrUnknownProvider so the transport can pick a status; anything else is a
// storage failure the gateway should retry.
func (s *Service) HandleWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) (*Result, error) {
	gw, err := s.gateways.Get(provider)
	if err != nil {
		return nil, err
	}
	if err := gw.Verify(payload, headers); err != nil {
		return nil, err
	}
	ev, err := gw.Parse(payload, headers)
	if err != nil {
		return nil, err
	}
	return s.Apply(ctx, ev, gw.Transition(ev.Type))
}

// Apply runs the idempotent part of reconciliation for an authentic event.
// State is written before the ledger row, so a failed ledger insert makes
// the gateway retry and the retry re-applies the same state.
func (s *Service) Apply(ctx context.Context, ev *Event, transition Transition) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{Transition: transition, Reference: ev.Reference}

	recorded, err := s.repo.EventRecorded(ev.Provider, ev.Reference)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}
	if recorded {
		res.Outcome = OutcomeDuplicate
		return res, nil
	}

	if transition == TransitionNone {
		res.Outcome = OutcomeIgnored
		return res, s.record(ev, "", res.Outcome)
	}

	biz, err := s.resolveBusiness(ev)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Billing] %s event %s (%s) matches no business", ev.Provider, ev.Reference, ev.Type)
			res.Outcome = OutcomeUnresolved
			return res, s.record(ev, "", res.Outcome)
		}
		return nil, fmt.Errorf("resolve business: %w", err)
	}
	res.BusinessID = biz.ID

	switch transition {
	case TransitionPro:
		if !s.cfg.amountAccepted(ev) {
			log.Warnf("[Billing] %s charge %s for business %s is below the %s price (%d)",
				ev.Provider, ev.Reference, biz.ID, ev.BillingCycle, ev.Amount)
			res.Outcome = OutcomeAmountMismatch
			return res, s.record(ev, biz.ID, res.Outcome)
		}
		if err := s.repo.ApplyPro(biz.ID, ev.SubscriptionRef, s.subscriptionEnd(ev)); err != nil {
			return nil, fmt.Errorf("apply pro: %w", err)
		}
	case TransitionFree:
		if err := s.downgrade(biz.ID); err != nil {
			return nil, err
		}
	}

	res.Outcome = OutcomeApplied
	if err := s.record(ev, biz.ID, res.Outcome); err != nil {
		return nil, err
	}
	log.Infof("[Billing] %s %s applied to business %s (%s)", ev.Provider, ev.Type, biz.ID, transition)
	return res, nil
}

// SweepLapsed downgrades pro businesses whose subscription ended more than
// the grace period ago. It covers cancellations whose webhook never arrived.
func (s *Service) SweepLapsed(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.GracePeriod)
	lapsed, err := s.repo.ListLapsedPro(cutoff)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, b := range lapsed {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := s.downgrade(b.ID); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}

func (s *Service) downgrade(businessID string) error {
	if err := s.repo.ApplyFree(businessID); err != nil {
		return fmt.Errorf("apply free: %w", err)
	}
	hidden, err := s.repo.DeactivateExcessProducts(businessID, entitlements.FreeProductLimit)
	if err != nil {
		return fmt.Errorf("deactivate products: %w", err)
	}
	if hidden > 0 {
		log.Infof("[Billing] business %s downgraded, %d products hidden", businessID, hidden)
	}
	return nil
}

// resolveBusiness prefers the id placed in checkout metadata and falls back
// to the customer email.
func (s *Service) resolveBusiness(ev *Event) (*models.Business, error) {
	if id := strings.TrimSpace(ev.BusinessID); id != "" {
		biz, err := s.repo.FindBusinessByID(id)
		if err == nil {
			return biz, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if email := strings.TrimSpace(ev.Email); email != "" {
		return s.repo.FindBusinessByEmail(email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Service) subscriptionEnd(ev *Event) time.Time {
	now := s.now().UTC()
	if ev.EndsAt != nil && ev.EndsAt.After(now) {
		return *ev.EndsAt
	}
	return periodEnd(now, ev.BillingCycle)
}

// record appends the ledger row. A duplicate insert means a concurrent
// delivery got there first, which is fine.
func (s *Service) record(ev *Event, businessID string, outcome Outcome) error {
	if _, err := s.repo.RecordEvent(ev, businessID, string(outcome), s.now().UTC()); err != nil {
		return fmt.Errorf("record %s event: %w", ev.Provider, err)
	}
	return nil
}
