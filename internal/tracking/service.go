package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/marisolvega/funnelmail-backend/pkg/db/models"
	"github.com/marisolvega/funnelmail-backend/pkg/enums"
	pkgerrors "github.com/marisolvega/funnelmail-backend/pkg/errors"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
	"github.com/marisolvega/funnelmail-backend/pkg/token"
)

// Service consumes signed tracking tokens and records the engagement events
// they represent.
type Service interface {
	RecordOpen(ctx context.Context, rawToken string) error
	// RecordClick verifies the token and records the click. The target URL is
	// returned so the handler can redirect regardless of recording outcome.
	RecordClick(ctx context.Context, rawToken, targetURL string) error
	// Unsubscribe verifies the token, adds the recipient to the registry and
	// records the event. Returns the unsubscribed address.
	Unsubscribe(ctx context.Context, rawToken string) (string, error)
}

// eventRecorder is the slice of the delivery log this package needs.
type eventRecorder interface {
	RecordEvent(ctx context.Context, event *models.EmailEvent) error
}

// unsubscriber registers an opt-out and cancels pending sends.
type unsubscriber interface {
	Unsubscribe(ctx context.Context, email string) (int64, error)
}

type ServiceParams struct {
	Signer       *token.Signer
	Events       eventRecorder
	Unsubscribes unsubscriber
	Logger       *logger.Logger
}

type service struct {
	signer *token.Signer
	events eventRecorder
	unsubs unsubscriber
	logg   *logger.Logger
}

// NewService wires tracking dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Signer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "token signer required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event recorder required")
	}
	if params.Unsubscribes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "unsubscribe service required")
	}
	return &service{
		signer: params.Signer,
		events: params.Events,
		unsubs: params.Unsubscribes,
		logg:   params.Logger,
	}, nil
}

func (s *service) RecordOpen(ctx context.Context, rawToken string) error {
	claims, err := s.signer.Parse(rawToken, token.KindOpen)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTokenInvalid, err, "invalid open token")
	}
	return s.record(ctx, claims, enums.EmailEventOpened, nil)
}

func (s *service) RecordClick(ctx context.Context, rawToken, targetURL string) error {
	claims, err := s.signer.Parse(rawToken, token.KindClick)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTokenInvalid, err, "invalid click token")
	}
	data, _ := json.Marshal(map[string]string{"url": targetURL})
	return s.record(ctx, claims, enums.EmailEventClicked, data)
}

func (s *service) Unsubscribe(ctx context.Context, rawToken string) (string, error) {
	claims, err := s.signer.Parse(rawToken, token.KindUnsubscribe)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeTokenInvalid, err, "invalid unsubscribe token")
	}
	if claims.Email == "" {
		return "", pkgerrors.New(pkgerrors.CodeTokenInvalid, "unsubscribe token carries no address")
	}
	if _, err := s.unsubs.Unsubscribe(ctx, claims.Email); err != nil {
		return "", err
	}
	if err := s.record(ctx, claims, enums.EmailEventUnsubscribed, nil); err != nil {
		// The opt-out itself committed; a lost event row must not fail the page.
		if s.logg != nil {
			s.logg.Warn(ctx, "recording unsubscribe event: "+err.Error())
		}
	}
	return claims.Email, nil
}

func (s *service) record(ctx context.Context, claims *token.Claims, action enums.EmailEventAction, data json.RawMessage) error {
	event := &models.EmailEvent{
		EmailID:   claims.JobID,
		Action:    action,
		Timestamp: time.Now().UTC(),
		EventData: data,
	}
	if err := s.events.RecordEvent(ctx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record email event")
	}
	if s.logg != nil {
		logCtx := s.logg.WithJobID(ctx, claims.JobID)
		logCtx = s.logg.WithField(logCtx, "action", string(action))
		s.logg.Info(logCtx, "engagement event recorded")
	}
	return nil
}
