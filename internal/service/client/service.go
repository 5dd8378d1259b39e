package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"storefront-checkout/internal/domain"
	clientrepo "storefront-checkout/internal/repository/client"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
	maxNameLength  = 100
)

// WelcomeSender delivers the greeting sent to clients who message the store.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, phone string) error
}

// Service registers phone-identified clients and answers inbound gateway
// messages.
type Service struct {
	repo     clientrepo.Repository
	welcome  WelcomeSender
	cooldown time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func New(repo clientrepo.Repository, welcome WelcomeSender, cooldown time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		welcome:  welcome,
		cooldown: cooldown,
		now:      time.Now,
		logger:   logger.With().Str("component", "client_service").Logger(),
	}
}

// Register creates the client for phone, or renames the existing one.
func (s *Service) Register(ctx context.Context, phone, name string) (*domain.Client, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if len([]rune(name)) > maxNameLength {
		return nil, fmt.Errorf("%w: name longer than %d characters", domain.ErrValidation, maxNameLength)
	}
	c, err := s.repo.UpsertByPhone(ctx, phone, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("client_id", c.ID).Msg("client registered")
	return c, nil
}

func (s *Service) Login(ctx context.Context, phone string) (*domain.Client, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByPhone(ctx, phone)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Client, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// InboundResult describes what HandleInbound did with a gateway message.
type InboundResult struct {
	Client  *domain.Client
	Welcome bool
}

// HandleInbound reacts to a message a client sent to the store number. The
// sender is registered if unknown and greeted unless a greeting went out
// within the cooldown. Delivery failures are logged, not returned.
func (s *Service) HandleInbound(ctx context.Context, phone, senderName string) (*InboundResult, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetByPhone(ctx, phone)
	if errors.Is(err, domain.ErrNotFound) {
		c, err = s.repo.UpsertByPhone(ctx, phone, strings.TrimSpace(senderName))
	}
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	claimed, err := s.repo.ClaimMessageSlot(ctx, c.ID, now, now.Add(-s.cooldown))
	if err != nil {
		return nil, err
	}
	res := &InboundResult{Client: c}
	if !claimed {
		s.logger.Debug().Str("client_id", c.ID).Msg("welcome skipped, cooldown active")
		return res, nil
	}
	if s.welcome == nil {
		return res, nil
	}
	if err := s.welcome.SendWelcome(ctx, phone); err != nil {
		s.logger.Warn().Err(err).Str("client_id", c.ID).Msg("welcome message failed")
		return res, nil
	}
	res.Welcome = true
	s.logger.Info().Str("client_id", c.ID).Msg("welcome message sent")
	return res, nil
}

// NormalizePhone strips formatting from a phone number and checks that what
// remains is a plausible international number.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", fmt.Errorf("%w: phone contains %q", domain.ErrValidation, r)
		}
	}
	phone := b.String()
	if len(phone) < minPhoneDigits || len(phone) > maxPhoneDigits || phone[0] == '0' {
		return "", fmt.Errorf("%w: phone must have %d to %d digits", domain.ErrValidation, minPhoneDigits, maxPhoneDigits)
	}
	return phone, nil
}
