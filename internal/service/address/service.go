package address

import (
	"context"
	"fmt"
	"strings"

	"storefront-checkout/internal/domain"
	addressrepo "storefront-checkout/internal/repository/address"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service manages an owner's delivery address book.
type Service struct {
	repo   addressrepo.Repository
	logger zerolog.Logger
}

func New(repo addressrepo.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "address_service").Logger(),
	}
}

type CreateInput struct {
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	ZipCode      string
}

func (in CreateInput) normalize() (domain.Address, error) {
	a := domain.Address{
		Street:       strings.TrimSpace(in.Street),
		Number:       strings.TrimSpace(in.Number),
		Complement:   strings.TrimSpace(in.Complement),
		Neighborhood: strings.TrimSpace(in.Neighborhood),
		City:         strings.TrimSpace(in.City),
		State:        strings.ToUpper(strings.TrimSpace(in.State)),
		ZipCode:      strings.TrimSpace(in.ZipCode),
	}
	required := []struct {
		name, value string
	}{
		{"street", a.Street},
		{"number", a.Number},
		{"neighborhood", a.Neighborhood},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
	}
	for _, f := range required {
		if f.value == "" {
			return a, fmt.Errorf("%w: %s is required", domain.ErrValidation, f.name)
		}
	}
	return a, nil
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Address, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	a, err := in.normalize()
	if err != nil {
		return nil, err
	}
	a.OwnerID = ownerID
	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("owner_id", ownerID).Str("address_id", created.ID).Msg("address created")
	return created, nil
}

// UpdateInput carries a partial change. Nil fields are left untouched.
type UpdateInput struct {
	Street       *string
	Number       *string
	Complement   *string
	Neighborhood *string
	City         *string
	State        *string
	ZipCode      *string
}

func (in UpdateInput) normalize() (addressrepo.UpdateInput, error) {
	var out addressrepo.UpdateInput
	fields := []struct {
		name     string
		src      *string
		dst      **string
		optional bool
	}{
		{"street", in.Street, &out.Street, false},
		{"number", in.Number, &out.Number, false},
		{"complement", in.Complement, &out.Complement, true},
		{"neighborhood", in.Neighborhood, &out.Neighborhood, false},
		{"city", in.City, &out.City, false},
		{"state", in.State, &out.State, false},
		{"zipCode", in.ZipCode, &out.ZipCode, false},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		v := strings.TrimSpace(*f.src)
		if v == "" && !f.optional {
			return out, fmt.Errorf("%w: %s cannot be blank", domain.ErrValidation, f.name)
		}
		*f.dst = &v
	}
	if out.State != nil {
		upper := strings.ToUpper(*out.State)
		out.State = &upper
	}
	return out, nil
}

// Update changes the given fields of one of the owner's addresses. Orders
// already placed keep the snapshot taken at checkout.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*domain.Address, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	change, err := in.normalize()
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, ownerID, id, change)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("owner_id", ownerID).Str("address_id", id).Msg("address updated")
	return updated, nil
}

// List returns the owner's addresses, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Address, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (*domain.Address, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetForOwner(ctx, ownerID, id)
}

// Delete removes an address. Orders placed with it keep their snapshot.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Debug().Str("owner_id", ownerID).Str("address_id", id).Msg("address deleted")
	return nil
}

func requireOwner(ownerID string) error {
	if _, err := uuid.Parse(ownerID); err != nil {
		return fmt.Errorf("%w: owner id required", domain.ErrValidation)
	}
	return nil
}
