package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-checkout/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	byPhone map[string]*domain.Client
}

func newStubRepo() *stubRepo {
	return &stubRepo{byPhone: map[string]*domain.Client{}}
}

func (r *stubRepo) UpsertByPhone(_ context.Context, phone, name string) (*domain.Client, error) {
	c, ok := r.byPhone[phone]
	if !ok {
		c = &domain.Client{ID: uuid.NewString(), Phone: phone}
		r.byPhone[phone] = c
	}
	if name != "" {
		c.Name = name
	}
	out := *c
	return &out, nil
}

func (r *stubRepo) GetByID(_ context.Context, id string) (*domain.Client, error) {
	for _, c := range r.byPhone {
		if c.ID == id {
			out := *c
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubRepo) GetByPhone(_ context.Context, phone string) (*domain.Client, error) {
	c, ok := r.byPhone[phone]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (r *stubRepo) ClaimMessageSlot(_ context.Context, id string, now, notBefore time.Time) (bool, error) {
	for _, c := range r.byPhone {
		if c.ID != id {
			continue
		}
		if c.LastMessageAt != nil && c.LastMessageAt.After(notBefore) {
			return false, nil
		}
		c.LastMessageAt = &now
		return true, nil
	}
	return false, domain.ErrNotFound
}

type recordingSender struct {
	sent []string
	err  error
}

func (s *recordingSender) SendWelcome(_ context.Context, phone string) error {
	s.sent = append(s.sent, phone)
	return s.err
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "+55 (81) 99999-0000", want: "5581999990000"},
		{in: "5581999990000", want: "5581999990000"},
		{in: "81 9999", wantErr: true},
		{in: "05581999990000", wantErr: true},
		{in: "5581abc990000", wantErr: true},
		{in: "1234567890123456", wantErr: true},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if tc.wantErr {
			assert.ErrorIsf(t, err, domain.ErrValidation, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestRegisterIsCreateOrRename(t *testing.T) {
	svc := New(newStubRepo(), nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Register(ctx, "+55 81 99999-0000", "Ana")
	require.NoError(t, err)
	second, err := svc.Register(ctx, "5581999990000", "Ana Maria")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ana Maria", second.Name)

	_, err = svc.Register(ctx, "5581999990000", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLoginAndGet(t *testing.T) {
	svc := New(newStubRepo(), nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Login(ctx, "5581999990000")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c, err := svc.Register(ctx, "5581999990000", "Ana")
	require.NoError(t, err)

	got, err := svc.Login(ctx, "+55 81 99999 0000")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	got, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)

	_, err = svc.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleInboundRespectsCooldown(t *testing.T) {
	repo := newStubRepo()
	sender := &recordingSender{}
	svc := New(repo, sender, 30*time.Minute, zerolog.Nop())
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	ctx := context.Background()

	res, err := svc.HandleInbound(ctx, "5581999990000", "Ana")
	require.NoError(t, err)
	assert.True(t, res.Welcome)
	assert.Equal(t, "Ana", res.Client.Name)

	clock = clock.Add(10 * time.Minute)
	res, err = svc.HandleInbound(ctx, "5581999990000", "Ana")
	require.NoError(t, err)
	assert.False(t, res.Welcome)

	clock = clock.Add(25 * time.Minute)
	res, err = svc.HandleInbound(ctx, "5581999990000", "Someone else")
	require.NoError(t, err)
	assert.True(t, res.Welcome)
	assert.Equal(t, "Ana", res.Client.Name, "inbound messages never rename a known client")

	assert.Equal(t, []string{"5581999990000", "5581999990000"}, sender.sent)
}

func TestHandleInboundSwallowsSendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("gateway down")}
	svc := New(newStubRepo(), sender, time.Minute, zerolog.Nop())

	res, err := svc.HandleInbound(context.Background(), "5581999990000", "")
	require.NoError(t, err)
	assert.False(t, res.Welcome)
	assert.Len(t, sender.sent, 1)
}

func TestHandleInboundRejectsBadPhone(t *testing.T) {
	sender := &recordingSender{}
	svc := New(newStubRepo(), sender, time.Minute, zerolog.Nop())

	_, err := svc.HandleInbound(context.Background(), "abc", "Ana")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, sender.sent)
}
