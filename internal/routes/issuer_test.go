package routes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store"
	"rsvp-workers/internal/store/memstore"
)

// ==========================
// Test Doubles
// ==========================

// collidingStore rejects the first K inserts as if another writer won the code.
type collidingStore struct {
	*memstore.Store
	remaining int64
}

func (c *collidingStore) CreateRoute(ctx context.Context, r *models.Route) error {
	if atomic.AddInt64(&c.remaining, -1) >= 0 {
		return store.ErrDuplicateCode
	}
	return c.Store.CreateRoute(ctx, r)
}

type brokenStore struct {
	*memstore.Store
}

func (brokenStore) RouteExists(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

// sequence returns codes in order, then a counter-based unique tail.
func sequence(codes ...string) func() (string, error) {
	var (
		mu sync.Mutex
		n  int
	)
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		if n <= len(codes) {
			return codes[n-1], nil
		}
		return fmt.Sprintf("GEN%013d", n), nil
	}
}

// ==========================
// Issue
// ==========================

func TestIssuer_Issue(t *testing.T) {
	s := memstore.New()
	issuer := NewIssuer(s, logger.NewTestLogger(t))

	pid := int64(3)
	route, err := issuer.Issue(context.Background(), &pid)
	require.NoError(t, err)

	assert.Len(t, route.Code, 16)
	assert.False(t, route.Used)
	require.NotNil(t, route.ParticipantID)
	assert.Equal(t, pid, *route.ParticipantID)

	stored, err := s.GetRoute(context.Background(), route.Code)
	require.NoError(t, err)
	assert.False(t, stored.Used)
}

func TestIssuer_Issue_RetriesOnExistingCode(t *testing.T) {
	s := memstore.New()
	require.NoError(t, s.CreateRoute(context.Background(), &models.Route{Code: "TAKEN"}))

	issuer := NewIssuer(s, logger.NewTestLogger(t), WithGenerator(sequence("TAKEN", "TAKEN", "FRESH")))

	route, err := issuer.Issue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "FRESH", route.Code)
	assert.Nil(t, route.ParticipantID)
}

func TestIssuer_Issue_RetriesOnInsertViolation(t *testing.T) {
	s := &collidingStore{Store: memstore.New(), remaining: 2}
	issuer := NewIssuer(s, logger.NewTestLogger(t), WithGenerator(sequence("A", "B", "C")))

	route, err := issuer.Issue(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "C", route.Code)
}

func TestIssuer_Issue_CodeSpaceExhausted(t *testing.T) {
	s := memstore.New()
	require.NoError(t, s.CreateRoute(context.Background(), &models.Route{Code: "SAME"}))

	always := func() (string, error) { return "SAME", nil }
	issuer := NewIssuer(s, logger.NewTestLogger(t), WithGenerator(always), WithMaxAttempts(25))

	_, err := issuer.Issue(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCodeSpaceExhausted))
}

func TestIssuer_Issue_DefaultBound(t *testing.T) {
	s := memstore.New()
	require.NoError(t, s.CreateRoute(context.Background(), &models.Route{Code: "SAME"}))

	var draws int
	always := func() (string, error) { draws++; return "SAME", nil }
	issuer := NewIssuer(s, logger.NewNoOpLogger(), WithGenerator(always))

	_, err := issuer.Issue(context.Background(), nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCodeSpaceExhausted))
	assert.Equal(t, MaxAttempts, draws)
}

func TestIssuer_Issue_StorageFailure(t *testing.T) {
	issuer := NewIssuer(brokenStore{memstore.New()}, logger.NewTestLogger(t))

	_, err := issuer.Issue(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageFailure))
}

func TestIssuer_Issue_GeneratorFailure(t *testing.T) {
	failing := func() (string, error) { return "", errors.New("entropy unavailable") }
	issuer := NewIssuer(memstore.New(), logger.NewTestLogger(t), WithGenerator(failing))

	_, err := issuer.Issue(context.Background(), nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInternalError))
}

func TestIssuer_Issue_ConcurrentWithCollisions(t *testing.T) {
	const n, k = 50, 20

	base := memstore.New()
	s := &collidingStore{Store: base, remaining: k}
	issuer := NewIssuer(s, logger.NewTestLogger(t))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[string]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			route, err := issuer.Issue(context.Background(), nil)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			codes[route.Code] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, codes, n)
	for code := range codes {
		ok, err := base.RouteExists(context.Background(), code)
		require.NoError(t, err)
		assert.True(t, ok, code)
	}
}

// ==========================
// IssueMissing
// ==========================

func TestIssuer_IssueMissing(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	for _, phone := range []string{"111", "222", "333"} {
		require.NoError(t, s.CreateParticipant(ctx, &models.Participant{Name: "P" + phone, Phone: phone}))
	}
	issuer := NewIssuer(s, logger.NewTestLogger(t))

	first, err := issuer.Issue(ctx, int64Ptr(1))
	require.NoError(t, err)
	require.NotNil(t, first)

	n, err := issuer.IssueMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := s.ParticipantsWithoutRoute(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)

	n, err = issuer.IssueMissing(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func int64Ptr(v int64) *int64 { return &v }
