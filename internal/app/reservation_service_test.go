package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestReservationService_CapacityScenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	asset := h.asset(t, 5)

	a := h.reserve(t, alice, asset.ID, window(1, 5), 3)
	require.Equal(t, domain.StatusPending, a.Status)
	require.Equal(t, domain.PaymentUnpaid, a.PaymentStatus)
	require.True(t, strings.HasPrefix(a.ReferenceCode, "BK-"))
	require.Len(t, a.ReferenceCode, 9)
	require.Nil(t, a.TotalAmount)

	free, err := h.availability.AvailableFor(ctx, asset.ID, window(1, 5))
	require.NoError(t, err)
	require.Equal(t, 2, free)

	_, err = h.reservations.RequestReservation(ctx, bob, CreateReservationInput{
		AssetID: asset.ID, Window: window(1, 5), Quantity: 3, Purpose: "event",
	})
	var capErr *domain.InsufficientCapacityError
	require.True(t, errors.As(err, &capErr))
	require.Equal(t, 2, capErr.Remaining)
	require.ErrorIs(t, err, domain.ErrInsufficientCapacity)

	b := h.reserve(t, bob, asset.ID, window(6, 10), 2)
	require.Equal(t, bob.ID, b.RequesterID)

	require.Equal(t, []string{domain.ActionCreated}, h.audits(t, a.ID))
	entries, err := h.store.ListAudits(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, "bob", *entries[0].PerformedBy)
	require.Equal(t, domain.StatusPending, entries[0].Details.To)
}

func TestReservationService_BoundaryTouchConflicts(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	asset := h.asset(t, 1)
	h.reserve(t, alice, asset.ID, window(1, 5), 1)

	_, err := h.reservations.RequestReservation(context.Background(), bob, CreateReservationInput{
		AssetID: asset.ID, Window: window(5, 10), Quantity: 1, Purpose: "event",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientCapacity)
}

func TestReservationService_ReleasedCapacity(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	asset := h.asset(t, 1)

	r := h.reserve(t, alice, asset.ID, window(1, 5), 1)
	_, err := h.lifecycle.Cancel(ctx, alice, r.ID)
	require.NoError(t, err)

	h.reserve(t, bob, asset.ID, window(1, 5), 1)
}

func TestReservationService_OverdueStillHolds(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	asset := h.asset(t, 1)

	r := h.reserve(t, alice, asset.ID, window(1, 5), 1)
	_, err := h.lifecycle.SetStatus(ctx, admin, r.ID, domain.StatusInPossession)
	require.NoError(t, err)
	_, err = h.lifecycle.SetStatus(ctx, domain.SystemPrincipal(), r.ID, domain.StatusOverdue)
	require.NoError(t, err)

	_, err = h.reservations.RequestReservation(ctx, bob, CreateReservationInput{
		AssetID: asset.ID, Window: window(3, 4), Quantity: 1, Purpose: "event",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientCapacity)
}

func TestReservationService_Validation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	asset := h.asset(t, 3)

	tests := []struct {
		name  string
		in    CreateReservationInput
		field string
	}{
		{name: "missing asset", in: CreateReservationInput{Window: window(1, 2), Quantity: 1, Purpose: "x"}, field: "asset_id"},
		{name: "reversed window", in: CreateReservationInput{AssetID: asset.ID, Window: window(5, 2), Quantity: 1, Purpose: "x"}, field: "window"},
		{name: "missing start", in: CreateReservationInput{AssetID: asset.ID, Window: domain.Window{End: june(2)}, Quantity: 1, Purpose: "x"}, field: "window.start"},
		{name: "zero quantity", in: CreateReservationInput{AssetID: asset.ID, Window: window(1, 2), Quantity: 0, Purpose: "x"}, field: "quantity"},
		{name: "blank purpose", in: CreateReservationInput{AssetID: asset.ID, Window: window(1, 2), Quantity: 1, Purpose: "  "}, field: "purpose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.reservations.RequestReservation(context.Background(), alice, tt.in)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			require.Equal(t, tt.field, verr.Field)
		})
	}

	rows, err := h.store.ListReservations(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestReservationService_UnknownOrInactiveAsset(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	_, err := h.reservations.RequestReservation(ctx, alice, CreateReservationInput{
		AssetID: "missing", Window: window(1, 2), Quantity: 1, Purpose: "x",
	})
	require.ErrorIs(t, err, domain.ErrAssetNotFound)

	require.NoError(t, h.store.CreateAsset(ctx, domain.Asset{ID: "retired", Name: "Old truck", TotalQuantity: 4}))
	_, err = h.reservations.RequestReservation(ctx, alice, CreateReservationInput{
		AssetID: "retired", Window: window(1, 2), Quantity: 1, Purpose: "x",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReservationService_RequiresPrincipal(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	asset := h.asset(t, 1)

	_, err := h.reservations.RequestReservation(context.Background(), domain.Principal{}, CreateReservationInput{
		AssetID: asset.ID, Window: window(1, 2), Quantity: 1, Purpose: "x",
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReservationService_NoOverbookingUnderConcurrency(t *testing.T) {
	t.Parallel()

	const (
		capacity = 3
		workers  = 25
	)

	h := newHarness(t)
	asset := h.asset(t, capacity)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		rejected int
		other    []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			p := domain.Principal{ID: "user-" + string(rune('a'+i)), Role: domain.RoleBusinessUser}
			_, err := h.reservations.RequestReservation(context.Background(), p, CreateReservationInput{
				AssetID:  asset.ID,
				Window:   window(1+i%3, 6+i%3),
				Quantity: 1,
				Purpose:  "festival",
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, domain.ErrInsufficientCapacity):
				rejected++
			default:
				other = append(other, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	require.Equal(t, capacity, admitted)
	require.Equal(t, workers-capacity, rejected)

	rows, err := h.store.ListHolding(context.Background(), asset.ID, domain.WindowHoldingStatuses)
	require.NoError(t, err)
	require.Len(t, rows, capacity)
}
