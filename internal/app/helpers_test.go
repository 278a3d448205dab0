package app

import (
	"context"
	"testing"
	"time"

	"github.com/cimillas/asset-reservations/internal/clock"
	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/cimillas/asset-reservations/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

var (
	alice = domain.Principal{ID: "alice", Role: domain.RoleBusinessUser}
	bob   = domain.Principal{ID: "bob", Role: domain.RoleBusinessUser}
	admin = domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}
)

func june(day int) time.Time {
	return time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC)
}

func window(from, to int) domain.Window {
	return domain.Window{Start: june(from), End: june(to)}
}

type harness struct {
	store        *memory.Store
	clock        *clock.Manual
	availability *AvailabilityService
	reservations *ReservationService
	lifecycle    *LifecycleService
	queries      *QueryService
	catalog      *CatalogService
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	store, err := memory.New()
	require.NoError(t, err)
	clk := clock.NewManual(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC), time.Millisecond)

	availability := NewAvailabilityService(store, clk, opts...)
	return &harness{
		store:        store,
		clock:        clk,
		availability: availability,
		reservations: NewReservationService(store, clk, opts...),
		lifecycle:    NewLifecycleService(store, clk, opts...),
		queries:      NewQueryService(store),
		catalog:      NewCatalogService(store, availability, clk, opts...),
	}
}

func (h *harness) asset(t *testing.T, qty int) domain.Asset {
	t.Helper()
	a, err := h.catalog.CreateAsset(context.Background(), admin, CreateAssetInput{
		Name:          "Excavator",
		Type:          "equipment",
		Location:      "Lagos yard",
		TotalQuantity: qty,
	})
	require.NoError(t, err)
	return a
}

func (h *harness) reserve(t *testing.T, p domain.Principal, assetID string, w domain.Window, qty int) domain.Reservation {
	t.Helper()
	r, err := h.reservations.RequestReservation(context.Background(), p, CreateReservationInput{
		AssetID:  assetID,
		Window:   w,
		Quantity: qty,
		Purpose:  "road works",
	})
	require.NoError(t, err)
	return r
}

func (h *harness) audits(t *testing.T, reservationID string) []string {
	t.Helper()
	entries, err := h.store.ListAudits(context.Background(), reservationID)
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}
