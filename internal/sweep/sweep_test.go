package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cimillas/asset-reservations/internal/app"
	"github.com/cimillas/asset-reservations/internal/clock"
	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/cimillas/asset-reservations/internal/storage/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	admin = domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}
	user  = domain.Principal{ID: "u-1", Role: domain.RoleBusinessUser}
)

type fixture struct {
	store     *memory.Store
	clock     *clock.Manual
	lifecycle *app.LifecycleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := memory.New()
	require.NoError(t, err)
	clk := clock.NewManual(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), time.Millisecond)
	return &fixture{store: store, clock: clk, lifecycle: app.NewLifecycleService(store, clk)}
}

// inPossession reserves the whole of June 1-3 and hands the unit out.
func (f *fixture) inPossession(t *testing.T) domain.Reservation {
	t.Helper()
	ctx := context.Background()
	availability := app.NewAvailabilityService(f.store, f.clock)
	asset, err := app.NewCatalogService(f.store, availability, f.clock).
		CreateAsset(ctx, admin, app.CreateAssetInput{Name: "Crane", TotalQuantity: 2})
	require.NoError(t, err)

	w, err := domain.ParseWindow("2025-06-01", "2025-06-03")
	require.NoError(t, err)
	r, err := app.NewReservationService(f.store, f.clock).RequestReservation(ctx, user, app.CreateReservationInput{
		AssetID:  asset.ID,
		Window:   w,
		Quantity: 1,
		Purpose:  "lift",
	})
	require.NoError(t, err)

	r, err = f.lifecycle.SetStatus(ctx, admin, r.ID, domain.StatusInPossession)
	require.NoError(t, err)
	return r
}

func TestOnce_MarksEndedLoansOverdue(t *testing.T) {
	f := newFixture(t)
	r := f.inPossession(t)

	res, err := New(f.lifecycle, nil, false).Once(context.Background())
	require.NoError(t, err)
	require.Equal(t, Result{}, res, "window has not ended yet")

	f.clock.Set(time.Date(2025, 6, 4, 8, 0, 0, 0, time.UTC))
	res, err = New(f.lifecycle, nil, false).Once(context.Background())
	require.NoError(t, err)
	require.Equal(t, Result{Candidates: 1, Marked: 1}, res)

	got, err := f.store.GetReservation(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOverdue, got.Status)

	audits, err := f.store.ListAudits(context.Background(), r.ID)
	require.NoError(t, err)
	last := audits[len(audits)-1]
	require.Equal(t, domain.ActionStatusUpdated, last.Action)
	require.Nil(t, last.PerformedBy, "sweep acts as the system")

	res, err = New(f.lifecycle, nil, false).Once(context.Background())
	require.NoError(t, err)
	require.Zero(t, res.Candidates, "overdue reservations are not swept twice")
}

// interleaved runs between listing and marking, like an admin acting
// while a pass is in flight.
type interleaved struct {
	*app.LifecycleService
	between func()
}

func (i interleaved) OverdueCandidates(ctx context.Context) ([]domain.Reservation, error) {
	list, err := i.LifecycleService.OverdueCandidates(ctx)
	i.between()
	return list, err
}

func TestOnce_SkipsReservationChangedAfterListing(t *testing.T) {
	f := newFixture(t)
	r := f.inPossession(t)
	f.clock.Set(time.Date(2025, 6, 4, 8, 0, 0, 0, time.UTC))

	lifecycle := interleaved{LifecycleService: f.lifecycle, between: func() {
		_, err := f.lifecycle.SetStatus(context.Background(), admin, r.ID, domain.StatusReturned)
		require.NoError(t, err)
	}}
	res, err := New(lifecycle, nil, false).Once(context.Background())
	require.NoError(t, err)
	require.Equal(t, Result{Candidates: 1}, res)

	got, err := f.store.GetReservation(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReturned, got.Status)
}

func TestOnce_DryRunChangesNothing(t *testing.T) {
	f := newFixture(t)
	r := f.inPossession(t)
	f.clock.Set(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	core, logs := observer.New(zapcore.InfoLevel)
	res, err := New(f.lifecycle, zap.New(core), true).Once(context.Background())
	require.NoError(t, err)
	require.Equal(t, Result{Candidates: 1}, res)
	require.Equal(t, 1, logs.FilterMessage("would mark overdue").Len())

	got, err := f.store.GetReservation(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInPossession, got.Status)
}

type fakeLifecycle struct {
	candidates []domain.Reservation
	listErr    error
	setErrs    map[string]error
}

func (f *fakeLifecycle) OverdueCandidates(context.Context) ([]domain.Reservation, error) {
	return f.candidates, f.listErr
}

func (f *fakeLifecycle) MarkOverdue(_ context.Context, id string) (domain.Reservation, error) {
	return domain.Reservation{ID: id}, f.setErrs[id]
}

func TestOnce_ErrorHandling(t *testing.T) {
	t.Run("continues past per-row failures", func(t *testing.T) {
		fake := &fakeLifecycle{
			candidates: []domain.Reservation{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			setErrs: map[string]error{
				"a": domain.ErrInvalidTransition,
				"b": errors.New("boom"),
			},
		}
		res, err := New(fake, nil, false).Once(context.Background())
		require.NoError(t, err)
		require.Equal(t, Result{Candidates: 3, Marked: 1, Failed: 1}, res)
	})

	t.Run("stops when storage is down", func(t *testing.T) {
		fake := &fakeLifecycle{
			candidates: []domain.Reservation{{ID: "a"}, {ID: "b"}},
			setErrs:    map[string]error{"a": domain.ErrStorageUnavailable},
		}
		_, err := New(fake, nil, false).Once(context.Background())
		require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})

	t.Run("list failure", func(t *testing.T) {
		fake := &fakeLifecycle{listErr: domain.ErrStorageUnavailable}
		require.ErrorIs(t, New(fake, nil, false).Run(context.Background(), 0), domain.ErrStorageUnavailable)
	})
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, New(&fakeLifecycle{}, nil, false).Run(ctx, time.Minute))
}
