package features

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cimillas/asset-reservations/internal/app"
	"github.com/cimillas/asset-reservations/internal/clock"
	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/cimillas/asset-reservations/internal/storage/memory"
	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

var adminPrincipal = domain.Principal{ID: "admin", Role: domain.RoleAdmin}

type reservationTestContext struct {
	store        *memory.Store
	availability *app.AvailabilityService
	reservations *app.ReservationService
	lifecycle    *app.LifecycleService
	catalog      *app.CatalogService

	assets map[string]domain.Asset
	last   domain.Reservation
	err    error
}

func (c *reservationTestContext) reset() error {
	store, err := memory.New()
	if err != nil {
		return err
	}
	clk := clock.NewManual(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC), time.Millisecond)
	c.store = store
	c.availability = app.NewAvailabilityService(store, clk)
	c.reservations = app.NewReservationService(store, clk)
	c.lifecycle = app.NewLifecycleService(store, clk)
	c.catalog = app.NewCatalogService(store, c.availability, clk)
	c.assets = map[string]domain.Asset{}
	c.last = domain.Reservation{}
	c.err = nil
	return nil
}

func user(name string) domain.Principal {
	return domain.Principal{ID: name, Role: domain.RoleBusinessUser}
}

func (c *reservationTestContext) anAssetWithUnits(name string, units int) error {
	a, err := c.catalog.CreateAsset(context.Background(), adminPrincipal, app.CreateAssetInput{Name: name, TotalQuantity: units})
	if err != nil {
		return err
	}
	c.assets[name] = a
	return nil
}

func (c *reservationTestContext) requestsUnits(who string, qty int, assetName, from, to string) error {
	asset, ok := c.assets[assetName]
	if !ok {
		return fmt.Errorf("unknown asset %q", assetName)
	}
	w, err := domain.ParseWindow(from, to)
	if err != nil {
		return err
	}
	r, err := c.reservations.RequestReservation(context.Background(), user(who), app.CreateReservationInput{
		AssetID:  asset.ID,
		Window:   w,
		Quantity: qty,
		Purpose:  "scenario",
	})
	c.err = err
	if err == nil {
		c.last = r
	}
	return nil
}

func (c *reservationTestContext) theRequestIsAccepted() error {
	if c.err != nil {
		return fmt.Errorf("expected acceptance, got %v", c.err)
	}
	return nil
}

func (c *reservationTestContext) theRequestIsRejectedForCapacity(remaining int) error {
	var capErr *domain.InsufficientCapacityError
	if !errors.As(c.err, &capErr) {
		return fmt.Errorf("expected insufficient capacity, got %v", c.err)
	}
	if capErr.Remaining != remaining {
		return fmt.Errorf("expected %d remaining, got %d", remaining, capErr.Remaining)
	}
	return nil
}

func (c *reservationTestContext) hasUnitsAvailable(assetName string, want int, from, to string) error {
	w, err := domain.ParseWindow(from, to)
	if err != nil {
		return err
	}
	got, err := c.availability.AvailableFor(context.Background(), c.assets[assetName].ID, w)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %d available, got %d", want, got)
	}
	return nil
}

func (c *reservationTestContext) paysForTheLastReservation(who, amount string) error {
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	_, c.err = c.lifecycle.RecordPayment(context.Background(), user(who), app.RecordPaymentInput{
		ReservationID: c.last.ID,
		Amount:        amt,
	})
	return nil
}

func (c *reservationTestContext) cancelsTheLastReservation(who string) error {
	_, c.err = c.lifecycle.Cancel(context.Background(), user(who), c.last.ID)
	return nil
}

func (c *reservationTestContext) anAdminSetsTheLastReservationTo(status string) error {
	_, c.err = c.lifecycle.SetStatus(context.Background(), adminPrincipal, c.last.ID, domain.ReservationStatus(status))
	return c.err
}

func (c *reservationTestContext) ratesTheLastReservation(who string, rating int) error {
	_, c.err = c.lifecycle.SubmitFeedback(context.Background(), user(who), app.SubmitFeedbackInput{
		ReservationID: c.last.ID,
		Rating:        rating,
	})
	return nil
}

func (c *reservationTestContext) theLastReservationIsWithPayment(status, payment string) error {
	r, err := c.store.GetReservation(context.Background(), c.last.ID)
	if err != nil {
		return err
	}
	if string(r.Status) != status || string(r.PaymentStatus) != payment {
		return fmt.Errorf("expected %s/%s, got %s/%s", status, payment, r.Status, r.PaymentStatus)
	}
	return nil
}

func (c *reservationTestContext) theAuditTrailIs(trail string) error {
	entries, err := c.store.ListAudits(context.Background(), c.last.ID)
	if err != nil {
		return err
	}
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	if got := strings.Join(actions, ", "); got != trail {
		return fmt.Errorf("expected audit trail %q, got %q", trail, got)
	}
	return nil
}

func (c *reservationTestContext) theLastCallFailsWith(msg string) error {
	if c.err == nil {
		return errors.New("expected an error, got none")
	}
	if !strings.Contains(c.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, c.err.Error())
	}
	return nil
}

func (c *reservationTestContext) theLastCallSucceeds() error {
	return c.err
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &reservationTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})

	// Given steps
	ctx.Step(`^an asset "([^"]*)" with (\d+) units$`, tc.anAssetWithUnits)

	// When steps
	ctx.Step(`^"([^"]*)" requests (\d+) units of "([^"]*)" from "([^"]*)" to "([^"]*)"$`, tc.requestsUnits)
	ctx.Step(`^"([^"]*)" pays ([\d.]+) for the last reservation$`, tc.paysForTheLastReservation)
	ctx.Step(`^"([^"]*)" cancels the last reservation$`, tc.cancelsTheLastReservation)
	ctx.Step(`^an admin sets the last reservation to "([^"]*)"$`, tc.anAdminSetsTheLastReservationTo)
	ctx.Step(`^"([^"]*)" rates the last reservation (\d+)$`, tc.ratesTheLastReservation)

	// Then steps
	ctx.Step(`^the request is accepted$`, tc.theRequestIsAccepted)
	ctx.Step(`^the request is rejected for capacity with (\d+) remaining$`, tc.theRequestIsRejectedForCapacity)
	ctx.Step(`^"([^"]*)" has (\d+) units available from "([^"]*)" to "([^"]*)"$`, tc.hasUnitsAvailable)
	ctx.Step(`^the last reservation is "([^"]*)" with payment "([^"]*)"$`, tc.theLastReservationIsWithPayment)
	ctx.Step(`^the audit trail of the last reservation is "([^"]*)"$`, tc.theAuditTrailIs)
	ctx.Step(`^the last call fails with "([^"]*)"$`, tc.theLastCallFailsWith)
	ctx.Step(`^the last call succeeds$`, tc.theLastCallSucceeds)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"reservations.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
