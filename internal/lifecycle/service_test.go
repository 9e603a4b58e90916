package lifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"giving-hand-api-server/internal/lifecycle"
	"giving-hand-api-server/internal/metrics"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/socket"
	"giving-hand-api-server/internal/store"
	"giving-hand-api-server/internal/store/sqlstore"
	"giving-hand-api-server/internal/ticket"
)

var (
	org     = models.Actor{ID: "USR-ORG", Name: "Nile Hotel", Role: models.RoleOrganization}
	charity = models.Actor{ID: "USR-CHARITY", Name: "Food Bank", Role: models.RoleCharity}
	factory = models.Actor{ID: "USR-FACTORY", Name: "Green Feed", Role: models.RoleFactory}
)

type recorder struct {
	mu     sync.Mutex
	events map[string][]string
}

func (r *recorder) Publish(userID string, ev socket.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = map[string][]string{}
	}
	r.events[userID] = append(r.events[userID], ev.Type)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc     *lifecycle.Service
	store   *sqlstore.Store
	push    *recorder
	clock   *clock
	metrics *metrics.Metrics
}

func setup(t *testing.T) fixture {
	t.Helper()
	st, err := sqlstore.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })

	fx := fixture{
		store:   st,
		push:    &recorder{},
		clock:   &clock{t: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)},
		metrics: metrics.New(),
	}
	fx.svc = lifecycle.New(st,
		lifecycle.WithNotifier(fx.push),
		lifecycle.WithMetrics(fx.metrics),
		lifecycle.WithClock(fx.clock.now),
	)
	return fx
}

func (fx fixture) draft(capability models.DeliveryCapability, expiresIn time.Duration) ticket.Draft {
	return ticket.Draft{
		FoodType:   "Grilled chicken",
		Category:   models.CategoryPrepared,
		WeightKg:   5.5,
		Pieces:     20,
		ExpiryDate: fx.clock.t.Add(expiresIn),
		PickupFrom: "10:00",
		PickupTo:   "14:00",
		Capability: capability,
	}
}

func TestRoundTrip_SelfPickup(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	posted, err := fx.svc.CreateTicket(ctx, org, fx.draft(models.CapabilityNone, 24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if posted.Status != models.StatusPending || posted.Kind != models.KindDonation {
		t.Fatalf("posted ticket = %s/%s", posted.Kind, posted.Status)
	}

	available, err := fx.svc.AvailableToRecipients(ctx)
	if err != nil || len(available) != 1 {
		t.Fatalf("available = %d, %v", len(available), err)
	}

	if _, err := fx.svc.Accept(ctx, charity, posted.ID); err != nil {
		t.Fatal(err)
	}
	methods, err := fx.svc.DeliveryMethods(ctx, charity, posted.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]models.DeliveryMethod{models.MethodSelfPickup, models.MethodShipping}, methods); diff != "" {
		t.Errorf("methods (-want +got):\n%s", diff)
	}

	outcome, got, err := fx.svc.SelectDeliveryMethod(ctx, charity, posted.ID, models.MethodSelfPickup, 0)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != ticket.MethodConfirmed || got.DeliveryMethod != models.MethodSelfPickup {
		t.Errorf("outcome %v method %s", outcome, got.DeliveryMethod)
	}

	records, err := fx.store.Tracking().List(ctx, store.TrackingFilter{TicketID: posted.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("tracking records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Status != models.TrackingPending || rec.RecipientID != charity.ID || rec.Quantity != "5.5 kg (20 pcs)" {
		t.Errorf("tracking record = %+v", rec)
	}

	if left, _ := fx.svc.AvailableToRecipients(ctx); len(left) != 0 {
		t.Errorf("accepted ticket still listed as available")
	}
	if diff := cmp.Diff([]string{socket.EventTicketAccepted}, fx.push.events[org.ID]); diff != "" {
		t.Errorf("org events (-want +got):\n%s", diff)
	}
}

func TestOrganizationDelivery_Idempotent(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	posted, _ := fx.svc.CreateTicket(ctx, org, fx.draft(models.CapabilityAcceptsRequests, 24*time.Hour))
	if _, err := fx.svc.Accept(ctx, charity, posted.ID); err != nil {
		t.Fatal(err)
	}

	first, _, err := fx.svc.SelectDeliveryMethod(ctx, charity, posted.ID, models.MethodOrganizationDelivery, 25)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := fx.svc.SelectDeliveryMethod(ctx, charity, posted.ID, models.MethodOrganizationDelivery, 25)
	if err != nil {
		t.Fatal(err)
	}
	if first != ticket.DeliveryRequested || second != ticket.AlreadyRequested {
		t.Errorf("outcomes = %v, %v", first, second)
	}
	if _, _, err := fx.svc.SelectDeliveryMethod(ctx, charity, posted.ID, models.MethodSelfPickup, 0); !errors.Is(err, ticket.ErrRequestPending) {
		t.Errorf("switch while pending: got %v", err)
	}

	reqs, _ := fx.store.DeliveryRequests().List(ctx, store.DeliveryRequestFilter{OrganizationID: org.ID})
	if len(reqs) != 1 || reqs[0].Status != models.DeliveryRequestPending || reqs[0].Fee != 25 {
		t.Fatalf("delivery requests = %+v", reqs)
	}
	records, _ := fx.store.Tracking().List(ctx, store.TrackingFilter{TicketID: posted.ID})
	if len(records) != 1 {
		t.Fatalf("tracking records after repeat request = %d, want 1", len(records))
	}

	if _, err := fx.svc.ResolveDeliveryRequest(ctx, charity, posted.ID, true); !errors.Is(err, ticket.ErrNotAllowed) {
		t.Errorf("recipient resolving: got %v", err)
	}
	resolved, err := fx.svc.ResolveDeliveryRequest(ctx, org, posted.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.OrganizationDeliveryStatus != models.OrgDeliveryAccepted || resolved.Status != models.StatusAccepted {
		t.Errorf("resolved ticket = %s/%s", resolved.Status, resolved.OrganizationDeliveryStatus)
	}

	req, _ := fx.store.DeliveryRequests().GetByTicket(ctx, posted.ID)
	if req.Status != models.DeliveryRequestAccepted {
		t.Errorf("request status = %s", req.Status)
	}
	records, _ = fx.store.Tracking().List(ctx, store.TrackingFilter{TicketID: posted.ID})
	statuses := []models.TrackingStatus{}
	for i, r := range records {
		statuses = append(statuses, r.Status)
		if r.Seq != i+1 {
			t.Errorf("record %d has seq %d", i, r.Seq)
		}
	}
	if diff := cmp.Diff([]models.TrackingStatus{models.TrackingPending, models.TrackingInTransit}, statuses); diff != "" {
		t.Errorf("tracking statuses (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{socket.EventDeliveryRequestResolved}, fx.push.events[charity.ID]); diff != "" {
		t.Errorf("recipient events (-want +got):\n%s", diff)
	}
}

func TestDeclinedRequest_CanBeReplaced(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	posted, _ := fx.svc.CreateTicket(ctx, org, fx.draft(models.CapabilitySelfDelivery, 24*time.Hour))
	fx.svc.Accept(ctx, charity, posted.ID)
	if _, _, err := fx.svc.SelectDeliveryMethod(ctx, charity, posted.ID, models.MethodOrganizationDelivery, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.svc.ResolveDeliveryRequest(ctx, org, posted.ID, false); err != nil {
		t.Fatal(err)
	}

	outcome, got, err := fx.svc.SelectDeliveryMethod(ctx, charity, posted.ID, models.MethodShipping, 0)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != ticket.MethodConfirmed || got.DeliveryMethod != models.MethodShipping || got.OrganizationDeliveryStatus != "" {
		t.Errorf("after decline: %v %s %q", outcome, got.DeliveryMethod, got.OrganizationDeliveryStatus)
	}
	req, _ := fx.store.DeliveryRequests().GetByTicket(ctx, posted.ID)
	if req.Status != models.DeliveryRequestDeclined {
		t.Errorf("request status = %s, want declined", req.Status)
	}
}

func TestExpiredFood_GoesToFactories(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	posted, err := fx.svc.CreateTicket(ctx, org, fx.draft(models.CapabilityNone, -time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if posted.Status != models.StatusExpired || posted.Kind != models.KindConversion {
		t.Fatalf("posted = %s/%s, want conversion/expired", posted.Kind, posted.Status)
	}
	if _, err := fx.svc.Accept(ctx, charity, posted.ID); !errors.Is(err, ticket.ErrNotAllowed) {
		t.Errorf("charity accepting expired food: got %v", err)
	}

	queue, err := fx.svc.FactoryQueue(ctx, factory.ID)
	if err != nil || len(queue) != 1 {
		t.Fatalf("factory queue = %d, %v", len(queue), err)
	}

	claimed, err := fx.svc.FactoryAccept(ctx, factory, posted.ID, "truck at 16:00")
	if err != nil {
		t.Fatal(err)
	}
	if claimed.FactoryID != factory.ID || claimed.FactoryDeliveryNote != "truck at 16:00" {
		t.Errorf("claimed = %+v", claimed)
	}
	converted, err := fx.svc.Convert(ctx, factory, posted.ID)
	if err != nil {
		t.Fatal(err)
	}
	if converted.ConversionStatus != models.ConversionConverted {
		t.Errorf("conversion = %s", converted.ConversionStatus)
	}
	if _, err := fx.svc.FactoryDecline(ctx, factory, posted.ID); !errors.Is(err, ticket.ErrInvalidTransition) {
		t.Errorf("decline after convert: got %v", err)
	}

	queue, _ = fx.svc.FactoryQueue(ctx, factory.ID)
	if len(queue) != 1 || queue[0].ConversionStatus != models.ConversionConverted {
		t.Errorf("factory history = %+v", queue)
	}
	if diff := cmp.Diff([]string{socket.EventFactoryTicketClaimed, socket.EventTicketConverted}, fx.push.events[org.ID]); diff != "" {
		t.Errorf("org events (-want +got):\n%s", diff)
	}
}

func TestExpireOverdue(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	soon, _ := fx.svc.CreateTicket(ctx, org, fx.draft(models.CapabilityNone, time.Hour))
	later, _ := fx.svc.CreateTicket(ctx, org, fx.draft(models.CapabilityNone, 48*time.Hour))
	taken, _ := fx.svc.CreateTicket(ctx, org, fx.draft(models.CapabilityNone, time.Hour))
	if _, err := fx.svc.Accept(ctx, charity, taken.ID); err != nil {
		t.Fatal(err)
	}

	fx.clock.advance(2 * time.Hour)
	n, err := fx.svc.ExpireOverdue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expired %d tickets, want 1", n)
	}

	for id, want := range map[string]models.TicketStatus{
		soon.ID:  models.StatusExpired,
		later.ID: models.StatusPending,
		taken.ID: models.StatusAccepted,
	} {
		got, _ := fx.svc.Get(ctx, id)
		if got.Status != want {
			t.Errorf("%s: status %s, want %s", id, got.Status, want)
		}
	}
	if n, _ := fx.svc.ExpireOverdue(ctx); n != 0 {
		t.Errorf("second sweep expired %d", n)
	}
	if got := testutil.ToFloat64(fx.metrics.Expired); got != 1 {
		t.Errorf("expired counter = %v", got)
	}
}

func TestExpireOverdue_ExpiryWithOffset(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	d := fx.draft(models.CapabilityNone, 30*time.Minute)
	d.ExpiryDate = d.ExpiryDate.In(time.FixedZone("+03:00", 3*60*60))
	posted, err := fx.svc.CreateTicket(ctx, org, d)
	if err != nil {
		t.Fatal(err)
	}
	if available, _ := fx.svc.AvailableToRecipients(ctx); len(available) != 1 {
		t.Fatalf("available before expiry = %d, want 1", len(available))
	}

	fx.clock.advance(time.Hour)
	if available, _ := fx.svc.AvailableToRecipients(ctx); len(available) != 0 {
		t.Errorf("expired food still offered: %d tickets", len(available))
	}
	n, err := fx.svc.ExpireOverdue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expired %d tickets, want 1", n)
	}
	if got, _ := fx.svc.Get(ctx, posted.ID); got.Status != models.StatusExpired {
		t.Errorf("status = %s, want expired", got.Status)
	}
}

func TestAccept_FirstWriterWins(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	posted, _ := fx.svc.CreateTicket(ctx, org, fx.draft(models.CapabilityNone, 24*time.Hour))

	const racers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := models.Actor{ID: fmt.Sprintf("USR-C%d", i), Name: "racer", Role: models.RoleCharity}
			_, err := fx.svc.Accept(ctx, actor, posted.ID)
			switch {
			case err == nil:
				mu.Lock()
				wins++
				mu.Unlock()
			case errors.Is(err, store.ErrConflict), errors.Is(err, ticket.ErrInvalidTransition):
			default:
				t.Errorf("racer %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("%d racers won, want exactly 1", wins)
	}
	if got := testutil.ToFloat64(fx.metrics.Transitions.WithLabelValues("accept", "ok")); got != 1 {
		t.Errorf("accept/ok counter = %v", got)
	}
}

func TestMissingTicket(t *testing.T) {
	fx := setup(t)
	if _, err := fx.svc.Accept(context.Background(), charity, "TKT-NOPE"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
