package sqlstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store"
	"giving-hand-api-server/internal/store/sqlstore"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func open(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func ticket(id, org string, status models.TicketStatus, expiry time.Time) *models.FoodTicket {
	return &models.FoodTicket{
		ID:                 id,
		OrganizationID:     org,
		OrganizationName:   "Org " + org,
		FoodType:           "Rice",
		Category:           models.CategoryPrepared,
		WeightKg:           3,
		ExpiryDate:         expiry,
		DeliveryCapability: models.CapabilitySelfDelivery,
		Kind:               models.KindDonation,
		Status:             status,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestTickets_UpdateIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	orig := ticket("TK-1", "org-1", models.StatusPending, now.Add(24*time.Hour))
	if err := s.Tickets().Insert(ctx, orig); err != nil {
		t.Fatalf("insert: %v", err)
	}

	first, _ := s.Tickets().Get(ctx, "TK-1")
	second, _ := s.Tickets().Get(ctx, "TK-1")

	first.Status = models.StatusAccepted
	first.AcceptedByID = "charity-1"
	if err := s.Tickets().Update(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("version after update = %d, want 1", first.Version)
	}

	second.Status = models.StatusDeclined
	if err := s.Tickets().Update(ctx, second); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale update: got %v, want ErrConflict", err)
	}
	if second.Version != 0 {
		t.Errorf("stale version was bumped to %d", second.Version)
	}

	got, err := s.Tickets().Get(ctx, "TK-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusAccepted || got.AcceptedByID != "charity-1" {
		t.Errorf("stored ticket = %s/%s, want accepted by charity-1", got.Status, got.AcceptedByID)
	}

	missing := ticket("TK-404", "org-1", models.StatusPending, now)
	if err := s.Tickets().Update(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing: got %v, want ErrNotFound", err)
	}
}

func TestTickets_ListFilters(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	for _, tk := range []*models.FoodTicket{
		ticket("TK-A", "org-1", models.StatusPending, now.Add(time.Hour)),
		ticket("TK-B", "org-1", models.StatusPending, now.Add(-time.Hour)),
		ticket("TK-C", "org-2", models.StatusAccepted, now.Add(time.Hour)),
	} {
		if err := s.Tickets().Insert(ctx, tk); err != nil {
			t.Fatal(err)
		}
	}

	ids := func(list []models.FoodTicket) []string {
		out := []string{}
		for _, tk := range list {
			out = append(out, tk.ID)
		}
		return out
	}

	for name, tc := range map[string]struct {
		filter store.TicketFilter
		want   []string
	}{
		"by organization": {
			filter: store.TicketFilter{OrganizationID: "org-1"},
			want:   []string{"TK-A", "TK-B"},
		},
		"pending and not expired": {
			filter: store.TicketFilter{Statuses: []models.TicketStatus{models.StatusPending}, ExpiresAfter: now},
			want:   []string{"TK-A"},
		},
		"overdue": {
			filter: store.TicketFilter{ExpiresBy: now},
			want:   []string{"TK-B"},
		},
		"nothing matches": {
			filter: store.TicketFilter{FactoryID: "factory-1"},
			want:   []string{},
		},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := s.Tickets().List(ctx, tc.filter)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, ids(got)); diff != "" {
				t.Errorf("ids (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeliveryRequests_UpsertReusesTicketRow(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	req := &models.DeliveryRequest{
		ID: "DR-1", TicketID: "TK-1", OrganizationID: "org-1",
		RecipientID: "charity-1", Status: models.DeliveryRequestDeclined,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := s.DeliveryRequests().Upsert(ctx, req); err != nil {
		t.Fatal(err)
	}
	again := &models.DeliveryRequest{
		ID: "DR-2", TicketID: "TK-1", OrganizationID: "org-1",
		RecipientID: "charity-1", Status: models.DeliveryRequestPending,
		CreatedAt: now.Add(time.Hour), UpdatedAt: now.Add(time.Hour),
	}
	if err := s.DeliveryRequests().Upsert(ctx, again); err != nil {
		t.Fatal(err)
	}

	all, err := s.DeliveryRequests().List(ctx, store.DeliveryRequestFilter{OrganizationID: "org-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d requests, want 1", len(all))
	}
	if all[0].ID != "DR-1" || all[0].Status != models.DeliveryRequestPending {
		t.Errorf("request = %s/%s, want DR-1/pending", all[0].ID, all[0].Status)
	}
}

func TestUsers_DuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	u := &models.User{ID: "u-1", Email: "a@example.org", Role: models.RoleCharity, CreatedAt: now}
	if err := s.Users().Insert(ctx, u); err != nil {
		t.Fatal(err)
	}
	dup := &models.User{ID: "u-2", Email: "a@example.org", Role: models.RoleGuest, CreatedAt: now}
	if err := s.Users().Insert(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate email: got %v, want ErrConflict", err)
	}
	if _, err := s.Users().GetByEmail(ctx, "nobody@example.org"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown email: got %v, want ErrNotFound", err)
	}
	n, err := s.Users().Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("count = %d, %v; want 1", n, err)
	}
}

func TestTracking_StatusAndProof(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	rec := &models.TrackingRecord{
		ID: "MT-1", TicketID: "TK-1", RecipientID: "charity-1",
		DeliveryMethod: models.MethodSelfPickup, Status: models.TrackingPending,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := s.Tracking().Append(ctx, rec); err != nil {
		t.Fatal(err)
	}
	later := now.Add(time.Hour)
	if err := s.Tracking().UpdateStatus(ctx, "MT-1", models.TrackingDelivered, later); err != nil {
		t.Fatal(err)
	}
	if err := s.Tracking().AttachProof(ctx, "MT-1", "https://cdn.example.org/p.jpg", later); err != nil {
		t.Fatal(err)
	}
	if err := s.Tracking().UpdateStatus(ctx, "MT-404", models.TrackingDelivered, later); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing record: got %v, want ErrNotFound", err)
	}

	got, err := s.Tracking().Get(ctx, "MT-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.TrackingDelivered || got.ProofURL != "https://cdn.example.org/p.jpg" {
		t.Errorf("record = %+v", got)
	}
}

func TestTickets_ExpiryFiltersAcrossOffsets(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	riyadh := time.FixedZone("+03:00", 3*60*60)
	bogota := time.FixedZone("-05:00", -5*60*60)
	stale := ticket("TK-STALE", "org-1", models.StatusPending, now.Add(-time.Hour).In(riyadh))
	fresh := ticket("TK-FRESH", "org-1", models.StatusPending, now.Add(time.Hour).In(bogota))
	for _, tk := range []*models.FoodTicket{stale, fresh} {
		if err := s.Tickets().Insert(ctx, tk); err != nil {
			t.Fatal(err)
		}
	}

	tests := map[string]struct {
		filter store.TicketFilter
		want   []string
	}{
		"still fresh": {store.TicketFilter{ExpiresAfter: now}, []string{"TK-FRESH"}},
		"overdue":     {store.TicketFilter{ExpiresBy: now}, []string{"TK-STALE"}},
		"bound in another offset": {
			store.TicketFilter{ExpiresAfter: now.In(riyadh)}, []string{"TK-FRESH"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			list, err := s.Tickets().List(ctx, tc.filter)
			if err != nil {
				t.Fatal(err)
			}
			got := []string{}
			for _, tk := range list {
				got = append(got, tk.ID)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ids (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTracking_SameInstantKeepsSequence(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	// IDs sort opposite to the log order.
	for _, rec := range []*models.TrackingRecord{
		{ID: "MT-A", TicketID: "TK-1", Seq: 2, Status: models.TrackingInTransit, CreatedAt: now, UpdatedAt: now},
		{ID: "MT-B", TicketID: "TK-1", Seq: 1, Status: models.TrackingPending, CreatedAt: now, UpdatedAt: now},
	} {
		if err := s.Tracking().Append(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.Tracking().List(ctx, store.TrackingFilter{TicketID: "TK-1"})
	if err != nil {
		t.Fatal(err)
	}
	got := []string{}
	for _, r := range list {
		got = append(got, r.ID)
	}
	if diff := cmp.Diff([]string{"MT-B", "MT-A"}, got); diff != "" {
		t.Errorf("log order (-want +got):\n%s", diff)
	}
}

func TestAtomically_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	boom := errors.New("boom")
	err := s.Atomically(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Tickets().Insert(ctx, ticket("TK-1", "org-1", models.StatusPending, now)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if _, err := s.Tickets().Get(ctx, "TK-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ticket survived rollback: %v", err)
	}
}

func TestMirror_PutAndReplace(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	tk := ticket("TK-1", "org-1", models.StatusPending, now)
	tk.Version = 4
	if err := s.PutTicket(ctx, tk); err != nil {
		t.Fatal(err)
	}
	tk.Status = models.StatusAccepted
	tk.Version = 5
	if err := s.PutTicket(ctx, tk); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Tickets().Get(ctx, "TK-1")
	if got.Version != 5 || got.Status != models.StatusAccepted {
		t.Errorf("after put: %d/%s", got.Version, got.Status)
	}

	if err := s.ReplaceTickets(ctx, []models.FoodTicket{*ticket("TK-2", "org-2", models.StatusPending, now)}); err != nil {
		t.Fatal(err)
	}
	all, _ := s.Tickets().List(ctx, store.TicketFilter{})
	if len(all) != 1 || all[0].ID != "TK-2" {
		t.Errorf("after replace: %+v", all)
	}
}
