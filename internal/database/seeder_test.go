package database_test

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"giving-hand-api-server/config"
	"giving-hand-api-server/internal/auth"
	"giving-hand-api-server/internal/database"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store/sqlstore"
)

func init() { auth.BcryptCost = bcrypt.MinCost }

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	st, err := sqlstore.Open(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close(ctx)

	cfg := config.SeedConfig{AdminEmail: "admin@example.org", AdminPassword: "pw", Demo: true}

	res, err := database.SeedIfEmpty(ctx, st.Users(), cfg)
	if err != nil || !res.Seeded || res.GeneratedPassword != "" {
		t.Fatalf("first seed = %+v, %v", res, err)
	}
	res, err = database.SeedIfEmpty(ctx, st.Users(), cfg)
	if err != nil || res.Seeded {
		t.Fatalf("second seed = %+v, %v", res, err)
	}

	n, _ := st.Users().Count(ctx)
	if n != 5 {
		t.Errorf("users = %d, want admin plus 4 demo accounts", n)
	}
	admin, err := st.Users().GetByEmail(ctx, "admin@example.org")
	if err != nil {
		t.Fatal(err)
	}
	if admin.Role != models.RoleAdmin || !auth.CheckPasswordHash("pw", admin.PasswordHash) {
		t.Errorf("admin = %+v", admin)
	}
	orgs, _ := st.Users().List(ctx, models.RoleOrganization)
	if len(orgs) != 1 || orgs[0].OrganizationType != "hotel" {
		t.Errorf("organizations = %+v", orgs)
	}
}

func TestSeedIfEmpty_GeneratedPasswordStaysOutOfLogs(t *testing.T) {
	ctx := context.Background()
	st, err := sqlstore.Open(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close(ctx)

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	res, err := database.SeedIfEmpty(ctx, st.Users(), config.SeedConfig{AdminEmail: "admin@example.org"})
	if err != nil || !res.Seeded {
		t.Fatalf("seed = %+v, %v", res, err)
	}
	if len(res.GeneratedPassword) != 16 {
		t.Fatalf("generated password = %q", res.GeneratedPassword)
	}
	admin, err := st.Users().GetByEmail(ctx, "admin@example.org")
	if err != nil {
		t.Fatal(err)
	}
	if !auth.CheckPasswordHash(res.GeneratedPassword, admin.PasswordHash) {
		t.Error("generated password does not open the admin account")
	}
	if strings.Contains(logs.String(), res.GeneratedPassword) {
		t.Errorf("password leaked into logs: %s", logs.String())
	}

	var out bytes.Buffer
	res.PrintGeneratedPassword(&out, "admin@example.org")
	if !strings.Contains(out.String(), res.GeneratedPassword) {
		t.Errorf("operator output = %q", out.String())
	}
}
