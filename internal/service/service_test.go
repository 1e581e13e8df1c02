package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/daily-ledger/internal/config"
	"github.com/daily-ledger/internal/events"
	"github.com/daily-ledger/internal/models"
	"github.com/daily-ledger/internal/policy"
	"github.com/daily-ledger/internal/repository"
	"github.com/daily-ledger/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-test-secret-test-secret"

type fixture struct {
	db     *gorm.DB
	store  *repository.Store
	clock  *testutil.Clock
	bus    *events.MemoryAuditBus
	audit  *AuditService
	users  *UserService
	ledger *LedgerService
	auth   *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	clock := testutil.NewClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	bus := events.NewMemoryAuditBus()

	audit := NewAuditService(store, bus, config.AuditConfig{DefaultLimit: 1000, MaxLimit: 5000})
	audit.SetClock(clock.Now)
	users := NewUserService(store, audit, nil)
	users.SetClock(clock.Now)
	ledger := NewLedgerService(store, audit)
	ledger.SetClock(clock.Now)
	auth := NewAuthService(users, store, audit, nil, config.JWTConfig{
		Secret:        testSecret,
		ExpireMinutes: 480,
		Issuer:        "daily-ledger",
	})
	auth.SetClock(clock.Now)

	return &fixture{
		db:     db,
		store:  store,
		clock:  clock,
		bus:    bus,
		audit:  audit,
		users:  users,
		ledger: ledger,
		auth:   auth,
	}
}

func (f *fixture) createUser(t *testing.T, userid, password string, admin bool) *models.User {
	t.Helper()
	user, err := f.users.Create(context.Background(), nil, &CreateUserRequest{
		UserID:   userid,
		Password: password,
		IsAdmin:  admin,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) auditEntries(t *testing.T, action models.AuditAction) []models.AuditLog {
	t.Helper()
	entries, err := f.store.Audit.List(context.Background(), repository.AuditFilter{Action: action, Limit: 100})
	require.NoError(t, err)
	return entries
}

func identityOf(u *models.User) *policy.Identity {
	return &policy.Identity{ID: u.ID, UserID: u.UserID, Role: policy.RoleFor(u.IsAdmin)}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// num reads a JSON number back from audit details
func num(t *testing.T, v interface{}) float64 {
	t.Helper()
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		f, err := n.Float64()
		require.NoError(t, err)
		return f
	default:
		t.Fatalf("unexpected number type %T", v)
		return 0
	}
}
