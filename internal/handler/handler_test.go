package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/hris-auth/internal/cache"
	"github.com/iliyamo/hris-auth/internal/config"
	mw "github.com/iliyamo/hris-auth/internal/middleware"
	"github.com/iliyamo/hris-auth/internal/model"
	"github.com/iliyamo/hris-auth/internal/queue"
	"github.com/iliyamo/hris-auth/internal/repository"
	"github.com/iliyamo/hris-auth/internal/utils"
)

// ----- in-memory doubles for the persistent store and the queue -----

type fakeUsers struct {
	users  map[uint64]model.User
	nextID uint64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[uint64]model.User{}, nextID: 1}
}

func (f *fakeUsers) add(u model.User) model.User {
	if u.ID == 0 {
		u.ID = f.nextID
	}
	if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, u model.User) (uint64, error) {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return 0, repository.ErrEmailExists
		}
	}
	return f.add(u).ID, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint64, newHash string) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = newHash
	f.users[id] = u
	return nil
}

type fakeCompanies struct {
	companies map[uint64]model.Company
}

func (f *fakeCompanies) FindByID(_ context.Context, id uint64) (model.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return model.Company{}, repository.ErrNotFound
	}
	return c, nil
}

type fakePublisher struct {
	events []queue.OTPEmailEvent
}

func (f *fakePublisher) Publish(_ context.Context, ev queue.OTPEmailEvent) error {
	f.events = append(f.events, ev)
	return nil
}

// ----- fixture -----

const testPassword = "Default@123"

type fixture struct {
	h     *AuthHandler
	users *fakeUsers
	pub   *fakePublisher
	mr    *miniredis.Miniredis
	alice model.User // seeded ACTIVE employee
	admin model.User // seeded ACTIVE super admin
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Config{
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTLMin:   60,
		RefreshTTLDays: 30,
		SessionTTL:     3 * time.Hour,
		OTPTTL:         5 * time.Minute,
		BcryptCost:     bcrypt.MinCost,
		CompanyDomain:  "corp.com",
	}

	hash, err := utils.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)

	users := newFakeUsers()
	admin := users.add(model.User{
		Email: "boss@corp.com", PasswordHash: hash,
		FirstName: "Big", LastName: "Boss",
		Status: model.StatusActive, Role: model.RoleSuperAdmin, CompanyID: 7,
	})
	alice := users.add(model.User{
		Email: "alice@corp.com", PasswordHash: hash,
		FirstName: "Alice", LastName: "Smith",
		Status: model.StatusActive, Role: model.RoleEmployee, CompanyID: 7,
	})

	companies := &fakeCompanies{companies: map[uint64]model.Company{
		7: {ID: 7, Username: "corp", Name: "Corp", Email: "contact@corp.com", Domain: "corp.com", SuperAdminID: admin.ID},
	}}
	pub := &fakePublisher{}

	h := NewAuthHandler(cfg, users, companies,
		cache.NewBlacklist(rdb),
		cache.NewSessionCache(rdb, cfg.SessionTTL),
		cache.NewOTPStore(rdb, cfg.OTPTTL),
		pub)

	return &fixture{h: h, users: users, pub: pub, mr: mr, alice: alice, admin: admin}
}

// newJSONCtx builds an Echo context carrying a JSON body.
func newJSONCtx(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// authenticate populates the context the way the JWT middleware would for
// the given user, returning the raw access token as well.
func (f *fixture) authenticate(t *testing.T, c echo.Context, u model.User) string {
	t.Helper()
	tok, err := utils.NewAccessToken(f.h.Cfg.AccessSecret, u, f.h.Cfg.AccessTTLMin)
	require.NoError(t, err)
	claims, err := utils.ParseAccess(f.h.Cfg.AccessSecret, tok.Token)
	require.NoError(t, err)
	c.Set(mw.CtxAccessToken, tok.Token)
	c.Set(mw.CtxClaims, claims)
	c.Set(mw.CtxUser, u.Public())
	c.Set(mw.CtxRole, u.Role)
	return tok.Token
}

func decodeAuthResp(t *testing.T, rec *httptest.ResponseRecorder) authResp {
	t.Helper()
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}
