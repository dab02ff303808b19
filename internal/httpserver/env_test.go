package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/idempotency"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var testSecret = []byte("test-jwt-secret")

type testEnv struct {
	E    *echo.Echo
	DB   *gorm.DB
	Repo *repo.GormRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := testutil.NewDB(t)
	r := repo.New(gdb)
	pub := events.Nop{}

	authSvc := &service.AuthService{Repo: r, JWTSecret: testSecret, TokenTTL: time.Hour}
	coupons := &service.CouponService{Repo: r}
	reviews := &service.ReviewService{Repo: r}

	e := NewEcho(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: authSvc},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Events: pub}},
		CartHandler:    &CartHTTP{Svc: &service.CartService{Repo: r, Events: pub}},
		OrderHandler: &OrderHTTP{
			Svc: &service.OrderService{
				Repo:        r,
				Coupons:     coupons,
				Events:      pub,
				Idempotency: idempotency.NewMemoryStore(time.Hour),
				ShippingFee: service.DefaultShippingFee,
			},
			Reviews: reviews,
		},
		CouponHandler: &CouponHTTP{Svc: coupons},
		AdminHandler:  &AdminHTTP{Svc: &service.AdminService{Repo: r}, Reviews: reviews},
		JWTSecret:     testSecret,
		Lookup:        authSvc.LookupRole,
	})

	return &testEnv{E: e, DB: gdb, Repo: r}
}

func (env *testEnv) token(t *testing.T, u models.User) string {
	t.Helper()
	tok, _, err := tokens.IssueAccessToken(testSecret, u.ID.String(), u.Role, time.Hour, time.Now())
	require.NoError(t, err)
	return tok
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[struct {
		Message string `json:"message"`
	}](t, rec).Message
}
