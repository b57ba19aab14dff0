package middleware

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/gym-management/internal/config"
    "github.com/iliyamo/gym-management/internal/database"
    "github.com/iliyamo/gym-management/internal/model"
    "github.com/iliyamo/gym-management/internal/repository"
    "github.com/iliyamo/gym-management/internal/utils"
)

const secret = "middleware-secret"

type stubUsers map[string]model.User

func (s stubUsers) GetByID(_ context.Context, id string) (model.User, error) {
    if u, ok := s[id]; ok {
        return u, nil
    }
    return model.User{}, repository.ErrNotFound
}

type brokenUsers struct{}

func (brokenUsers) GetByID(context.Context, string) (model.User, error) {
    return model.User{}, errors.New("boom")
}

func token(t *testing.T, id string) string {
    t.Helper()
    at, err := utils.NewAccessToken(secret, id, "member", 5)
    require.NoError(t, err)
    return at.Token
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func gatedServer(users UserLookup) *echo.Echo {
    e := echo.New()
    auth := Authenticate(secret, users, database.RetryPolicy{MaxAttempts: 1})
    e.GET("/me", func(c echo.Context) error {
        a, _ := ActorFrom(c)
        return c.String(http.StatusOK, a.ID)
    }, auth)
    e.GET("/gated", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, auth, RequireApproved())
    return e
}

func TestAuthenticate(t *testing.T) {
    users := stubUsers{
        "u1": {ID: "u1", Role: model.RoleMember, Center: model.CenterChakdah, ApprovalStatus: model.StatusApproved, IsActive: true},
        "u2": {ID: "u2", Role: model.RoleMember, Center: model.CenterChakdah, ApprovalStatus: model.StatusPending, IsActive: true},
    }
    e := gatedServer(users)

    cases := []struct {
        name   string
        path   string
        header string
        status int
    }{
        {"missing header", "/me", "", http.StatusUnauthorized},
        {"garbage token", "/me", "Bearer nope", http.StatusUnauthorized},
        {"unknown user", "/me", "Bearer " + token(t, "ghost"), http.StatusUnauthorized},
        {"lowercase scheme", "/me", "bearer " + token(t, "u1"), http.StatusOK},
        {"pending reaches own profile", "/me", "Bearer " + token(t, "u2"), http.StatusOK},
        {"pending is gated", "/gated", "Bearer " + token(t, "u2"), http.StatusForbidden},
        {"approved passes gate", "/gated", "Bearer " + token(t, "u1"), http.StatusNoContent},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, tc.path, nil)
            if tc.header != "" {
                req.Header.Set("Authorization", tc.header)
            }
            assert.Equal(t, tc.status, serve(e, req).Code)
        })
    }
}

func TestAuthenticateStoreDown(t *testing.T) {
    e := gatedServer(brokenUsers{})
    req := httptest.NewRequest(http.MethodGet, "/me", nil)
    req.Header.Set("Authorization", "Bearer "+token(t, "u1"))
    assert.Equal(t, http.StatusServiceUnavailable, serve(e, req).Code)
}

func TestRequireApprovedWithoutActor(t *testing.T) {
    e := echo.New()
    e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireApproved())
    assert.Equal(t, http.StatusUnauthorized, serve(e, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func TestRateLimitExhaustsBucket(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
        TTL: 2 * time.Hour, KeyStrategy: "ip_route", Prefix: "test:rl",
    }
    e := echo.New()
    e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimit(cfg, rdb))

    hit := func() *httptest.ResponseRecorder {
        req := httptest.NewRequest(http.MethodPost, "/login", nil)
        req.RemoteAddr = "10.0.0.9:5555"
        return serve(e, req)
    }
    first := hit()
    assert.Equal(t, http.StatusOK, first.Code)
    assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
    assert.Equal(t, http.StatusOK, hit().Code)

    blocked := hit()
    assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
    assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpen(t *testing.T) {
    mr, rdb := newRedis(t)
    mr.Close()
    cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, Prefix: "x"}
    e := echo.New()
    e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimit(cfg, rdb))
    for i := 0; i < 3; i++ {
        assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
    }
}

func TestRateKeyUsesCaller(t *testing.T) {
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
    cfg := config.RateLimitConfig{Prefix: "p", KeyStrategy: "user"}
    assert.Equal(t, "p:user:anon", rateKey(cfg, c))
    c.Set(UserIDKey, "u7")
    assert.Equal(t, "p:user:u7", rateKey(cfg, c))
}

func TestCacheServesRepeatsAndPurges(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{
        Enabled: true, Methods: map[string]bool{http.MethodGet: true},
        TTL: time.Minute, KeyStrategy: "route_query", Prefix: "test:cache", MaxBodyBytes: 1024,
    }
    calls := 0
    e := echo.New()
    e.GET("/api/merchandise", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"calls": calls})
    }, Cache(cfg, rdb))

    get := func() *httptest.ResponseRecorder {
        return serve(e, httptest.NewRequest(http.MethodGet, "/api/merchandise", nil))
    }
    first := get()
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
    second := get()
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.Equal(t, first.Body.String(), second.Body.String())
    assert.Contains(t, second.Header().Get(echo.HeaderContentType), "application/json")
    assert.Equal(t, 1, calls)

    require.NoError(t, Purge(context.Background(), cfg, rdb))
    assert.Equal(t, "MISS", get().Header().Get("X-Cache"))
    assert.Equal(t, 2, calls)
}

func TestCacheSkipsErrors(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "c"}
    calls := 0
    e := echo.New()
    e.GET("/x", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusNotFound, echo.Map{"error": "nope"})
    }, Cache(cfg, rdb))
    serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
    serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
    assert.Equal(t, 2, calls)
}
