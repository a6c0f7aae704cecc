package middleware

import (
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/crudtcc/incident-api/internal/config"
    "github.com/crudtcc/incident-api/internal/logger"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { rdb.Close() })
    return mr, rdb
}

func cacheConfig() config.CacheConfig {
    return config.CacheConfig{
        Enabled:      true,
        Methods:      map[string]bool{"GET": true},
        TTL:          time.Minute,
        KeyStrategy:  "route_query",
        Prefix:       "cache",
        MaxBodyBytes: 1 << 20,
    }
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, target, nil)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestResourceOf(t *testing.T) {
    tests := map[string]string{
        "/salas":                     "salas",
        "/salas/3":                   "salas",
        "/incidentes_dispositivos/1": "incidentes_dispositivos",
        "/":                          "_root",
    }
    for in, want := range tests {
        if got := resourceOf(in); got != want {
            t.Errorf("resourceOf(%q) = %q, want %q", in, got, want)
        }
    }
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`[1]`))
    if err != nil {
        t.Fatalf("encodePayload() error = %v", err)
    }
    status, gotHdr, body, ok := decodePayload(bs)
    if !ok || status != http.StatusOK || string(body) != "[1]" || gotHdr.Get("Content-Type") != "application/json" {
        t.Errorf("decodePayload() = %d %v %q %v", status, gotHdr, body, ok)
    }
    if _, _, _, ok := decodePayload([]byte{0, 0}); ok {
        t.Error("decodePayload() accepted a short payload")
    }
}

func TestRedisCache_HitAndInvalidate(t *testing.T) {
    mr, rdb := newRedis(t)
    e := echo.New()
    e.Use(NewRedisCache(cacheConfig(), rdb, logger.Nop()))

    calls := 0
    e.GET("/salas", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, []string{"A"})
    })
    e.GET("/usuarios", func(c echo.Context) error {
        return c.JSON(http.StatusOK, []string{"u"})
    })
    e.POST("/salas", func(c echo.Context) error {
        return c.JSON(http.StatusOK, map[string]int{"id": 1})
    })

    if rec := do(e, http.MethodGet, "/salas"); rec.Header().Get("X-Cache") != "MISS" {
        t.Fatalf("first GET X-Cache = %q, want MISS", rec.Header().Get("X-Cache"))
    }
    rec := do(e, http.MethodGet, "/salas")
    if rec.Header().Get("X-Cache") != "HIT" || strings.TrimSpace(rec.Body.String()) != `["A"]` {
        t.Fatalf("second GET = %q %q, want HIT", rec.Header().Get("X-Cache"), rec.Body.String())
    }
    if calls != 1 {
        t.Errorf("handler calls = %d, want 1", calls)
    }
    do(e, http.MethodGet, "/usuarios")
    if n := len(mr.Keys()); n != 2 {
        t.Fatalf("cached keys = %d, want 2", n)
    }

    if rec := do(e, http.MethodPost, "/salas"); rec.Code != http.StatusOK {
        t.Fatalf("POST status = %d", rec.Code)
    }
    keys := mr.Keys()
    if len(keys) != 2 || keys[0] != "cache:salas" || !strings.HasPrefix(keys[1], "cache:usuarios:0:") {
        t.Errorf("keys after write = %v, want the salas generation and the usuarios entry", keys)
    }
    if gen, _ := mr.Get("cache:salas"); gen != "1" {
        t.Errorf("salas generation = %q, want 1", gen)
    }
    if rec := do(e, http.MethodGet, "/salas"); rec.Header().Get("X-Cache") != "MISS" {
        t.Errorf("GET after write X-Cache = %q, want MISS", rec.Header().Get("X-Cache"))
    }
}

func TestRedisCache_SkipsErrors(t *testing.T) {
    mr, rdb := newRedis(t)
    e := echo.New()
    e.Use(NewRedisCache(cacheConfig(), rdb, logger.Nop()))
    e.GET("/salas/:id", func(c echo.Context) error {
        return c.String(http.StatusNotFound, "room not found")
    })
    e.DELETE("/salas/:id", func(c echo.Context) error {
        return c.String(http.StatusNotFound, "room not found")
    })

    do(e, http.MethodGet, "/salas/9")
    if n := len(mr.Keys()); n != 0 {
        t.Errorf("cached keys = %d, want 0", n)
    }

    _ = mr.Set("cache:salas:deadbeef", "x")
    do(e, http.MethodDelete, "/salas/9")
    if !mr.Exists("cache:salas:deadbeef") {
        t.Error("a failed write should not invalidate the cache")
    }
}

func TestRedisCache_DisabledIsPassThrough(t *testing.T) {
    e := echo.New()
    e.Use(NewRedisCache(cacheConfig(), nil, logger.Nop()))
    e.GET("/salas", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

    rec := do(e, http.MethodGet, "/salas")
    if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
        t.Errorf("disabled cache: code=%d X-Cache=%q", rec.Code, rec.Header().Get("X-Cache"))
    }
}

func TestTokenBucket_Blocks(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            time.Hour,
        KeyStrategy:    "ip_route",
        Prefix:         "rl",
    }
    e := echo.New()
    e.Use(NewTokenBucket(cfg, rdb, logger.Nop()))
    e.GET("/salas", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

    for i := 0; i < 2; i++ {
        if rec := do(e, http.MethodGet, "/salas"); rec.Code != http.StatusOK {
            t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
        }
    }
    rec := do(e, http.MethodGet, "/salas")
    if rec.Code != http.StatusTooManyRequests {
        t.Fatalf("third request status = %d, want 429", rec.Code)
    }
    if rec.Header().Get("Retry-After") == "" {
        t.Error("Retry-After header missing")
    }
    if rec.Header().Get("X-RateLimit-Remaining") != "0" {
        t.Errorf("X-RateLimit-Remaining = %q, want 0", rec.Header().Get("X-RateLimit-Remaining"))
    }
}

func TestBuildRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/salas/1", nil)
    req.RemoteAddr = "10.0.0.1:5555"
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/salas/:id")

    tests := map[string]string{
        "ip":       "rl:ip:10.0.0.1",
        "route":    "rl:route:GET /salas/:id",
        "ip_route": "rl:ip:10.0.0.1:route:GET /salas/:id",
        "":         "rl:ip:10.0.0.1:route:GET /salas/:id",
    }
    for strategy, want := range tests {
        cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}
        if got := buildRateKey(cfg, c); got != want {
            t.Errorf("buildRateKey(%q) = %q, want %q", strategy, got, want)
        }
    }
}

func TestRequestLogger_HandsErrorsToEcho(t *testing.T) {
    e := echo.New()
    e.Use(RequestLogger(logger.Nop()))
    e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })
    e.GET("/teapot", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot) })

    if rec := do(e, http.MethodGet, "/boom"); rec.Code != http.StatusInternalServerError {
        t.Errorf("/boom status = %d, want 500", rec.Code)
    }
    if rec := do(e, http.MethodGet, "/teapot"); rec.Code != http.StatusTeapot {
        t.Errorf("/teapot status = %d, want 418", rec.Code)
    }
}

func TestRedisCache_WriteDuringSlowReadIsNotServedStale(t *testing.T) {
    _, rdb := newRedis(t)
    e := echo.New()
    e.Use(NewRedisCache(cacheConfig(), rdb, logger.Nop()))

    var (
        mu      sync.Mutex
        value   = "old"
        block   = true
        read    = make(chan struct{})
        release = make(chan struct{})
    )
    e.GET("/usuarios/:id", func(c echo.Context) error {
        mu.Lock()
        v, wait := value, block
        block = false
        mu.Unlock()
        if wait {
            close(read)
            <-release
        }
        return c.String(http.StatusOK, v)
    })
    e.PUT("/usuarios/:id", func(c echo.Context) error {
        mu.Lock()
        value = "new"
        mu.Unlock()
        return c.String(http.StatusOK, "updated")
    })

    done := make(chan *httptest.ResponseRecorder)
    go func() { done <- do(e, http.MethodGet, "/usuarios/1") }()

    <-read
    if rec := do(e, http.MethodPut, "/usuarios/1"); rec.Code != http.StatusOK {
        t.Fatalf("PUT status = %d", rec.Code)
    }
    close(release)
    if rec := <-done; rec.Body.String() != "old" {
        t.Fatalf("slow GET body = %q, want old", rec.Body.String())
    }

    rec := do(e, http.MethodGet, "/usuarios/1")
    if rec.Body.String() != "new" || rec.Header().Get("X-Cache") != "MISS" {
        t.Errorf("GET after write = %q X-Cache=%q, want new MISS", rec.Body.String(), rec.Header().Get("X-Cache"))
    }
    rec = do(e, http.MethodGet, "/usuarios/1")
    if rec.Body.String() != "new" || rec.Header().Get("X-Cache") != "HIT" {
        t.Errorf("repeat GET = %q X-Cache=%q, want new HIT", rec.Body.String(), rec.Header().Get("X-Cache"))
    }
}
