package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/crudtcc/incident-api/internal/config"
    "github.com/crudtcc/incident-api/internal/logger"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 || cw.size < cw.limit {
        remain := cw.limit - cw.size
        if cw.limit <= 0 {
            cw.buf.Write(b)
        } else if int64(len(b)) <= remain {
            cw.buf.Write(b)
        } else {
            cw.buf.Write(b[:remain])
        }
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// resourceOf returns the first segment of the request path, e.g. "salas"
// for /salas/3.  Cache entries are grouped by it so a write can drop every
// entry of the resource it changed.
func resourceOf(path string) string {
    path = strings.TrimPrefix(path, "/")
    if i := strings.IndexByte(path, '/'); i >= 0 {
        path = path[:i]
    }
    if path == "" {
        return "_root"
    }
    return path
}

// resourcePattern matches every cache entry of one resource.  It does not
// match the resource's generation key.
func resourcePattern(prefix, resource string) string {
    return prefix + ":" + resource + ":*"
}

// generationKey holds a counter bumped by every successful write to the
// resource.  Entries embed the generation they were read under, so a
// response computed before a write can never be served after it.
func generationKey(prefix, resource string) string {
    return prefix + ":" + resource
}

// generation returns the current counter of the resource; a missing key is
// generation 0.
func generation(ctx context.Context, rdb *redis.Client, key string) (int64, error) {
    n, err := rdb.Get(ctx, key).Int64()
    if errors.Is(err, redis.Nil) {
        return 0, nil
    }
    return n, err
}

// Build a stable cache key honoring prefix/strategy.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context, gen int64) string {
    r := c.Request()
    method := r.Method
    route := r.URL.Path
    query := r.URL.RawQuery

    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = append(parts, "route", route)
    case "method_route":
        parts = append(parts, "method", method, "route", route)
    case "method_route_query":
        parts = append(parts, "method", method, "route", route, "q", query)
    default: // "route_query"
        parts = append(parts, "route", route, "q", query)
    }

    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%s:%d:%x", cfg.Prefix, resourceOf(route), gen, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    total := 4 + 4 + len(hdrJSON) + len(body)
    out := make([]byte, total)
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    var hdr http.Header
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    } else {
        hdr = make(http.Header)
    }
    body = bs[8+hlen:]
    return status, hdr, body, true
}

// invalidate deletes every cached entry of resource.
func invalidate(ctx context.Context, rdb *redis.Client, pattern string) error {
    var cursor uint64
    for {
        keys, next, err := rdb.Scan(ctx, cursor, pattern, 100).Result()
        if err != nil {
            return err
        }
        if len(keys) > 0 {
            if err := rdb.Del(ctx, keys...).Err(); err != nil {
                return err
            }
        }
        if next == 0 {
            return nil
        }
        cursor = next
    }
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewRedisCache serves cached responses for the configured methods and
// drops a resource's entries after any successful write to it.  Headers are
// stored with the body so clients see identical formatting on a hit.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *logger.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }
    maxBody := int64(cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            method := strings.ToUpper(c.Request().Method)
            if !cfg.Methods[method] {
                err := next(c)
                if isWrite(method) && err == nil && c.Response().Status < http.StatusBadRequest {
                    resource := resourceOf(c.Request().URL.Path)
                    // Bump first: readers that raced the write now store under a dead generation.
                    if ierr := rdb.Incr(context.Background(), generationKey(cfg.Prefix, resource)).Err(); ierr != nil {
                        log.Warn("cache generation bump failed", "resource", resource, "error", ierr)
                    }
                    pattern := resourcePattern(cfg.Prefix, resource)
                    if ierr := invalidate(context.Background(), rdb, pattern); ierr != nil {
                        log.Warn("cache invalidation failed", "pattern", pattern, "error", ierr)
                    }
                }
                return err
            }

            ctx := c.Request().Context()
            genKey := generationKey(cfg.Prefix, resourceOf(c.Request().URL.Path))
            gen, err := generation(ctx, rdb, genKey)
            if err != nil {
                log.Warn("cache generation read failed", "key", genKey, "error", err)
                return next(c)
            }
            key := cacheKeyFrom(cfg, c, gen)

            // Try get from Redis
            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        // Echo sets Content-Length itself; the request id belongs to this request.
                        if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, echo.HeaderXRequestID) {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            // Miss: capture
            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            // Truncated bodies are never stored, nor responses that a write
            // overtook while the handler ran.
            if cw.status == http.StatusOK && (maxBody <= 0 || cw.size <= maxBody) {
                if now, err := generation(context.Background(), rdb, genKey); err != nil || now != gen {
                    return nil
                }
                hdr := c.Response().Header().Clone()
                hdr.Del("X-Cache")
                if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                    _ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
                }
            }
            return nil
        }
    }
}

func isWrite(method string) bool {
    switch method {
    case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
        return true
    }
    return false
}
