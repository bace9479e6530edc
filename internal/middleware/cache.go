// Package middleware holds the echo middleware of the admin HTTP surface:
// a Redis response cache and a Redis token-bucket rate limiter.  Both turn
// into pass-through handlers when Redis is not configured.
package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-management-system/internal/config"
)

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// perRequestHeaders describe the request being answered rather than the
// resource, so they are neither stored nor replayed.
var perRequestHeaders = []string{
	"X-Cache",
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"Retry-After",
	echo.HeaderContentLength,
}

func stripPerRequest(h http.Header) {
	for _, k := range perRequestHeaders {
		h.Del(k)
	}
}

// captureWriter tees the response body into buf while it is written to the
// client.  overflow is set once the body exceeds limit, in which case the
// response is not cached.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// cacheKey hashes the route pattern, its parameters and the query string.
func cacheKey(prefix string, c echo.Context) string {
	var sb strings.Builder
	sb.WriteString(c.Request().Method)
	sb.WriteByte(' ')
	sb.WriteString(c.Path())
	for i, name := range c.ParamNames() {
		fmt.Fprintf(&sb, ":%s=%s", name, c.ParamValues()[i])
	}
	sb.WriteString("?")
	sb.WriteString(c.Request().URL.RawQuery)
	sum := sha1.Sum([]byte(sb.String()))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// encodeEntry packs [status:4][header length:4][header JSON][body].
func encodeEntry(status int, header http.Header, body []byte) ([]byte, error) {
	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8, 8+len(hdr)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	out = append(out, hdr...)
	return append(out, body...), nil
}

func decodeEntry(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen > len(bs)-8 {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// NewRedisCache serves repeated admin GETs from Redis for cfg.TTL.  Only 200
// responses are stored, with their headers minus perRequestHeaders, so a hit
// replays the original body under this request's own rate-limit headers.
// Hits carry X-Cache: HIT, misses X-Cache: MISS.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, logger *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil || cfg.TTL <= 0 {
		return passThrough
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "cache")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			bs, err := rdb.Get(ctx, key).Bytes()
			if err == nil {
				if status, hdr, body, ok := decodeEntry(bs); ok {
					stripPerRequest(hdr)
					for k, vals := range hdr {
						c.Response().Header()[k] = vals
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, err := c.Response().Write(body)
					return err
				}
			} else if err != redis.Nil {
				log.Debug("cache read failed", "key", key, "err", err)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}

			hdr := c.Response().Header().Clone()
			stripPerRequest(hdr)
			entry, err := encodeEntry(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := rdb.SetEx(context.WithoutCancel(ctx), key, entry, cfg.TTL).Err(); err != nil {
				log.Debug("cache write failed", "key", key, "err", err)
			}
			return nil
		}
	}
}
