package mw

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache keeps successful GET responses in one cache per tenant,
// keyed by request URI. Any successful write by a tenant drops that
// tenant's entries.
type ResponseCache struct {
	mu       sync.Mutex
	tenants  map[string]*cache.Cache
	duration time.Duration
}

func NewResponseCache(duration time.Duration) *ResponseCache {
	return &ResponseCache{tenants: make(map[string]*cache.Cache), duration: duration}
}

func (rc *ResponseCache) tenant(tenantID string) *cache.Cache {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	c, ok := rc.tenants[tenantID]
	if !ok {
		c = cache.New(rc.duration, 2*rc.duration)
		rc.tenants[tenantID] = c
	}
	return c
}

// Cached serves GET requests from the cache. It must run after Session.
func (rc *ResponseCache) Cached() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := TenantID(c)
		if c.Request.Method != http.MethodGet || tenantID == "" {
			c.Next()
			return
		}

		store := rc.tenant(tenantID)
		key := c.Request.RequestURI
		if resp, found := store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			store.Set(key, cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			}, rc.duration)
		}
	}
}

// InvalidateOnWrite flushes the tenant's entries after a successful write.
func (rc *ResponseCache) InvalidateOnWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method == http.MethodGet || c.Writer.Status() >= 400 {
			return
		}
		rc.Invalidate(TenantID(c))
	}
}

// Invalidate drops every cached response of the tenant.
func (rc *ResponseCache) Invalidate(tenantID string) {
	if tenantID == "" {
		return
	}
	rc.mu.Lock()
	c, ok := rc.tenants[tenantID]
	rc.mu.Unlock()
	if ok {
		c.Flush()
	}
}
