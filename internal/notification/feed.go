package notification

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"laundry-admin-backend/internal/model"
)

// DefaultNoticeWindow is how long a finished cycle stays in the feed.
const DefaultNoticeWindow = 3 * time.Second

// Notice reports a machine that just finished its cycle.
type Notice struct {
	MachineID   int64     `json:"machine_id"`
	MachineName string    `json:"machine_name"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Feed holds recent notices per tenant. Each tenant has its own cache, so
// no tenant id can reach another tenant's notices. Entries expire on their
// own after the notice window.
type Feed struct {
	mu      sync.Mutex
	tenants map[string]*cache.Cache
	window  time.Duration
	seq     atomic.Uint64
}

// NewFeed creates a feed whose notices live for window.
func NewFeed(window time.Duration) *Feed {
	if window <= 0 {
		window = DefaultNoticeWindow
	}
	return &Feed{tenants: make(map[string]*cache.Cache), window: window}
}

func (f *Feed) tenant(tenantID string, create bool) *cache.Cache {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.tenants[tenantID]
	if !ok && create {
		c = cache.New(f.window, f.window)
		f.tenants[tenantID] = c
	}
	return c
}

// Add records that m finished its cycle.
func (f *Feed) Add(m model.Machine) {
	if m.TenantID == "" {
		return
	}
	key := strconv.FormatUint(f.seq.Add(1), 10)
	f.tenant(m.TenantID, true).SetDefault(key, Notice{MachineID: m.ID, MachineName: m.Name, FinishedAt: time.Now()})
}

// Recent returns the tenant's unexpired notices, oldest first.
func (f *Feed) Recent(tenantID string) []Notice {
	notices := []Notice{}
	if tenantID == "" {
		return notices
	}
	c := f.tenant(tenantID, false)
	if c == nil {
		return notices
	}
	for _, item := range c.Items() {
		notices = append(notices, item.Object.(Notice))
	}
	sort.Slice(notices, func(i, j int) bool { return notices[i].FinishedAt.Before(notices[j].FinishedAt) })
	return notices
}
