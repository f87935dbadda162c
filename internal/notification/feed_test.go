package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-admin-backend/internal/events"
	"laundry-admin-backend/internal/model"
)

func TestFeed_RecentIsTenantScoped(t *testing.T) {
	f := NewFeed(time.Minute)
	f.Add(model.Machine{ID: 1, TenantID: "company_a", Name: "Washer #1"})
	f.Add(model.Machine{ID: 4, TenantID: "company_b", Name: "Wash-B01"})
	f.Add(model.Machine{ID: 3, TenantID: "company_a", Name: "Dryer #1"})

	notices := f.Recent("company_a")
	require.Len(t, notices, 2)
	assert.ElementsMatch(t, []int64{1, 3}, []int64{notices[0].MachineID, notices[1].MachineID})
	assert.Empty(t, f.Recent(""))
}

func TestFeed_TenantIDsWithSeparators(t *testing.T) {
	f := NewFeed(time.Minute)
	f.Add(model.Machine{ID: 7, TenantID: "a/1", Name: "Washer #7"})
	f.Add(model.Machine{ID: 8, TenantID: "a", Name: "Washer #8"})

	notices := f.Recent("a")
	require.Len(t, notices, 1)
	assert.Equal(t, int64(8), notices[0].MachineID)
	require.Len(t, f.Recent("a/1"), 1)
	assert.Empty(t, f.Recent("a/"))
}

func TestFeed_NoticesExpire(t *testing.T) {
	f := NewFeed(50 * time.Millisecond)
	f.Add(model.Machine{ID: 1, TenantID: "company_a"})
	require.Len(t, f.Recent("company_a"), 1)

	assert.Eventually(t, func() bool {
		return len(f.Recent("company_a")) == 0
	}, time.Second, 10*time.Millisecond)
}

type capturePublisher struct{ got []events.Event }

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.got = append(p.got, e)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func TestDispatcher_CycleFinished(t *testing.T) {
	feed := NewFeed(time.Minute)
	pub := &capturePublisher{}
	var changed []string
	d := &Dispatcher{Feed: feed, Publisher: pub, Changed: func(tenantID string) { changed = append(changed, tenantID) }}

	d.CycleFinished(context.Background(), model.Machine{ID: 2, TenantID: "company_a", Name: "Washer #2"})

	notices := feed.Recent("company_a")
	require.Len(t, notices, 1)
	assert.Equal(t, "Washer #2", notices[0].MachineName)
	require.Len(t, pub.got, 1)
	assert.Equal(t, events.MachineCycleFinished, pub.got[0].Type)
	assert.Equal(t, "company_a", pub.got[0].TenantID)
	assert.Equal(t, []string{"company_a"}, changed)

	// A dispatcher without sinks is a no-op.
	(&Dispatcher{}).CycleFinished(context.Background(), model.Machine{ID: 2})
}
