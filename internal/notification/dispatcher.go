package notification

import (
	"context"

	log "github.com/sirupsen/logrus"

	"laundry-admin-backend/internal/events"
	"laundry-admin-backend/internal/model"
)

// Dispatcher fans a finished cycle out to the feed, the push workers and the
// event stream. Any of them may be nil.
type Dispatcher struct {
	Feed      *Feed
	Pool      *WorkerPool
	Publisher events.Publisher
	// Changed is told which tenant's machine list just changed.
	Changed func(tenantID string)
}

// CycleFinished is called by the lifecycle manager when a countdown expires.
func (d *Dispatcher) CycleFinished(ctx context.Context, m model.Machine) {
	log.Printf("Machine %d (%s) of tenant %s finished its cycle", m.ID, m.Name, m.TenantID)
	if d.Changed != nil {
		d.Changed(m.TenantID)
	}
	if d.Feed != nil {
		d.Feed.Add(m)
	}
	if d.Pool != nil {
		d.Pool.Dispatch(m)
	}
	if d.Publisher != nil {
		e := events.New(events.MachineCycleFinished, m.TenantID, map[string]any{
			"machine_id":   m.ID,
			"machine_name": m.Name,
			"machine_type": m.Type,
		})
		if err := d.Publisher.Publish(ctx, e); err != nil {
			log.Printf("Failed to publish %s event: %v", e.Type, err)
		}
	}
}
