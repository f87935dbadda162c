package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	log "github.com/sirupsen/logrus"

	"laundry-admin-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the part of the store the workers read and prune.
type SubscriptionStore interface {
	ListSubscriptionsForMachine(ctx context.Context, tenantID string, machineID int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, tenantID, endpoint string) error
}

// Message is the push payload shown by the browser.
type Message struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	MachineID int64  `json:"machine_id"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan model.Machine
	store   SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool. queue bounds the pending jobs.
func NewWorkerPool(size, queue int, store SubscriptionStore, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queue < size {
		queue = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Machine, queue),
		store:   store,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Debugf("Worker %d started", id)
	for {
		select {
		case m := <-wp.jobs:
			wp.sendNotificationsForMachine(ctx, m)
		case <-ctx.Done():
			log.Debugf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a finished machine. When the queue is full the job is
// dropped so countdowns never wait on push delivery.
func (wp *WorkerPool) Dispatch(m model.Machine) bool {
	select {
	case wp.jobs <- m:
		return true
	default:
		log.Warnf("Notification queue full, dropping push for machine %d", m.ID)
		return false
	}
}

func (wp *WorkerPool) sendNotificationsForMachine(ctx context.Context, m model.Machine) {
	subscriptions, err := wp.store.ListSubscriptionsForMachine(ctx, m.TenantID, m.ID)
	if err != nil {
		log.Printf("Error fetching subscriptions for machine %d: %v", m.ID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	label := m.Name
	if label == "" {
		label = fmt.Sprintf("Machine %d", m.ID)
	}
	payload, err := json.Marshal(Message{
		Title:     "Cycle finished",
		Body:      fmt.Sprintf("%s is available again", label),
		MachineID: m.ID,
	})
	if err != nil {
		log.Printf("Error encoding notification for machine %d: %v", m.ID, err)
		return
	}

	log.Printf("Sending %d notifications for machine %d", len(subscriptions), m.ID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.TenantID, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
