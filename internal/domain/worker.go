package domain

import (
	"errors"
	"time"
)

// Worker is a kitchen worker process preparing dish lines.
type Worker struct {
	ID              int64
	Name            string
	Status          WorkerStatus
	LastSeen        time.Time
	OrdersPrepared  int
	CreatedAt       time.Time
}

type WorkerStatus string

const (
	WorkerOnline  WorkerStatus = "online"
	WorkerOffline WorkerStatus = "offline"
)

// NewWorker registers a new worker as online.
func NewWorker(name string, now time.Time) (*Worker, error) {
	if name == "" {
		return nil, errors.New("worker name is required")
	}
	return &Worker{
		Name:      name,
		Status:    WorkerOnline,
		LastSeen:  now,
		CreatedAt: now,
	}, nil
}

// Heartbeat refreshes the worker's last seen timestamp.
func (w *Worker) Heartbeat(now time.Time) {
	w.LastSeen = now
	w.Status = WorkerOnline
}

// SetOffline marks the worker as offline.
func (w *Worker) SetOffline() {
	w.Status = WorkerOffline
}

// IsOnline reports whether the worker heartbeated within the timeout.
func (w *Worker) IsOnline(now time.Time, heartbeatTimeout time.Duration) bool {
	if w.Status == WorkerOffline {
		return false
	}
	return now.Sub(w.LastSeen) <= heartbeatTimeout
}
