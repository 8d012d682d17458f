package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/azamat-kh/restostock/internal/domain"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

type workerRepository struct {
	db DB
}

func NewWorkerRepository(db DB) interfaces.WorkerRepository {
	return &workerRepository{db: db}
}

func (r *workerRepository) Create(ctx context.Context, worker *domain.Worker) error {
	query := `
		INSERT INTO workers (name, status, last_seen, orders_prepared, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		worker.Name, worker.Status, worker.LastSeen, worker.OrdersPrepared, worker.CreatedAt,
	).Scan(&worker.ID)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	return nil
}

func (r *workerRepository) FindByName(ctx context.Context, name string) (*domain.Worker, error) {
	query := `
		SELECT id, name, status, last_seen, orders_prepared, created_at
		FROM workers
		WHERE name = $1
	`

	var worker domain.Worker
	err := r.db.QueryRow(ctx, query, name).Scan(
		&worker.ID, &worker.Name, &worker.Status,
		&worker.LastSeen, &worker.OrdersPrepared, &worker.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("worker not found: %w", err)
	}

	return &worker, nil
}

func (r *workerRepository) Update(ctx context.Context, worker *domain.Worker) error {
	query := `
		UPDATE workers
		SET status = $1, last_seen = $2, orders_prepared = $3
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query,
		worker.Status, worker.LastSeen, worker.OrdersPrepared, worker.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update worker: %w", err)
	}
	return nil
}

func (r *workerRepository) UpdateHeartbeat(ctx context.Context, name string) error {
	query := `
		UPDATE workers
		SET last_seen = $1, status = $2
		WHERE name = $3
	`
	_, err := r.db.Exec(ctx, query, time.Now(), domain.WorkerOnline, name)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

func (r *workerRepository) ListAll(ctx context.Context) ([]*domain.Worker, error) {
	query := `
		SELECT id, name, status, last_seen, orders_prepared, created_at
		FROM workers
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	var workers []*domain.Worker
	for rows.Next() {
		var worker domain.Worker
		if err := rows.Scan(
			&worker.ID, &worker.Name, &worker.Status,
			&worker.LastSeen, &worker.OrdersPrepared, &worker.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, &worker)
	}

	return workers, rows.Err()
}

func (r *workerRepository) IncrementOrdersPrepared(ctx context.Context, name string) error {
	query := `
		UPDATE workers
		SET orders_prepared = orders_prepared + 1
		WHERE name = $1
	`
	_, err := r.db.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to increment orders prepared: %w", err)
	}
	return nil
}
