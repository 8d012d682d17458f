package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/azamat-kh/restostock/internal/domain"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

type orderRepository struct {
	db      DB
	catalog *catalogRepository
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db, catalog: &catalogRepository{db: db}}
}

// Create stores the order, its lines and every seed status entry in one
// transaction.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (reference, created_at) VALUES ($1, $2) RETURNING id`,
		order.Reference, order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, line := range order.Lines {
		err = tx.QueryRow(ctx,
			`INSERT INTO order_lines (order_id, dish_id, quantity) VALUES ($1, $2, $3) RETURNING id`,
			order.ID, line.Dish.ID, line.Quantity,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
		line.OrderID = order.ID
	}

	if err := insertPendingStatuses(ctx, tx, order); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	order.MarkStatusesPersisted()
	return nil
}

// AddLine inserts one line appended to an already persisted order, with its
// seed status entries, in one transaction.
func (r *orderRepository) AddLine(ctx context.Context, order *domain.Order, line *domain.DishLine) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO order_lines (order_id, dish_id, quantity) VALUES ($1, $2, $3) RETURNING id`,
		order.ID, line.Dish.ID, line.Quantity,
	).Scan(&line.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order line: %w", err)
	}

	for _, e := range line.Statuses.Pending() {
		_, err := tx.Exec(ctx,
			`INSERT INTO line_status_log (line_id, status, seq, changed_at) VALUES ($1, $2, $3, $4)`,
			line.ID, e.Status, e.Seq, e.At)
		if err != nil {
			return fmt.Errorf("failed to insert line status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order line: %w", err)
	}
	line.Statuses.MarkPersisted()
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.find(ctx, `SELECT id, reference, created_at FROM orders WHERE id = $1`, id)
}

func (r *orderRepository) FindByReference(ctx context.Context, reference string) (*domain.Order, error) {
	return r.find(ctx, `SELECT id, reference, created_at FROM orders WHERE reference = $1`, reference)
}

// find loads the full aggregate: the order, its lines with their dishes,
// every dish's requirements with ingredients, and the ingredients' price
// and stock ledgers. Ingredients shared by several dishes hydrate once, so
// demand pooling in the domain sees a single ledger per ingredient.
func (r *orderRepository) find(ctx context.Context, query string, arg any) (*domain.Order, error) {
	var (
		id        int64
		reference string
		createdAt time.Time
	)
	if err := r.db.QueryRow(ctx, query, arg).Scan(&id, &reference, &createdAt); err != nil {
		return nil, fmt.Errorf("order not found: %w", err)
	}

	history, err := r.StatusHistory(ctx, id)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:        id,
		Reference: reference,
		CreatedAt: createdAt,
		Statuses:  domain.RestoreStatusLedger(domain.OrderTransitions, history),
	}

	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) loadLines(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.Query(ctx,
		`SELECT id, dish_id, quantity FROM order_lines WHERE order_id = $1 ORDER BY id`,
		order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	type lineRow struct {
		id       int64
		dishID   int64
		quantity int
	}
	var lineRows []lineRow
	for rows.Next() {
		var lr lineRow
		if err := rows.Scan(&lr.id, &lr.dishID, &lr.quantity); err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		lineRows = append(lineRows, lr)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read order lines: %w", err)
	}

	ingredients := make(map[int64]*domain.Ingredient)
	dishes := make(map[int64]*domain.Dish)
	for _, lr := range lineRows {
		dish, ok := dishes[lr.dishID]
		if !ok {
			dish, err = r.catalog.findDishShared(ctx, lr.dishID, ingredients)
			if err != nil {
				return err
			}
			dishes[lr.dishID] = dish
		}

		history, err := r.lineStatusHistory(ctx, lr.id)
		if err != nil {
			return err
		}
		order.Lines = append(order.Lines, &domain.DishLine{
			ID:       lr.id,
			OrderID:  order.ID,
			Dish:     dish,
			Quantity: lr.quantity,
			Statuses: domain.RestoreStatusLedger(domain.DishTransitions, history),
		})
	}
	return nil
}

func (r *orderRepository) StatusHistory(ctx context.Context, orderID int64) ([]domain.StatusEntry[domain.OrderStatus], error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, seq, changed_at FROM order_status_log WHERE order_id = $1 ORDER BY seq`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var entries []domain.StatusEntry[domain.OrderStatus]
	for rows.Next() {
		var e domain.StatusEntry[domain.OrderStatus]
		if err := rows.Scan(&e.Status, &e.Seq, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan status entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *orderRepository) lineStatusHistory(ctx context.Context, lineID int64) ([]domain.StatusEntry[domain.DishStatus], error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, seq, changed_at FROM line_status_log WHERE line_id = $1 ORDER BY seq`,
		lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line status history: %w", err)
	}
	defer rows.Close()

	var entries []domain.StatusEntry[domain.DishStatus]
	for rows.Next() {
		var e domain.StatusEntry[domain.DishStatus]
		if err := rows.Scan(&e.Status, &e.Seq, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan line status entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveStatuses appends every status entry the aggregate accumulated since it
// was loaded, order-level and line-level alike, in one transaction.
func (r *orderRepository) SaveStatuses(ctx context.Context, order *domain.Order) error {
	if !order.PendingStatuses() {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertPendingStatuses(ctx, tx, order); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit statuses: %w", err)
	}
	order.MarkStatusesPersisted()
	return nil
}

func insertPendingStatuses(ctx context.Context, tx Tx, order *domain.Order) error {
	for _, e := range order.Statuses.Pending() {
		_, err := tx.Exec(ctx,
			`INSERT INTO order_status_log (order_id, status, seq, changed_at) VALUES ($1, $2, $3, $4)`,
			order.ID, e.Status, e.Seq, e.At)
		if err != nil {
			return fmt.Errorf("failed to insert order status: %w", err)
		}
	}
	for _, line := range order.Lines {
		for _, e := range line.Statuses.Pending() {
			_, err := tx.Exec(ctx,
				`INSERT INTO line_status_log (line_id, status, seq, changed_at) VALUES ($1, $2, $3, $4)`,
				line.ID, e.Status, e.Seq, e.At)
			if err != nil {
				return fmt.Errorf("failed to insert line status: %w", err)
			}
		}
	}
	return nil
}

func (r *orderRepository) GenerateReference(ctx context.Context) (string, error) {
	now := time.Now().UTC()
	prefix := fmt.Sprintf("ORD_%s_", now.Format("20060102"))

	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE reference LIKE $1`,
		prefix+"%").Scan(&count)
	if err != nil {
		return "", fmt.Errorf("failed to count orders: %w", err)
	}

	return fmt.Sprintf("%s%03d", prefix, count+1), nil
}
