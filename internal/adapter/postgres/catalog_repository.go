package postgres

import (
	"context"
	"fmt"

	"github.com/azamat-kh/restostock/internal/domain"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

type catalogRepository struct {
	db DB
}

func NewCatalogRepository(db DB) interfaces.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) FindDish(ctx context.Context, id int64) (*domain.Dish, error) {
	return r.findDishShared(ctx, id, make(map[int64]*domain.Ingredient))
}

// findDishShared hydrates a dish and its requirements. Ingredients already
// present in the shared map are reused, so callers loading several dishes
// end up with one ledger per ingredient.
func (r *catalogRepository) findDishShared(ctx context.Context, id int64, ingredients map[int64]*domain.Ingredient) (*domain.Dish, error) {
	dish := &domain.Dish{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, price FROM dishes WHERE id = $1`, id,
	).Scan(&dish.ID, &dish.Name, &dish.Price)
	if err != nil {
		return nil, fmt.Errorf("dish not found: %w", err)
	}

	if err := r.loadRequirements(ctx, dish, ingredients); err != nil {
		return nil, err
	}
	return dish, nil
}

func (r *catalogRepository) loadRequirements(ctx context.Context, dish *domain.Dish, ingredients map[int64]*domain.Ingredient) error {
	rows, err := r.db.Query(ctx,
		`SELECT id, ingredient_id, quantity, unit FROM dish_requirements WHERE dish_id = $1 ORDER BY id`,
		dish.ID)
	if err != nil {
		return fmt.Errorf("failed to load dish requirements: %w", err)
	}
	defer rows.Close()

	type reqRow struct {
		id           int64
		ingredientID int64
		req          domain.DishRequirement
	}
	var reqRows []reqRow
	for rows.Next() {
		var rr reqRow
		if err := rows.Scan(&rr.id, &rr.ingredientID, &rr.req.Quantity, &rr.req.Unit); err != nil {
			return fmt.Errorf("failed to scan dish requirement: %w", err)
		}
		reqRows = append(reqRows, rr)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read dish requirements: %w", err)
	}

	for _, rr := range reqRows {
		ingredient, ok := ingredients[rr.ingredientID]
		if !ok {
			ingredient, err = r.FindIngredient(ctx, rr.ingredientID)
			if err != nil {
				return err
			}
			ingredients[rr.ingredientID] = ingredient
		}
		rr.req.ID = rr.id
		rr.req.Ingredient = ingredient
		dish.Requirements = append(dish.Requirements, rr.req)
	}
	return nil
}

func (r *catalogRepository) ListDishes(ctx context.Context) ([]*domain.Dish, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM dishes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan dish id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dishes: %w", err)
	}

	ingredients := make(map[int64]*domain.Ingredient)
	dishes := make([]*domain.Dish, 0, len(ids))
	for _, id := range ids {
		dish, err := r.findDishShared(ctx, id, ingredients)
		if err != nil {
			return nil, err
		}
		dishes = append(dishes, dish)
	}
	return dishes, nil
}

func (r *catalogRepository) FindIngredient(ctx context.Context, id int64) (*domain.Ingredient, error) {
	ingredient := &domain.Ingredient{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name FROM ingredients WHERE id = $1`, id,
	).Scan(&ingredient.ID, &ingredient.Name)
	if err != nil {
		return nil, fmt.Errorf("ingredient not found: %w", err)
	}

	prices, err := r.loadPrices(ctx, id)
	if err != nil {
		return nil, err
	}
	movements, err := r.loadMovements(ctx, id)
	if err != nil {
		return nil, err
	}

	ingredient.Prices = domain.NewPriceLedger(prices)
	ingredient.Movements = domain.NewInventoryLedger(movements)
	return ingredient, nil
}

func (r *catalogRepository) ListIngredients(ctx context.Context) ([]*domain.Ingredient, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM ingredients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ingredients: %w", err)
	}

	ingredients := make([]*domain.Ingredient, 0, len(ids))
	for _, id := range ids {
		ingredient, err := r.FindIngredient(ctx, id)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ingredient)
	}
	return ingredients, nil
}

func (r *catalogRepository) loadPrices(ctx context.Context, ingredientID int64) ([]domain.PriceEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, amount, effective_date FROM ingredient_prices WHERE ingredient_id = $1 ORDER BY effective_date`,
		ingredientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}
	defer rows.Close()

	var prices []domain.PriceEntry
	for rows.Next() {
		var p domain.PriceEntry
		if err := rows.Scan(&p.ID, &p.Amount, &p.EffectiveDate); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

func (r *catalogRepository) loadMovements(ctx context.Context, ingredientID int64) ([]domain.StockMovement, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, movement_type, quantity, unit, moved_at FROM stock_movements WHERE ingredient_id = $1 ORDER BY moved_at, id`,
		ingredientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.Type, &m.Quantity, &m.Unit, &m.At); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// SaveMovements appends the given movements in one transaction. Existing
// rows are never updated.
func (r *catalogRepository) SaveMovements(ctx context.Context, ingredientID int64, movements []domain.StockMovement) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range movements {
		_, err := tx.Exec(ctx,
			`INSERT INTO stock_movements (ingredient_id, movement_type, quantity, unit, moved_at) VALUES ($1, $2, $3, $4, $5)`,
			ingredientID, m.Type, m.Quantity, m.Unit, m.At)
		if err != nil {
			return fmt.Errorf("failed to insert stock movement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit stock movements: %w", err)
	}
	return nil
}

// SavePrices upserts price entries. One price per ingredient per day; a
// second insert for the same day replaces the amount.
func (r *catalogRepository) SavePrices(ctx context.Context, ingredientID int64, prices []domain.PriceEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range prices {
		_, err := tx.Exec(ctx,
			`INSERT INTO ingredient_prices (ingredient_id, amount, effective_date) VALUES ($1, $2, $3)
			 ON CONFLICT (ingredient_id, effective_date) DO UPDATE SET amount = EXCLUDED.amount`,
			ingredientID, p.Amount, p.EffectiveDate)
		if err != nil {
			return fmt.Errorf("failed to insert price: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit prices: %w", err)
	}
	return nil
}
