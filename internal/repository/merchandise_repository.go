package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/gym-management/internal/model"
)

// MerchandiseRepo stores catalog items and their per-size stock.
type MerchandiseRepo struct{ DB *sql.DB }

func NewMerchandiseRepo(db *sql.DB) *MerchandiseRepo { return &MerchandiseRepo{DB: db} }

const itemColumns = "id, name, description, price, category, image_url, is_active, created_at, updated_at"

func scanItem(s rowScanner) (model.MerchandiseItem, error) {
	var (
		it          model.MerchandiseItem
		desc, image sql.NullString
	)
	if err := s.Scan(&it.ID, &it.Name, &desc, &it.Price, &it.Category, &image, &it.IsActive, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return model.MerchandiseItem{}, err
	}
	it.Description = desc.String
	it.ImageURL = image.String
	it.Stock = map[string]int{}
	return it, nil
}

func writeStockTx(ctx context.Context, tx *sql.Tx, itemID string, stock map[string]int) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM merchandise_stock WHERE item_id=?", itemID); err != nil {
		return err
	}
	sizes := make([]string, 0, len(stock))
	for s := range stock {
		sizes = append(sizes, s)
	}
	sort.Strings(sizes)
	for _, size := range sizes {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO merchandise_stock (item_id, size, quantity) VALUES (?,?,?)", itemID, size, stock[size]); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts an item with its stock rows.
func (r *MerchandiseRepo) Create(ctx context.Context, it *model.MerchandiseItem) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	it.CreatedAt, it.UpdatedAt, it.IsActive = now, now, true
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO merchandise ("+itemColumns+") VALUES (?,?,?,?,?,?,1,?,?)",
			it.ID, it.Name, nullString(it.Description), it.Price, it.Category, nullString(it.ImageURL), now, now); err != nil {
			return err
		}
		return writeStockTx(ctx, tx, it.ID, it.Stock)
	})
}

// Update rewrites the item and replaces its stock rows.
func (r *MerchandiseRepo) Update(ctx context.Context, it *model.MerchandiseItem) error {
	it.UpdatedAt = time.Now().UTC()
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE merchandise SET name=?, description=?, price=?, category=?, image_url=?, updated_at=? WHERE id=? AND is_active=1",
			it.Name, nullString(it.Description), it.Price, it.Category, nullString(it.ImageURL), it.UpdatedAt, it.ID)
		if err != nil {
			return err
		}
		if err := requireRow(res); err != nil {
			return err
		}
		return writeStockTx(ctx, tx, it.ID, it.Stock)
	})
}

// Deactivate removes an item from the catalog; past orders keep referencing it.
func (r *MerchandiseRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE merchandise SET is_active=0, updated_at=? WHERE id=? AND is_active=1", time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Get returns one item with its stock.
func (r *MerchandiseRepo) Get(ctx context.Context, id string) (model.MerchandiseItem, error) {
	it, err := scanItem(r.DB.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM merchandise WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.MerchandiseItem{}, notFound(err)
	}
	items := []model.MerchandiseItem{it}
	if err := r.attachStock(ctx, items); err != nil {
		return model.MerchandiseItem{}, err
	}
	return items[0], nil
}

// List returns active items, optionally filtered by category.
func (r *MerchandiseRepo) List(ctx context.Context, category string) ([]model.MerchandiseItem, error) {
	query := "SELECT " + itemColumns + " FROM merchandise WHERE is_active=1"
	var args []any
	if category != "" {
		query += " AND category=?"
		args = append(args, category)
	}
	rows, err := r.DB.QueryContext(ctx, query+" ORDER BY name", args...)
	if err != nil {
		return nil, err
	}
	var items []model.MerchandiseItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachStock(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MerchandiseRepo) attachStock(ctx context.Context, items []model.MerchandiseItem) error {
	if len(items) == 0 {
		return nil
	}
	idx := make(map[string]int, len(items))
	args := make([]any, 0, len(items))
	ph := ""
	for i, it := range items {
		idx[it.ID] = i
		args = append(args, it.ID)
		if i > 0 {
			ph += ","
		}
		ph += "?"
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT item_id, size, quantity FROM merchandise_stock WHERE item_id IN ("+ph+") ORDER BY item_id, size", args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id, size string
			qty      int
		)
		if err := rows.Scan(&id, &size, &qty); err != nil {
			return err
		}
		if i, ok := idx[id]; ok {
			items[i].Stock[size] = qty
			items[i].Sizes = append(items[i].Sizes, size)
		}
	}
	return rows.Err()
}
