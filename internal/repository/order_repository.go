package repository

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/gym-management/internal/model"
)

// OrderRepo places and tracks merchandise orders.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// Place validates and prices every line, decrements stock and inserts the
// order in a single transaction. Each decrement is conditional on sufficient
// stock, so concurrent orders for the same item and size serialize on the
// stock row and can never drive it negative. Any failing line rolls back the
// whole order.
func (r *OrderRepo) Place(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt, o.Status = now, now, model.OrderPending

	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		total := 0.0
		for i := range o.Items {
			line := &o.Items[i]
			var active bool
			err := tx.QueryRowContext(ctx,
				"SELECT name, price, is_active FROM merchandise WHERE id=?", line.ItemID).
				Scan(&line.ItemName, &line.UnitPrice, &active)
			if err != nil {
				return notFound(err)
			}
			if !active {
				return ErrNotFound
			}
			res, err := tx.ExecContext(ctx,
				"UPDATE merchandise_stock SET quantity = quantity - ? WHERE item_id=? AND size=? AND quantity >= ?",
				line.Quantity, line.ItemID, line.Size, line.Quantity)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n == 0 {
				return ErrInsufficientStock
			}
			total += line.UnitPrice * float64(line.Quantity)
		}
		o.Total = math.Round(total*100) / 100

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO orders (id, user_id, center, status, total, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
			o.ID, o.UserID, nullString(string(o.Center)), o.Status, o.Total, now, now); err != nil {
			return err
		}
		for i, line := range o.Items {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO order_items (order_id, line_no, item_id, item_name, size, quantity, unit_price) VALUES (?,?,?,?,?,?,?)",
				o.ID, i+1, line.ItemID, line.ItemName, line.Size, line.Quantity, line.UnitPrice); err != nil {
				return err
			}
		}
		return nil
	})
}

// Transition moves an order from one status to another. The update is
// conditional on the current status; a concurrent change yields ErrConflict.
// Cancelling returns the order's quantities to stock in the same transaction.
func (r *OrderRepo) Transition(ctx context.Context, id string, from, to model.OrderStatus) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE orders SET status=?, updated_at=? WHERE id=? AND status=?", to, time.Now().UTC(), id, from)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrConflict
		}
		if to != model.OrderCancelled {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE merchandise_stock s JOIN order_items oi ON oi.item_id=s.item_id AND oi.size=s.size
			SET s.quantity = s.quantity + oi.quantity WHERE oi.order_id=?`, id)
		return err
	})
}

const orderColumns = "o.id, o.user_id, u.full_name, o.center, o.status, o.total, o.created_at, o.updated_at"

func scanOrder(s rowScanner) (model.Order, error) {
	var (
		o      model.Order
		center sql.NullString
	)
	if err := s.Scan(&o.ID, &o.UserID, &o.UserName, &center, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return model.Order{}, err
	}
	o.Center = model.Center(center.String)
	return o, nil
}

// Get returns one order with its lines.
func (r *OrderRepo) Get(ctx context.Context, id string) (model.Order, error) {
	o, err := scanOrder(r.DB.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders o JOIN users u ON u.id=o.user_id WHERE o.id=? LIMIT 1", id))
	if err != nil {
		return model.Order{}, notFound(err)
	}
	orders := []model.Order{o}
	if err := r.attachLines(ctx, orders); err != nil {
		return model.Order{}, err
	}
	return orders[0], nil
}

// OrderQuery filters List.
type OrderQuery struct {
	UserID string
	Status model.OrderStatus
	Center model.Center
	Limit  int
}

// List returns orders newest first.
func (r *OrderRepo) List(ctx context.Context, q OrderQuery) ([]model.Order, error) {
	var (
		conds []string
		args  []any
	)
	if q.UserID != "" {
		conds = append(conds, "o.user_id=?")
		args = append(args, q.UserID)
	}
	if q.Status != "" {
		conds = append(conds, "o.status=?")
		args = append(args, q.Status)
	}
	if q.Center != "" {
		conds = append(conds, "o.center=?")
		args = append(args, q.Center)
	}
	query := "SELECT " + orderColumns + " FROM orders o JOIN users u ON u.id=o.user_id"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY o.created_at DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var out []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByStatus counts orders in a status.
func (r *OrderRepo) CountByStatus(ctx context.Context, status model.OrderStatus) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE status=?", status).Scan(&n)
	return n, err
}

func (r *OrderRepo) attachLines(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	idx := make(map[string]int, len(orders))
	args := make([]any, 0, len(orders))
	for i, o := range orders {
		idx[o.ID] = i
		args = append(args, o.ID)
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT order_id, item_id, item_name, size, quantity, unit_price FROM order_items WHERE order_id IN (?"+
			strings.Repeat(",?", len(orders)-1)+") ORDER BY order_id, line_no", args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			l       model.OrderLine
		)
		if err := rows.Scan(&orderID, &l.ItemID, &l.ItemName, &l.Size, &l.Quantity, &l.UnitPrice); err != nil {
			return err
		}
		if i, ok := idx[orderID]; ok {
			orders[i].Items = append(orders[i].Items, l)
		}
	}
	return rows.Err()
}
