package model

import "time"

// OrderStatus is the lifecycle state of a merchandise order.
type OrderStatus string

const (
    OrderPending   OrderStatus = "pending"
    OrderReady     OrderStatus = "ready"
    OrderCompleted OrderStatus = "completed"
    OrderCancelled OrderStatus = "cancelled"
)

// CanTransition reports whether an order may move from s to next.
// pending → ready → completed; pending|ready → cancelled.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
    switch s {
    case OrderPending:
        return next == OrderReady || next == OrderCancelled
    case OrderReady:
        return next == OrderCompleted || next == OrderCancelled
    }
    return false
}

// MerchandiseItem mirrors the `merchandise` table plus its per-size stock rows.
type MerchandiseItem struct {
    ID          string         `json:"id"`
    Name        string         `json:"name"`
    Description string         `json:"description,omitempty"`
    Price       float64        `json:"price"`
    Category    string         `json:"category"`
    ImageURL    string         `json:"image_url,omitempty"`
    Sizes       []string       `json:"sizes"`
    Stock       map[string]int `json:"stock"`
    IsActive    bool           `json:"is_active"`
    CreatedAt   time.Time      `json:"created_at"`
    UpdatedAt   time.Time      `json:"updated_at"`
}

// OrderLine is one (item, size, quantity) entry of an order.
type OrderLine struct {
    ItemID    string  `json:"item_id"`
    ItemName  string  `json:"item_name,omitempty"`
    Size      string  `json:"size"`
    Quantity  int     `json:"quantity"`
    UnitPrice float64 `json:"unit_price"`
}

// Order mirrors `orders` joined with `order_items`.
type Order struct {
    ID        string      `json:"id"`
    UserID    string      `json:"user_id"`
    UserName  string      `json:"user_name,omitempty"`
    Center    Center      `json:"center,omitempty"`
    Status    OrderStatus `json:"status"`
    Total     float64     `json:"total"`
    Items     []OrderLine `json:"items"`
    CreatedAt time.Time   `json:"created_at"`
    UpdatedAt time.Time   `json:"updated_at"`
}
