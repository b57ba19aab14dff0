package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/metrics"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/repository"
)

const maxOrderLineQuantity = 50

// MerchandiseService manages the catalog and merchandise orders.
type MerchandiseService struct {
	Items    MerchandiseStore
	Orders   OrderStore
	Users    UserStore
	Notifier *Notifier
}

// ItemInput is the writable part of a catalog item. Stock maps a size to
// the quantity on hand; items without sizes use the size "default".
type ItemInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	ImageURL    string
	Stock       map[string]int
}

func (in ItemInput) apply(it *model.MerchandiseItem) error {
	it.Name = strings.TrimSpace(in.Name)
	it.Description = strings.TrimSpace(in.Description)
	it.Category = strings.TrimSpace(in.Category)
	it.ImageURL = strings.TrimSpace(in.ImageURL)
	it.Price = math.Round(in.Price*100) / 100
	switch {
	case it.Name == "":
		return apperr.Validation("name is required")
	case it.Category == "":
		return apperr.Validation("category is required")
	case in.Price <= 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0):
		return apperr.Validation("price must be positive")
	}
	stock := map[string]int{}
	for size, qty := range in.Stock {
		size = strings.TrimSpace(size)
		if size == "" {
			return apperr.Validation("stock sizes must not be empty")
		}
		if qty < 0 {
			return apperr.Validation(fmt.Sprintf("stock for size %s must not be negative", size))
		}
		stock[size] = qty
	}
	if len(stock) == 0 {
		stock["default"] = 0
	}
	it.Stock = stock
	return nil
}

// ListItems returns the active catalog.
func (s *MerchandiseService) ListItems(ctx context.Context, actor policy.Actor, category string) ([]model.MerchandiseItem, error) {
	if err := policy.Require(actor, policy.Merchandise, policy.Read); err != nil {
		return nil, err
	}
	items, err := s.Items.List(ctx, category)
	if err != nil {
		return nil, storeErr(err, "item")
	}
	if items == nil {
		items = []model.MerchandiseItem{}
	}
	return items, nil
}

// GetItem returns an active item. Admins can also read retired items.
func (s *MerchandiseService) GetItem(ctx context.Context, actor policy.Actor, id string) (model.MerchandiseItem, error) {
	if err := policy.Require(actor, policy.Merchandise, policy.Read); err != nil {
		return model.MerchandiseItem{}, err
	}
	it, err := s.Items.Get(ctx, id)
	if err != nil {
		return model.MerchandiseItem{}, storeErr(err, "item")
	}
	if !it.IsActive && !actor.IsAdmin() {
		return model.MerchandiseItem{}, apperr.NotFound("item not found")
	}
	return it, nil
}

// CreateItem adds a catalog item.
func (s *MerchandiseService) CreateItem(ctx context.Context, actor policy.Actor, in ItemInput) (model.MerchandiseItem, error) {
	if err := policy.Require(actor, policy.Merchandise, policy.Create); err != nil {
		return model.MerchandiseItem{}, err
	}
	var it model.MerchandiseItem
	if err := in.apply(&it); err != nil {
		return model.MerchandiseItem{}, err
	}
	if err := s.Items.Create(ctx, &it); err != nil {
		return model.MerchandiseItem{}, storeErr(err, "item")
	}
	return it, nil
}

// UpdateItem rewrites an item and its stock levels.
func (s *MerchandiseService) UpdateItem(ctx context.Context, actor policy.Actor, id string, in ItemInput) (model.MerchandiseItem, error) {
	if err := policy.Require(actor, policy.Merchandise, policy.Update); err != nil {
		return model.MerchandiseItem{}, err
	}
	it := model.MerchandiseItem{ID: id}
	if err := in.apply(&it); err != nil {
		return model.MerchandiseItem{}, err
	}
	if err := s.Items.Update(ctx, &it); err != nil {
		return model.MerchandiseItem{}, storeErr(err, "item")
	}
	out, err := s.Items.Get(ctx, id)
	return out, storeErr(err, "item")
}

// DeleteItem retires an item from the catalog.
func (s *MerchandiseService) DeleteItem(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Require(actor, policy.Merchandise, policy.Delete); err != nil {
		return err
	}
	return storeErr(s.Items.Deactivate(ctx, id), "item")
}

// OrderLineInput is one requested line of a new order.
type OrderLineInput struct {
	ItemID   string
	Size     string
	Quantity int
}

// mergeLines validates the lines and folds repeated (item, size) pairs into
// one line so each stock row is decremented once. Lines come back ordered by
// (item, size) so concurrent orders lock stock rows in the same order.
func mergeLines(in []OrderLineInput) ([]model.OrderLine, error) {
	if len(in) == 0 {
		return nil, apperr.Validation("items is required")
	}
	type key struct{ item, size string }
	idx := map[key]int{}
	var out []model.OrderLine
	for _, l := range in {
		size := strings.TrimSpace(l.Size)
		if size == "" {
			size = "default"
		}
		switch {
		case l.ItemID == "":
			return nil, apperr.Validation("item_id is required")
		case l.Quantity <= 0:
			return nil, apperr.Validation("quantity must be positive")
		}
		k := key{l.ItemID, size}
		if i, ok := idx[k]; ok {
			out[i].Quantity += l.Quantity
		} else {
			idx[k] = len(out)
			out = append(out, model.OrderLine{ItemID: l.ItemID, Size: size, Quantity: l.Quantity})
		}
	}
	for _, l := range out {
		if l.Quantity > maxOrderLineQuantity {
			return nil, apperr.Validation(fmt.Sprintf("quantity must not exceed %d", maxOrderLineQuantity))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].Size < out[j].Size
	})
	return out, nil
}

// PlaceOrder reserves stock for every line and records a pending order. If
// any line cannot be satisfied nothing is reserved.
func (s *MerchandiseService) PlaceOrder(ctx context.Context, actor policy.Actor, lines []OrderLineInput) (model.Order, error) {
	if err := policy.Authorize(actor, policy.Order, policy.Create, policy.Target{OwnerID: actor.ID, Center: actor.Center}); err != nil {
		return model.Order{}, err
	}
	items, err := mergeLines(lines)
	if err != nil {
		return model.Order{}, err
	}
	o := model.Order{UserID: actor.ID, Center: actor.Center, Items: items}
	if err := s.Orders.Place(ctx, &o); err != nil {
		outcome := "failed"
		if errors.Is(err, repository.ErrInsufficientStock) {
			outcome = "insufficient_stock"
		}
		metrics.OrdersTotal.WithLabelValues(outcome).Inc()
		return model.Order{}, storeErr(err, "item")
	}
	metrics.OrdersTotal.WithLabelValues("placed").Inc()

	if s.Notifier != nil {
		active := true
		admins, err := s.Users.List(ctx, repository.UserQuery{Role: model.RoleAdmin, Active: &active, ApprovedOnly: true})
		if err == nil {
			ids := make([]string, 0, len(admins))
			for _, a := range admins {
				ids = append(ids, a.ID)
			}
			s.Notifier.NotifyMany(ctx, ids, model.NotifyOrder, "New merchandise order",
				fmt.Sprintf("Order %s placed, total %.2f", shortID(o.ID), o.Total), map[string]string{"order_id": o.ID})
		}
	}
	return o, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// MyOrders lists the caller's own orders.
func (s *MerchandiseService) MyOrders(ctx context.Context, actor policy.Actor) ([]model.Order, error) {
	if err := policy.Require(actor, policy.Order, policy.Read); err != nil {
		return nil, err
	}
	return s.listOrders(ctx, repository.OrderQuery{UserID: actor.ID})
}

// AllOrders lists every order. Only callers with gym-wide order access may use it.
func (s *MerchandiseService) AllOrders(ctx context.Context, actor policy.Actor, status model.OrderStatus, center model.Center) ([]model.Order, error) {
	f, err := policy.ListFilter(actor, policy.Order)
	if err != nil {
		return nil, err
	}
	if !f.All {
		return nil, apperr.Forbidden("not allowed to list all orders")
	}
	if center != "" && !center.Valid() {
		return nil, apperr.Validation("invalid center")
	}
	return s.listOrders(ctx, repository.OrderQuery{Status: status, Center: center})
}

func (s *MerchandiseService) listOrders(ctx context.Context, q repository.OrderQuery) ([]model.Order, error) {
	q.Limit = 500
	out, err := s.Orders.List(ctx, q)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	if out == nil {
		out = []model.Order{}
	}
	return out, nil
}

func (s *MerchandiseService) loadOrder(ctx context.Context, actor policy.Actor, id string, act policy.Action) (model.Order, error) {
	if err := policy.Gate(actor); err != nil {
		return model.Order{}, err
	}
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return model.Order{}, storeErr(err, "order")
	}
	if err := policy.Authorize(actor, policy.Order, act, policy.Target{OwnerID: o.UserID, Center: o.Center}); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// UpdateStatus moves an order along its lifecycle. Cancelling restocks.
func (s *MerchandiseService) UpdateStatus(ctx context.Context, actor policy.Actor, id string, next model.OrderStatus) (model.Order, error) {
	act := policy.Update
	if next == model.OrderCancelled {
		act = policy.Cancel
	}
	o, err := s.loadOrder(ctx, actor, id, act)
	if err != nil {
		return model.Order{}, err
	}
	switch next {
	case model.OrderPending, model.OrderReady, model.OrderCompleted, model.OrderCancelled:
	default:
		return model.Order{}, apperr.Validation("status must be ready, completed or cancelled")
	}
	return s.transition(ctx, o, next)
}

// Cancel cancels an order. Buyers may only cancel their own pending orders.
func (s *MerchandiseService) Cancel(ctx context.Context, actor policy.Actor, id string) (model.Order, error) {
	o, err := s.loadOrder(ctx, actor, id, policy.Cancel)
	if err != nil {
		return model.Order{}, err
	}
	if policy.ScopeFor(actor, policy.Order, policy.Cancel) < policy.ScopeAll && o.Status != model.OrderPending {
		return model.Order{}, apperr.Conflict("only pending orders can be cancelled")
	}
	return s.transition(ctx, o, model.OrderCancelled)
}

func (s *MerchandiseService) transition(ctx context.Context, o model.Order, next model.OrderStatus) (model.Order, error) {
	if !o.Status.CanTransition(next) {
		return model.Order{}, apperr.Conflict(fmt.Sprintf("cannot move order from %s to %s", o.Status, next))
	}
	if err := s.Orders.Transition(ctx, o.ID, o.Status, next); err != nil {
		return model.Order{}, storeErr(err, "order")
	}
	metrics.OrdersTotal.WithLabelValues(string(next)).Inc()
	updated, err := s.Orders.Get(ctx, o.ID)
	if err != nil {
		return model.Order{}, storeErr(err, "order")
	}
	s.Notifier.Notify(ctx, o.UserID, model.NotifyOrder, "Order "+string(next),
		fmt.Sprintf("Your order %s is now %s", shortID(o.ID), next), map[string]string{"order_id": o.ID, "status": string(next)})
	return updated, nil
}
