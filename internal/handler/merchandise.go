package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/service"
)

// MerchandiseHandler serves the catalog and orders under /api/merchandise.
// Invalidate, when set, drops cached catalog responses after any change to
// items or stock.
type MerchandiseHandler struct {
	Merch      *service.MerchandiseService
	Invalidate func(ctx context.Context)
}

type itemReq struct {
	Name        string         `json:"name" validate:"required,max=150"`
	Description string         `json:"description" validate:"max=2000"`
	Price       float64        `json:"price" validate:"gt=0"`
	Category    string         `json:"category" validate:"max=60"`
	ImageURL    string         `json:"image_url" validate:"omitempty,url,max=500"`
	Stock       map[string]int `json:"stock" validate:"omitempty,dive,keys,max=20,endkeys,gte=0"`
}

func (r itemReq) input() service.ItemInput {
	return service.ItemInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		Stock:       r.Stock,
	}
}

type orderReq struct {
	Items []struct {
		ItemID   string `json:"item_id" validate:"required"`
		Size     string `json:"size"`
		Quantity int    `json:"quantity" validate:"gt=0"`
	} `json:"items" validate:"required,min=1,max=20,dive"`
}

type orderStatusReq struct {
	Status string `json:"status" validate:"required,oneof=pending ready completed cancelled"`
}

func (h *MerchandiseHandler) changed(c echo.Context) {
	if h.Invalidate != nil {
		h.Invalidate(context.WithoutCancel(c.Request().Context()))
	}
}

// ListItems: GET /api/merchandise?category=
func (h *MerchandiseHandler) ListItems(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Merch.ListItems(ctx, caller(c), c.QueryParam("category"))
	if err != nil {
		return fail(c, err)
	}
	return list(c, items)
}

func (h *MerchandiseHandler) GetItem(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	it, err := h.Merch.GetItem(ctx, caller(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *MerchandiseHandler) CreateItem(c echo.Context) error {
	var req itemReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	it, err := h.Merch.CreateItem(ctx, caller(c), req.input())
	if err != nil {
		return fail(c, err)
	}
	h.changed(c)
	return c.JSON(http.StatusCreated, it)
}

func (h *MerchandiseHandler) UpdateItem(c echo.Context) error {
	var req itemReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	it, err := h.Merch.UpdateItem(ctx, caller(c), c.Param("id"), req.input())
	if err != nil {
		return fail(c, err)
	}
	h.changed(c)
	return c.JSON(http.StatusOK, it)
}

// DeleteItem hides the item from the catalog; past orders keep referencing it.
func (h *MerchandiseHandler) DeleteItem(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Merch.DeleteItem(ctx, caller(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	h.changed(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *MerchandiseHandler) PlaceOrder(c echo.Context) error {
	var req orderReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	lines := make([]service.OrderLineInput, 0, len(req.Items))
	for _, l := range req.Items {
		lines = append(lines, service.OrderLineInput{ItemID: l.ItemID, Size: l.Size, Quantity: l.Quantity})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Merch.PlaceOrder(ctx, caller(c), lines)
	if err != nil {
		return fail(c, err)
	}
	h.changed(c)
	return c.JSON(http.StatusCreated, o)
}

func (h *MerchandiseHandler) MyOrders(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	orders, err := h.Merch.MyOrders(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, orders)
}

// AllOrders: GET /api/merchandise/orders?status=&center= (admins).
func (h *MerchandiseHandler) AllOrders(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	orders, err := h.Merch.AllOrders(ctx, caller(c),
		model.OrderStatus(c.QueryParam("status")), model.Center(c.QueryParam("center")))
	if err != nil {
		return fail(c, err)
	}
	return list(c, orders)
}

func (h *MerchandiseHandler) UpdateStatus(c echo.Context) error {
	var req orderStatusReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Merch.UpdateStatus(ctx, caller(c), c.Param("id"), model.OrderStatus(req.Status))
	if err != nil {
		return fail(c, err)
	}
	if o.Status == model.OrderCancelled {
		h.changed(c)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *MerchandiseHandler) Cancel(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Merch.Cancel(ctx, caller(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	h.changed(c)
	return c.JSON(http.StatusOK, o)
}
