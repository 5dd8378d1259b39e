package httpserver

import (
	"net/http"

	"storefront-checkout/internal/domain"
	ordersvc "storefront-checkout/internal/service/order"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type createOrderRequest struct {
	AddressID     string `json:"addressId" binding:"required"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`
	Notes         string `json:"notes"`
}

type statusRequest struct {
	Status   string `json:"status" binding:"required"`
	Override bool   `json:"override"`
}

type listOrdersQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
	Status string `form:"status"`
}

// toListQuery applies the page defaults and caps the page size.
func (q listOrdersQuery) toListQuery() (ordersvc.ListQuery, error) {
	out := ordersvc.ListQuery{Page: q.Page, Limit: q.Limit}
	if out.Page == 0 {
		out.Page = 1
	}
	if out.Limit == 0 {
		out.Limit = defaultPageLimit
	}
	if out.Limit > maxPageLimit {
		out.Limit = maxPageLimit
	}
	if q.Status != "" {
		st, err := domain.ParseOrderStatus(q.Status)
		if err != nil {
			return out, err
		}
		out.Status = st
	}
	return out, nil
}

func (h *handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeError(c, err)
		return
	}
	o, err := h.orders.CreateOrder(c.Request.Context(), ownerID(c), ordersvc.CreateInput{
		AddressID:     req.AddressID,
		PaymentMethod: method,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderView(*o))
}

func (h *handler) listOrders(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}
	page, err := h.orders.List(c.Request.Context(), ownerID(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderListView(*page))
}

func (h *handler) getOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), ownerID(c), c.Param("id"))
	h.writeOrder(c, o, err)
}

func (h *handler) updateOrderStatus(c *gin.Context) {
	to, ok := bindStatus(c)
	if !ok {
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), ownerID(c), c.Param("id"), to.status)
	h.writeOrder(c, o, err)
}

func (h *handler) cancelOrder(c *gin.Context) {
	o, err := h.orders.Cancel(c.Request.Context(), ownerID(c), c.Param("id"))
	h.writeOrder(c, o, err)
}

func (h *handler) adminListOrders(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}
	page, err := h.orders.ListAdmin(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, adminOrderListView{
		orderListView: toOrderListView(page.Page),
		Stats:         page.Stats,
	})
}

// adminUpdateOrderStatus follows the lifecycle unless the request asks for
// an override, which the order service only honours when enabled.
func (h *handler) adminUpdateOrderStatus(c *gin.Context) {
	to, ok := bindStatus(c)
	if !ok {
		return
	}
	var (
		o   *domain.Order
		err error
	)
	if to.override {
		o, err = h.orders.ForceStatus(c.Request.Context(), c.Param("id"), to.status)
	} else {
		o, err = h.orders.UpdateStatusAdmin(c.Request.Context(), c.Param("id"), to.status)
	}
	h.writeOrder(c, o, err)
}

func (h *handler) writeOrder(c *gin.Context, o *domain.Order, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(*o))
}

type statusChange struct {
	status   domain.OrderStatus
	override bool
}

func bindStatus(c *gin.Context) (statusChange, bool) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return statusChange{}, false
	}
	st, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return statusChange{}, false
	}
	return statusChange{status: st, override: req.Override}, true
}

func bindListQuery(c *gin.Context) (ordersvc.ListQuery, bool) {
	var raw listOrdersQuery
	if err := c.ShouldBindQuery(&raw); err != nil {
		bindError(c, err)
		return ordersvc.ListQuery{}, false
	}
	q, err := raw.toListQuery()
	if err != nil {
		writeError(c, err)
		return q, false
	}
	return q, true
}
