package httpserver

import (
	"net/http"

	"storefront-checkout/internal/domain"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *handler) getCart(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), ownerID(c))
	h.writeCart(c, cart, err)
}

func (h *handler) clearCart(c *gin.Context) {
	cart, err := h.carts.Clear(c.Request.Context(), ownerID(c))
	h.writeCart(c, cart, err)
}

func (h *handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cart, err := h.carts.AddItem(c.Request.Context(), ownerID(c), req.ProductID, req.Quantity)
	h.writeCart(c, cart, err)
}

func (h *handler) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cart, err := h.carts.UpdateItemQuantity(c.Request.Context(), ownerID(c), c.Param("id"), req.Quantity)
	h.writeCart(c, cart, err)
}

func (h *handler) removeCartItem(c *gin.Context) {
	cart, err := h.carts.RemoveItem(c.Request.Context(), ownerID(c), c.Param("id"))
	h.writeCart(c, cart, err)
}

func (h *handler) writeCart(c *gin.Context, cart *domain.Cart, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartView(*cart))
}
