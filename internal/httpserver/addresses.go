package httpserver

import (
	"net/http"

	addresssvc "storefront-checkout/internal/service/address"

	"github.com/gin-gonic/gin"
)

type addressRequest struct {
	Street       string `json:"street" binding:"required"`
	Number       string `json:"number" binding:"required"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood" binding:"required"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	ZipCode      string `json:"zipCode" binding:"required"`
}

// updateAddressRequest mirrors addressRequest with every field optional.
type updateAddressRequest struct {
	Street       *string `json:"street"`
	Number       *string `json:"number"`
	Complement   *string `json:"complement"`
	Neighborhood *string `json:"neighborhood"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	ZipCode      *string `json:"zipCode"`
}

func (h *handler) createAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	a, err := h.addresses.Create(c.Request.Context(), ownerID(c), addresssvc.CreateInput{
		Street:       req.Street,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAddressView(*a))
}

func (h *handler) listAddresses(c *gin.Context) {
	list, err := h.addresses.List(c.Request.Context(), ownerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]addressView, 0, len(list))
	for _, a := range list {
		out = append(out, toAddressView(a))
	}
	c.JSON(http.StatusOK, gin.H{"addresses": out})
}

func (h *handler) getAddress(c *gin.Context) {
	a, err := h.addresses.Get(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAddressView(*a))
}

func (h *handler) updateAddress(c *gin.Context) {
	var req updateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	a, err := h.addresses.Update(c.Request.Context(), ownerID(c), c.Param("id"), addresssvc.UpdateInput{
		Street:       req.Street,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAddressView(*a))
}

func (h *handler) deleteAddress(c *gin.Context) {
	if err := h.addresses.Delete(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
