package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handler) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *handler) getProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductView(*p))
}
