package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Phone string `json:"phone" binding:"required"`
	Name  string `json:"name" binding:"required,max=100"`
}

type loginRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// registerClient creates a client or renames the one already using the phone.
func (h *handler) registerClient(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	client, err := h.clients.Register(c.Request.Context(), req.Phone, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientView(*client))
}

func (h *handler) loginClient(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	client, err := h.clients.Login(c.Request.Context(), req.Phone)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientView(*client))
}
