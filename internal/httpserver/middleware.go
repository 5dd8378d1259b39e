package httpserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"storefront-checkout/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	clientHeader = "X-Client-ID"
	adminHeader  = "X-Admin-Key"
)

type ctxKey string

const clientCtxKey ctxKey = "client"

type clientLookup interface {
	Get(ctx context.Context, id string) (*domain.Client, error)
}

// clientMiddleware resolves the calling client from X-Client-ID and stores it
// on the request context.
func clientMiddleware(clients clientLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(clientHeader))
		if id == "" {
			abortUnauthorized(c, "missing "+clientHeader+" header")
			return
		}
		client, err := clients.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				abortUnauthorized(c, "unknown client")
				return
			}
			writeError(c, err)
			c.Abort()
			return
		}
		ctx := context.WithValue(c.Request.Context(), clientCtxKey, client)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// adminMiddleware checks X-Admin-Key against the configured key. An empty
// key locks the admin routes entirely.
func adminMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(adminHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			abortUnauthorized(c, "invalid admin key")
			return
		}
		c.Next()
	}
}

func currentClient(c *gin.Context) *domain.Client {
	client, _ := c.Request.Context().Value(clientCtxKey).(*domain.Client)
	return client
}

// ownerID returns the id of the client resolved by clientMiddleware.
func ownerID(c *gin.Context) string {
	if client := currentClient(c); client != nil {
		return client.ID
	}
	return ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: msg})
}
