package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/obratech/procurement-api/internal/middleware"
	"github.com/obratech/procurement-api/internal/models"
)

// actorFrom extracts the authenticated actor set by the auth middleware.
func actorFrom(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(middleware.ClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
