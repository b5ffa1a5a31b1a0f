package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/futebagres/pelada-api/internal/middleware"
	"github.com/futebagres/pelada-api/internal/models"
	appErrors "github.com/futebagres/pelada-api/pkg/errors"
	"github.com/futebagres/pelada-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentUser(c)
}

// requireUserID returns the caller's id or writes a 401 and reports false.
func requireUserID(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func withCacheMeta(c *gin.Context, hit bool) map[string]interface{} {
	middleware.SetCacheHit(c, hit)
	return middleware.Meta(c).Map()
}
