package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tgbazaar/marketplace-backend/internal/api/middleware"
	"github.com/tgbazaar/marketplace-backend/internal/models"
	"github.com/tgbazaar/marketplace-backend/internal/services"
	"github.com/tgbazaar/marketplace-backend/internal/utils"
	"github.com/tgbazaar/marketplace-backend/pkg/logger"
)

// RespondError maps a service error onto the uniform JSON envelope.
// Unexpected store failures are logged and hidden behind a generic message.
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.SendValidationError(c, err)
	case errors.Is(err, services.ErrPermissionDenied):
		utils.SendForbidden(c, err)
	case services.IsNotFound(err):
		utils.SendNotFound(c, err)
	case errors.Is(err, services.ErrBusinessRule):
		utils.SendConflict(c, err)
	default:
		logger.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Error("request failed")
		utils.SendInternalError(c, errors.New("internal server error"))
	}
}

// Render injects the current user before handing off to the template.
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["Categories"] = models.Categories
	obj["CurrentPath"] = c.Request.URL.Path
	c.HTML(code, name, obj)
}

func RenderNotFound(c *gin.Context) {
	Render(c, http.StatusNotFound, "404.html", nil)
}

func RenderForbidden(c *gin.Context) {
	Render(c, http.StatusForbidden, "403.html", nil)
}
