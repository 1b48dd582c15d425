package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	appconfigdomain "github.com/marianauyl-oss/amulet-backend-server/internal/appconfig/domain"
	"github.com/marianauyl-oss/amulet-backend-server/internal/observability/logger"
	"go.uber.org/zap"
)

func (s *Server) AdminGetConfig(c *gin.Context) {
	row, err := s.appConfigSvc.GetRaw(c.Request.Context())
	if err != nil {
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) AdminUpdateConfig(c *gin.Context) {
	var req appconfigdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "invalid request"})
		return
	}

	if err := s.appConfigSvc.Update(c.Request.Context(), req); err != nil {
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) AdminListLogs(c *gin.Context) {
	limit := 200
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := s.activityRepo.List(c.Request.Context(), s.db, limit)
	if err != nil {
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// abortAdmin reports an unexpected fault on the admin surface.
func (s *Server) abortAdmin(c *gin.Context, err error) {
	logger.FromContext(c.Request.Context()).Error("admin request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "msg": err.Error()})
}
