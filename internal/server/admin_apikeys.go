package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apikeydomain "github.com/marianauyl-oss/amulet-backend-server/internal/apikey/domain"
	"github.com/marianauyl-oss/amulet-backend-server/internal/observability/logger"
)

func (s *Server) AdminListAPIKeys(c *gin.Context) {
	keys, err := s.apikeySvc.List(c.Request.Context())
	if err != nil {
		s.abortAdmin(c, err)
		return
	}

	items := make([]gin.H, 0, len(keys))
	for _, key := range keys {
		items = append(items, gin.H{
			"id":         key.ID,
			"api_key":    logger.MaskAPIKey(key.Value),
			"status":     key.Status,
			"created_at": key.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, items)
}

type adminCreateAPIKeyRequest struct {
	Value  string `json:"api_key"`
	Status string `json:"status"`
}

func (s *Server) AdminCreateAPIKey(c *gin.Context) {
	var req adminCreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "invalid request"})
		return
	}

	_, err := s.apikeySvc.Create(c.Request.Context(), req.Value, req.Status)
	if err != nil {
		if errors.Is(err, apikeydomain.ErrValueRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "api_key required"})
			return
		}
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) AdminDeleteAPIKey(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.apikeySvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, apikeydomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false})
			return
		}
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
