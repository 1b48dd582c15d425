package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	voicedomain "github.com/marianauyl-oss/amulet-backend-server/internal/voice/domain"
)

func (s *Server) AdminListVoices(c *gin.Context) {
	voices, err := s.voiceSvc.List(c.Request.Context())
	if err != nil {
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, voices)
}

type adminCreateVoiceRequest struct {
	Name    string `json:"name"`
	VoiceID string `json:"voice_id"`
	Active  *bool  `json:"active"`
}

func (s *Server) AdminCreateVoice(c *gin.Context) {
	var req adminCreateVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "invalid request"})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	_, err := s.voiceSvc.Create(c.Request.Context(), req.Name, req.VoiceID, active)
	if err != nil {
		switch {
		case errors.Is(err, voicedomain.ErrInvalidData):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "name and voice_id required"})
		case errors.Is(err, voicedomain.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"ok": false, "msg": "voice already exists"})
		default:
			s.abortAdmin(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type adminBulkVoicesRequest struct {
	Voices []voicedomain.BulkEntry `json:"voices"`
}

func (s *Server) AdminBulkAddVoices(c *gin.Context) {
	var req adminBulkVoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "invalid request"})
		return
	}

	added, err := s.voiceSvc.BulkAdd(c.Request.Context(), req.Voices)
	if err != nil {
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "added": added})
}

func (s *Server) AdminDeleteAllVoices(c *gin.Context) {
	if err := s.voiceSvc.DeleteAll(c.Request.Context()); err != nil {
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) AdminDeleteVoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.voiceSvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, voicedomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false})
			return
		}
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
