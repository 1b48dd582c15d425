package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	apikeydomain "github.com/marianauyl-oss/amulet-backend-server/internal/apikey/domain"
	licensedomain "github.com/marianauyl-oss/amulet-backend-server/internal/license/domain"
	obscontext "github.com/marianauyl-oss/amulet-backend-server/internal/observability/context"
	"github.com/marianauyl-oss/amulet-backend-server/internal/observability/logger"
	"go.uber.org/zap"
)

// Action names accepted by the client endpoint. The set is closed: anything
// else is a client error, not a routing miss.
const (
	actionCheck            = "check"
	actionDebit            = "debit"
	actionRefund           = "refund"
	actionNextAPIKey       = "next_api_key"
	actionReleaseAPIKey    = "release_api_key"
	actionDeactivateAPIKey = "deactivate_api_key"
	actionGetVoices        = "get_voices"
	actionGetConfig        = "get_config"
)

// actionRequest is the single envelope for every client action. Count is
// deliberately loose: clients send numbers or strings and both coerce.
type actionRequest struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Mac    string `json:"mac"`
	Count  any    `json:"count"`
	Model  string `json:"model"`
	Reason string `json:"reason"`
	APIKey string `json:"api_key"`
}

// HandleAction dispatches a client action to the matching operation.
//
// Domain failures respond 200 with ok:false so clients branch on the
// envelope, not the status code. Only an unknown action (400) and an
// unexpected fault (500) surface as HTTP errors.
func (s *Server) HandleAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = actionRequest{}
	}

	action := strings.TrimSpace(req.Action)
	ctx := obscontext.WithAction(c.Request.Context(), action)
	c.Request = c.Request.WithContext(ctx)

	switch action {
	case actionCheck:
		s.actionCheck(c, req)
	case actionDebit:
		s.actionDebit(c, req)
	case actionRefund:
		s.actionRefund(c, req)
	case actionNextAPIKey:
		s.actionNextAPIKey(c)
	case actionReleaseAPIKey:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case actionDeactivateAPIKey:
		s.actionDeactivateAPIKey(c, req)
	case actionGetVoices:
		s.actionGetVoices(c)
	case actionGetConfig:
		s.actionGetConfig(c)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "Unknown action"})
	}
}

func (s *Server) actionCheck(c *gin.Context, req actionRequest) {
	result, err := s.licenseSvc.Check(c.Request.Context(), req.Key, req.Mac)
	if err != nil {
		s.writeActionFailure(c, actionCheck, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "credit": result.Credit})
}

func (s *Server) actionDebit(c *gin.Context, req actionRequest) {
	result, err := s.licenseSvc.Debit(c.Request.Context(), licensedomain.DebitRequest{
		Key:   req.Key,
		MacID: req.Mac,
		Count: coerceCount(req.Count),
		Model: req.Model,
	})
	if err != nil {
		s.writeActionFailure(c, actionDebit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "debited": result.Debited, "credit": result.Credit})
}

func (s *Server) actionRefund(c *gin.Context, req actionRequest) {
	result, err := s.licenseSvc.Refund(c.Request.Context(), licensedomain.RefundRequest{
		Key:    req.Key,
		MacID:  req.Mac,
		Count:  coerceCount(req.Count),
		Model:  req.Model,
		Reason: req.Reason,
	})
	if err != nil {
		s.writeActionFailure(c, actionRefund, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "refunded": result.Refunded, "credit": result.Credit})
}

func (s *Server) actionNextAPIKey(c *gin.Context) {
	key, err := s.apikeySvc.NextActive(c.Request.Context())
	if err != nil {
		s.writeActionFailure(c, actionNextAPIKey, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "api_key": key.Value})
}

func (s *Server) actionDeactivateAPIKey(c *gin.Context, req actionRequest) {
	key, err := s.apikeySvc.Deactivate(c.Request.Context(), req.APIKey)
	if err != nil {
		s.writeActionFailure(c, actionDeactivateAPIKey, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": key.Status})
}

func (s *Server) actionGetVoices(c *gin.Context) {
	voices, err := s.voiceSvc.ListActive(c.Request.Context())
	if err != nil {
		s.writeActionFailure(c, actionGetVoices, err)
		return
	}

	items := make([]gin.H, 0, len(voices))
	for _, voice := range voices {
		items = append(items, gin.H{"name": voice.Name, "id": voice.VoiceID})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "voices": items})
}

func (s *Server) actionGetConfig(c *gin.Context) {
	snapshot, err := s.appConfigSvc.Get(c.Request.Context())
	if err != nil {
		s.writeActionFailure(c, actionGetConfig, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "config": snapshot})
}

// writeActionFailure translates domain errors into the failure envelope.
// Anything unrecognized is an internal fault and becomes a 500.
func (s *Server) writeActionFailure(c *gin.Context, action string, err error) {
	var insufficient *licensedomain.InsufficientCreditError

	switch {
	case errors.Is(err, licensedomain.ErrKeyMacRequired):
		c.JSON(http.StatusOK, gin.H{"ok": false, "msg": "key/mac required"})
	case errors.Is(err, licensedomain.ErrNotFound):
		c.JSON(http.StatusOK, gin.H{"ok": false, "msg": "License not found"})
	case errors.Is(err, licensedomain.ErrInactive):
		c.JSON(http.StatusOK, gin.H{"ok": false, "msg": "License inactive"})
	case errors.Is(err, licensedomain.ErrDeviceMismatch):
		// Check reports the binding conflict; ledger operations report the
		// raw identifier mismatch.
		msg := "MAC mismatch"
		if action == actionCheck {
			msg = "License activated on another device"
		}
		c.JSON(http.StatusOK, gin.H{"ok": false, "msg": msg})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusOK, gin.H{"ok": false, "msg": "Insufficient credit", "credit": insufficient.Credit})
	case errors.Is(err, apikeydomain.ErrNoActiveKey):
		c.JSON(http.StatusOK, gin.H{"ok": false, "msg": "No active API keys"})
	case errors.Is(err, apikeydomain.ErrNotFound):
		c.JSON(http.StatusOK, gin.H{"ok": false, "msg": "API key not found"})
	default:
		logger.FromContext(c.Request.Context()).Error("action failed",
			zap.String("action", action),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "msg": err.Error()})
	}
}

// coerceCount accepts whatever JSON value clients send for count and returns
// its integer value, defaulting to 0 for anything absent or unparseable.
func coerceCount(value any) int64 {
	switch typed := value.(type) {
	case nil:
		return 0
	case float64:
		return int64(typed)
	case int64:
		return typed
	case int:
		return int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			if f, ferr := typed.Float64(); ferr == nil {
				return int64(f)
			}
			return 0
		}
		return parsed
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return 0
		}
		parsed, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			if f, ferr := strconv.ParseFloat(trimmed, 64); ferr == nil {
				return int64(f)
			}
			return 0
		}
		return parsed
	default:
		return 0
	}
}
