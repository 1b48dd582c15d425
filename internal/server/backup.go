package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	licensedomain "github.com/marianauyl-oss/amulet-backend-server/internal/license/domain"
)

// AdminBackup streams a full JSON export of every table as an attachment.
func (s *Server) AdminBackup(c *gin.Context) {
	ctx := c.Request.Context()

	licenses, err := s.licenseSvc.List(ctx, licensedomain.ListRequest{})
	if err != nil {
		s.abortAdmin(c, err)
		return
	}
	keys, err := s.apikeySvc.List(ctx)
	if err != nil {
		s.abortAdmin(c, err)
		return
	}
	voices, err := s.voiceSvc.List(ctx)
	if err != nil {
		s.abortAdmin(c, err)
		return
	}
	logs, err := s.activityRepo.List(ctx, s.db, 0)
	if err != nil {
		s.abortAdmin(c, err)
		return
	}
	appCfg, err := s.appConfigSvc.GetRaw(ctx)
	if err != nil {
		s.abortAdmin(c, err)
		return
	}

	attachmentHeader(c, "backup")
	c.JSON(http.StatusOK, gin.H{
		"exported_at": time.Now().UTC(),
		"licenses":    licenses,
		"api_keys":    keys,
		"voices":      voices,
		"logs":        logs,
		"config":      appCfg,
	})
}

// AdminBackupUsers exports only the license table.
func (s *Server) AdminBackupUsers(c *gin.Context) {
	licenses, err := s.licenseSvc.List(c.Request.Context(), licensedomain.ListRequest{})
	if err != nil {
		s.abortAdmin(c, err)
		return
	}

	attachmentHeader(c, "users")
	c.JSON(http.StatusOK, gin.H{
		"exported_at": time.Now().UTC(),
		"licenses":    licenses,
	})
}

func attachmentHeader(c *gin.Context, name string) {
	stamp := time.Now().UTC().Format("20060102_150405")
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s_%s.json", name, stamp))
}
