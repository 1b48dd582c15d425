package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	licensedomain "github.com/marianauyl-oss/amulet-backend-server/internal/license/domain"
)

type adminLicenseResponse struct {
	ID        snowflake.ID `json:"id"`
	Key       string       `json:"key"`
	MacID     *string      `json:"mac_id"`
	Credit    int64        `json:"credit"`
	Active    bool         `json:"active"`
	CreatedAt string       `json:"created_at"`
}

func (s *Server) AdminListLicenses(c *gin.Context) {
	licenses, err := s.licenseSvc.List(c.Request.Context(), licensedomain.ListRequest{
		Query: c.Query("q"),
	})
	if err != nil {
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, adminLicenseList(licenses))
}

func (s *Server) AdminFilterLicenses(c *gin.Context) {
	req := licensedomain.ListRequest{}
	if value, err := strconv.ParseInt(c.Query("min_credit"), 10, 64); err == nil {
		req.MinCredit = &value
	}
	if value, err := strconv.ParseInt(c.Query("max_credit"), 10, 64); err == nil {
		req.MaxCredit = &value
	}
	switch c.Query("active") {
	case "true":
		active := true
		req.Active = &active
	case "false":
		active := false
		req.Active = &active
	}

	licenses, err := s.licenseSvc.List(c.Request.Context(), req)
	if err != nil {
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, adminLicenseList(licenses))
}

type adminCreateLicenseRequest struct {
	Key    string  `json:"key"`
	MacID  *string `json:"mac_id"`
	Credit int64   `json:"credit"`
	Active *bool   `json:"active"`
}

func (s *Server) AdminCreateLicense(c *gin.Context) {
	var req adminCreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "invalid request"})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	_, err := s.licenseSvc.Create(c.Request.Context(), licensedomain.CreateRequest{
		Key:    req.Key,
		MacID:  req.MacID,
		Credit: req.Credit,
		Active: active,
	})
	if err != nil {
		if errors.Is(err, licensedomain.ErrKeyRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "key required"})
			return
		}
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type adminUpdateLicenseRequest struct {
	Key    *string `json:"key"`
	MacID  *string `json:"mac_id"`
	Credit *int64  `json:"credit"`
	Active *bool   `json:"active"`
}

func (s *Server) AdminUpdateLicense(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req adminUpdateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "invalid request"})
		return
	}

	_, err := s.licenseSvc.Update(c.Request.Context(), licensedomain.UpdateRequest{
		ID:     id,
		Key:    req.Key,
		MacID:  req.MacID,
		Credit: req.Credit,
		Active: req.Active,
	})
	if err != nil {
		if errors.Is(err, licensedomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false})
			return
		}
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) AdminDeleteLicense(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.licenseSvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, licensedomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false})
			return
		}
		s.abortAdmin(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func adminLicenseList(licenses []licensedomain.License) []adminLicenseResponse {
	items := make([]adminLicenseResponse, 0, len(licenses))
	for _, license := range licenses {
		items = append(items, adminLicenseResponse{
			ID:        license.ID,
			Key:       license.Key,
			MacID:     license.MacID,
			Credit:    license.Credit,
			Active:    license.Active,
			CreatedAt: license.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return items
}

func parseIDParam(c *gin.Context) (snowflake.ID, bool) {
	raw := c.Param("id")
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "invalid id"})
		return 0, false
	}
	return snowflake.ID(value), true
}
