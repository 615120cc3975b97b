package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tahfidz-app/tahfidz-api/internal/middleware"
	"github.com/tahfidz-app/tahfidz-api/internal/models"
	"github.com/tahfidz-app/tahfidz-api/internal/service"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
	"github.com/tahfidz-app/tahfidz-api/pkg/response"
)

// AchievementHandler wires HTTP endpoints to the achievement read side.
type AchievementHandler struct {
	service *service.AchievementService
	points  *service.PoinService
}

// NewAchievementHandler creates a new handler.
func NewAchievementHandler(svc *service.AchievementService, points *service.PoinService) *AchievementHandler {
	return &AchievementHandler{service: svc, points: points}
}

// resolveTarget decides whose achievements the caller is asking for and
// whether they may see them.
func (h *AchievementHandler) resolveTarget(c *gin.Context, claims *models.JWTClaims) (string, bool) {
	if claims.Role == models.RoleSiswa {
		return claims.UserID, true
	}
	target := c.Query("siswa_id")
	if target == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "siswa_id is required"))
		return "", false
	}
	return target, true
}

// Summary godoc
// @Summary Achievement summary
// @Description Tier, point total and juz completion for a student
// @Tags Achievements
// @Produce json
// @Security BearerAuth
// @Param siswa_id query string false "Student ID (teachers, parents, admins)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /achievements [get]
func (h *AchievementHandler) Summary(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var summary *models.AchievementSummary
	var err error
	if claims.Role == models.RoleOrtu {
		summary, err = h.service.SummaryForChild(c.Request.Context(), claims.UserID, c.Query("siswa_id"))
	} else {
		target, ok := h.resolveTarget(c, claims)
		if !ok {
			return
		}
		summary, err = h.service.Summary(c.Request.Context(), target)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// Leaderboard godoc
// @Summary Class point leaderboard
// @Tags Achievements
// @Produce json
// @Security BearerAuth
// @Param organize_id query string true "Class ID"
// @Param limit query int false "Number of entries"
// @Success 200 {object} response.Envelope
// @Router /achievements/leaderboard [get]
func (h *AchievementHandler) Leaderboard(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	organizeID := c.Query("organize_id")
	if organizeID == "" && claims.OrganizeID != nil {
		organizeID = *claims.OrganizeID
	}

	rows, err := h.points.Leaderboard(c.Request.Context(), organizeID, queryInt(c, "limit", 10))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows, nil)
}

// Export godoc
// @Summary Download a progress report
// @Description Renders the achievement summary as CSV or PDF
// @Tags Achievements
// @Produce octet-stream
// @Security BearerAuth
// @Param siswa_id query string false "Student ID (teachers, parents, admins)"
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /achievements/export [get]
func (h *AchievementHandler) Export(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	target := c.Query("siswa_id")
	if claims.Role == models.RoleSiswa {
		target = claims.UserID
	}
	if claims.Role == models.RoleOrtu {
		// Verify the link before rendering on a child's behalf.
		if _, err := h.service.SummaryForChild(c.Request.Context(), claims.UserID, target); err != nil {
			response.Error(c, err)
			return
		}
	}
	if target == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "siswa_id is required"))
		return
	}

	format := c.DefaultQuery("format", "pdf")
	payload, filename, err := h.service.ProgressReport(c.Request.Context(), target, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	contentType := "application/pdf"
	if format == "csv" {
		contentType = "text/csv"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
