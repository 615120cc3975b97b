package handler

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tahfidz-app/tahfidz-api/internal/middleware"
	"github.com/tahfidz-app/tahfidz-api/internal/models"
	"github.com/tahfidz-app/tahfidz-api/internal/service"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
	"github.com/tahfidz-app/tahfidz-api/pkg/media"
	"github.com/tahfidz-app/tahfidz-api/pkg/response"
	"github.com/tahfidz-app/tahfidz-api/pkg/storage"
)

// SetoranHandler wires HTTP endpoints to the submission workflow.
type SetoranHandler struct {
	service     *service.SetoranService
	media       *media.Client
	staging     *storage.LocalStorage
	maxFileSize int64
}

// NewSetoranHandler creates a new handler.
func NewSetoranHandler(svc *service.SetoranService, mediaClient *media.Client, staging *storage.LocalStorage, maxFileSize int64) *SetoranHandler {
	return &SetoranHandler{service: svc, media: mediaClient, staging: staging, maxFileSize: maxFileSize}
}

// Upload godoc
// @Summary Upload a recitation audio file
// @Description Stage the uploaded audio and push it to media storage, returning the hosted URL
// @Tags Setoran
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Audio file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /setoran/upload [post]
func (h *SetoranHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "audio file is required"))
		return
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusRequestEntityTooLarge, "audio file exceeds size limit"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer src.Close() //nolint:errcheck

	// Stage locally first so a slow or failed push to media storage can
	// be retried without asking the client to re-upload.
	stagedName := uuid.NewString() + "-" + filepath.Base(fileHeader.Filename)
	staged, err := h.staging.SaveStream(stagedName, src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage upload"))
		return
	}

	reader, err := h.staging.Open(staged)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open staged upload"))
		return
	}
	defer reader.Close() //nolint:errcheck

	url, err := h.media.UploadAudio(c.Request.Context(), reader, fileHeader.Filename)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusBadGateway, "failed to upload audio"))
		return
	}

	_ = h.staging.Delete(staged)

	response.JSON(c, http.StatusOK, gin.H{"file_url": url}, nil)
}

// Create godoc
// @Summary Submit a recitation
// @Tags Setoran
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateSetoranRequest true "Setoran payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /setoran [post]
func (h *SetoranHandler) Create(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateSetoranRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid setoran payload"))
		return
	}

	setoran, err := h.service.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, setoran)
}

// List godoc
// @Summary List submissions
// @Description Students see their own, teachers their class, admins everything
// @Tags Setoran
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param jenis query string false "Filter by jenis"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /setoran [get]
func (h *SetoranHandler) List(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.SetoranFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.SetoranStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("jenis"); raw != "" {
		jenis := models.SetoranJenis(raw)
		filter.Jenis = &jenis
	}

	// Scope the listing to what the caller may see. Parents go through
	// the link check and must name the child.
	if claims.Role == models.RoleOrtu {
		setoran, total, err := h.service.ListForChild(c.Request.Context(), claims.UserID, c.Query("siswa_id"), filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, setoran, &models.Pagination{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalCount: total,
		})
		return
	}

	switch claims.Role {
	case models.RoleSiswa:
		filter.SiswaID = claims.UserID
	case models.RoleGuru:
		filter.GuruID = claims.UserID
	case models.RoleAdmin:
		filter.SiswaID = c.Query("siswa_id")
		filter.OrganizeID = c.Query("organize_id")
	}

	setoran, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, setoran, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get one submission
// @Tags Setoran
// @Produce json
// @Security BearerAuth
// @Param id path string true "Setoran ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /setoran/{id} [get]
func (h *SetoranHandler) Get(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	setoran, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, setoran, nil)
}

// Review godoc
// @Summary Review a submission
// @Description Accept, reject or complete a pending submission
// @Tags Setoran
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Setoran ID"
// @Param payload body models.ReviewSetoranRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /setoran/{id}/review [patch]
func (h *SetoranHandler) Review(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ReviewSetoranRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	setoran, err := h.service.Review(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, setoran, nil)
}

// StatusCounts godoc
// @Summary Per-status submission counts for the dashboard
// @Tags Setoran
// @Produce json
// @Security BearerAuth
// @Param siswa_id query string false "Student ID (parents, teachers, admins)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /setoran/status-counts [get]
func (h *SetoranHandler) StatusCounts(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	counts, err := h.service.StatusCounts(c.Request.Context(), claims.UserID, claims.Role, c.Query("siswa_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, counts, nil)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
