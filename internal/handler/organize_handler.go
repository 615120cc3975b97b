package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tahfidz-app/tahfidz-api/internal/middleware"
	"github.com/tahfidz-app/tahfidz-api/internal/models"
	"github.com/tahfidz-app/tahfidz-api/internal/service"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
	"github.com/tahfidz-app/tahfidz-api/pkg/response"
)

// OrganizeHandler wires HTTP endpoints to class management.
type OrganizeHandler struct {
	service *service.OrganizeService
}

// NewOrganizeHandler creates a new handler.
func NewOrganizeHandler(svc *service.OrganizeService) *OrganizeHandler {
	return &OrganizeHandler{service: svc}
}

// List godoc
// @Summary List classes
// @Description Teachers see their own classes; admins see everything
// @Tags Organizes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /organizes [get]
func (h *OrganizeHandler) List(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	guruID := ""
	if claims.Role == models.RoleGuru {
		guruID = claims.UserID
	}

	organizes, err := h.service.List(c.Request.Context(), guruID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, organizes, nil)
}

// Get godoc
// @Summary Get one class
// @Tags Organizes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /organizes/{id} [get]
func (h *OrganizeHandler) Get(c *gin.Context) {
	organize, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, organize, nil)
}

// Create godoc
// @Summary Create a class
// @Tags Organizes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateOrganizeRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /organizes [post]
func (h *OrganizeHandler) Create(c *gin.Context) {
	var req models.CreateOrganizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid organize payload"))
		return
	}

	organize, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, organize)
}

// Update godoc
// @Summary Update a class
// @Tags Organizes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body models.UpdateOrganizeRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /organizes/{id} [patch]
func (h *OrganizeHandler) Update(c *gin.Context) {
	var req models.UpdateOrganizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid organize payload"))
		return
	}

	organize, err := h.service.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, organize, nil)
}
