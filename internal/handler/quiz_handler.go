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

// QuizHandler wires HTTP endpoints to the quiz service.
type QuizHandler struct {
	service *service.QuizService
}

// NewQuizHandler creates a new handler.
func NewQuizHandler(svc *service.QuizService) *QuizHandler {
	return &QuizHandler{service: svc}
}

// List godoc
// @Summary List class quizzes
// @Description Students get quizzes with the correct option stripped
// @Tags Quiz
// @Produce json
// @Security BearerAuth
// @Param organize_id query string false "Class ID (teachers and admins)"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /quizzes [get]
func (h *QuizHandler) List(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	organizeID := ""
	sanitize := true
	switch claims.Role {
	case models.RoleSiswa:
		if claims.OrganizeID != nil {
			organizeID = *claims.OrganizeID
		}
	case models.RoleGuru, models.RoleAdmin:
		organizeID = c.Query("organize_id")
		sanitize = false
	default:
		organizeID = c.Query("organize_id")
	}

	quizzes, err := h.service.ListForOrganize(c.Request.Context(), organizeID, sanitize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, quizzes, nil)
}

// Create godoc
// @Summary Author a quiz for a class
// @Tags Quiz
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param organize_id query string true "Class ID"
// @Param payload body models.CreateQuizRequest true "Quiz payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /quizzes [post]
func (h *QuizHandler) Create(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quiz payload"))
		return
	}

	quiz, err := h.service.Create(c.Request.Context(), c.Query("organize_id"), claims.UserID, claims.Role, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, quiz)
}

// Delete godoc
// @Summary Delete a quiz and its answers
// @Tags Quiz
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) Delete(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Answer godoc
// @Summary Submit an answer to a quiz
// @Description A student may answer each quiz exactly once
// @Tags Quiz
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param payload body models.SubmitAnswerRequest true "Answer payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /quizzes/{id}/answer [post]
func (h *QuizHandler) Answer(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid answer payload"))
		return
	}

	answer, err := h.service.SubmitAnswer(c.Request.Context(), c.Param("id"), claims.UserID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, answer)
}

// AnswerSummary godoc
// @Summary Summarize the caller's quiz history
// @Tags Quiz
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /quizzes/answers/summary [get]
func (h *QuizHandler) AnswerSummary(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	siswaID := claims.UserID
	if claims.Role != models.RoleSiswa {
		if q := c.Query("siswa_id"); q != "" {
			siswaID = q
		}
	}

	summary, answers, err := h.service.AnswerSummary(c.Request.Context(), siswaID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"summary": summary, "answers": answers}, nil)
}
