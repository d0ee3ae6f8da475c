package tasks

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-manager/internal/apperr"
	"github.com/yourusername/task-manager/internal/auth"
)

type createRequest struct {
	Title    string  `json:"title"`
	DueDate  *string `json:"dueDate"`
	Priority *string `json:"priority"`
}

type updateRequest struct {
	Title       *string `json:"title"`
	DueDate     *string `json:"dueDate"`
	Priority    *string `json:"priority"`
	IsCompleted *bool   `json:"isCompleted"`
}

type dueDateRequest struct {
	DueDate string `json:"dueDate"`
}

type priorityRequest struct {
	Priority string `json:"priority"`
}

// Handler は /api/task 配下のハンドラーをまとめた構造体です。
// すべてのハンドラーは RequireLogin の後ろに置く前提です。
type Handler struct {
	svc *Service
}

// NewHandler は Handler を作成します。
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List は GET /api/task/ のハンドラーです。
func (h *Handler) List(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	tasks, err := h.svc.List(c.Request.Context(), principal)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Create は POST /api/task/ のハンドラーです。
func (h *Handler) Create(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req createRequest
	if !bindJSON(c, &req, false) {
		return
	}

	task, err := h.svc.Create(c.Request.Context(), principal, CreateInput{
		Title:    req.Title,
		DueDate:  req.DueDate,
		Priority: req.Priority,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Update は PUT /api/task/:id のハンドラーです。
func (h *Handler) Update(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req updateRequest
	if !bindJSON(c, &req, true) {
		return
	}

	task, err := h.svc.Update(c.Request.Context(), principal, c.Param("id"), UpdateInput{
		Title:       req.Title,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete は DELETE /api/task/:id のハンドラーです。
func (h *Handler) Delete(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), principal, c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateDueDate は PUT /api/task/:id/due-date のハンドラーです。
func (h *Handler) UpdateDueDate(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req dueDateRequest
	if !bindJSON(c, &req, false) {
		return
	}

	task, err := h.svc.UpdateDueDate(c.Request.Context(), principal, c.Param("id"), req.DueDate)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdatePriority は PUT /api/task/:id/priority のハンドラーです。
func (h *Handler) UpdatePriority(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req priorityRequest
	if !bindJSON(c, &req, false) {
		return
	}

	task, err := h.svc.UpdatePriority(c.Request.Context(), principal, c.Param("id"), req.Priority)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ToggleComplete は PUT /api/task/:id/toggle-complete のハンドラーです。入力は不要です。
func (h *Handler) ToggleComplete(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	task, err := h.svc.ToggleComplete(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Filter は GET /api/task/filter のハンドラーです。
func (h *Handler) Filter(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	tasks, err := h.svc.Filter(c.Request.Context(), principal, FilterInput{
		Priority:  c.Query("priority"),
		Completed: c.Query("completed"),
		DueDate:   c.Query("dueDate"),
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func requirePrincipal(c *gin.Context) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthenticated(apperr.CodeTokenMissing, "No token, authorization denied"))
		return auth.Principal{}, false
	}
	return principal, true
}

// bindJSON はリクエストボディを読み込みます。allowEmpty の場合、空ボディは空の入力として扱います。
func bindJSON(c *gin.Context, dst any, allowEmpty bool) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		apperr.Respond(c, apperr.Validation("Request body must be valid JSON"))
		return false
	}
	return true
}
