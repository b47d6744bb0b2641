package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/Workboard/internal/middleware"
	"github.com/atinyakov/Workboard/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TaskService is the task API used by TaskHandler.
type TaskService interface {
	List(ctx context.Context, userID string, f models.TaskFilter) (*models.TaskPage, error)
	Get(ctx context.Context, userID, id string) (*models.Task, error)
	Create(ctx context.Context, userID string, data models.CreateTaskData) (*models.Task, error)
	Update(ctx context.Context, userID, id string, data models.UpdateTaskData) (*models.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

// TaskHandler serves /api/tasks.
type TaskHandler struct {
	Service TaskService
	Log     *zap.Logger
}

const taskNotFound = "Task not found"

// List handles GET /api/tasks?status=&priority=&limit=&offset=.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeServiceError(w, h.Log, err, "")
		return
	}
	q := r.URL.Query()
	f := models.TaskFilter{
		Status:   models.TaskStatus(q.Get("status")),
		Priority: models.TaskPriority(q.Get("priority")),
		Limit:    limit,
		Offset:   offset,
	}
	p, err := h.Service.List(r.Context(), middleware.GetUserIDFromContext(r.Context()), f)
	if err != nil {
		writeServiceError(w, h.Log, err, taskNotFound)
		return
	}
	writeData(w, http.StatusOK, "", *p)
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Service.Get(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.Log, err, taskNotFound)
		return
	}
	writeData(w, http.StatusOK, "", models.TaskData{Task: *t})
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTaskData
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	t, err := h.Service.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, h.Log, err, taskNotFound)
		return
	}
	writeData(w, http.StatusCreated, "Task created successfully", models.TaskData{Task: *t})
}

// Update handles PUT /api/tasks/{id}. An explicit null due_date clears it.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateTaskData
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	t, err := h.Service.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, h.Log, err, taskNotFound)
		return
	}
	writeData(w, http.StatusOK, "Task updated successfully", models.TaskData{Task: *t})
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.Log, err, taskNotFound)
		return
	}
	writeData(w, http.StatusOK, "Task deleted successfully", struct{}{})
}
