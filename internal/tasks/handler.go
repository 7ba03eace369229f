package tasks

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/taskboard/internal/forms"
	"github.com/ayush/taskboard/internal/middleware"
	"github.com/ayush/taskboard/internal/models"
	"github.com/ayush/taskboard/internal/views"
)

// Handler holds task HTTP handlers. All routes expect RequireAuth in front.
type Handler struct {
	svc   *Service
	views *views.Renderer
}

func NewHandler(svc *Service, v *views.Renderer) *Handler {
	return &Handler{svc: svc, views: v}
}

// NewPage renders an empty task form.
func (h *Handler) NewPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, views.TaskForm, views.Page{
		Form:   &forms.Task{},
		Action: "/add-new-tasks",
	})
}

// Create stores a task owned by the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var f forms.Task
	errs, err := forms.Bind(r, &f)
	if err != nil {
		h.views.Render(w, r, http.StatusBadRequest, views.ErrorPg, views.Page{Message: "Malformed form submission."})
		return
	}
	if errs.Any() {
		h.views.Render(w, r, http.StatusOK, views.TaskForm, views.Page{Form: &f, Errors: errs, Action: "/add-new-tasks"})
		return
	}

	if _, err := h.svc.Create(r.Context(), user, f.Title, f.Body); err != nil {
		h.views.Error(w, r, err)
		return
	}
	http.Redirect(w, r, "/all-tasks", http.StatusSeeOther)
}

// List shows every task the current user may see.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())
	tasks, err := h.svc.List(r.Context(), user)
	if err != nil {
		h.views.Error(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, views.AllTasks, views.Page{Tasks: tasks})
}

// View shows a single task.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())
	id, err := taskID(r)
	if err != nil {
		h.views.Error(w, r, err)
		return
	}
	task, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		h.views.Error(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, views.ViewTask, views.Page{Task: task})
}

// EditPage renders the task form pre-filled with the stored values.
func (h *Handler) EditPage(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())
	id, err := taskID(r)
	if err != nil {
		h.views.Error(w, r, err)
		return
	}
	task, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		h.views.Error(w, r, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, views.TaskForm, views.Page{
		Form:   &forms.Task{Title: task.Title, Body: task.Body},
		Task:   task,
		Action: editPath(task.ID),
	})
}

// Edit replaces a task's title and body.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())
	id, err := taskID(r)
	if err != nil {
		h.views.Error(w, r, err)
		return
	}
	task, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		h.views.Error(w, r, err)
		return
	}

	var f forms.Task
	errs, err := forms.Bind(r, &f)
	if err != nil {
		h.views.Render(w, r, http.StatusBadRequest, views.ErrorPg, views.Page{Message: "Malformed form submission."})
		return
	}
	if errs.Any() {
		h.views.Render(w, r, http.StatusOK, views.TaskForm, views.Page{Form: &f, Errors: errs, Task: task, Action: editPath(id)})
		return
	}

	if _, err := h.svc.Update(r.Context(), user, id, f.Title, f.Body); err != nil {
		h.views.Error(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/view-task/%d", id), http.StatusSeeOther)
}

// Delete removes a task.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())
	id, err := taskID(r)
	if err != nil {
		h.views.Error(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), user, id); err != nil {
		h.views.Error(w, r, err)
		return
	}
	http.Redirect(w, r, "/all-tasks", http.StatusSeeOther)
}

func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("task id %q: %w", chi.URLParam(r, "id"), models.ErrNotFound)
	}
	return id, nil
}

func editPath(id int64) string {
	return fmt.Sprintf("/edit-task/%d", id)
}
