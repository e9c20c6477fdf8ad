package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bgggggh/cs409-mp3/internal/dto"
	"github.com/bgggggh/cs409-mp3/internal/query"
	"github.com/bgggggh/cs409-mp3/internal/service"
)

type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// List handles GET /api/tasks with where/sort/select/skip/limit/count.
func (h *TaskHandler) List(c *gin.Context) {
	opts, err := query.Parse(c.Request.URL.Query(), query.Tasks())
	if err != nil {
		respondError(c, err)
		return
	}
	if opts.Count {
		n, err := h.svc.Count(c.Request.Context(), opts.Filter)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, "OK", n)
		return
	}
	data, err := h.svc.List(c.Request.Context(), c.Request.URL.RawQuery, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Tasks retrieved successfully", data)
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	t, err := h.svc.Create(c.Request.Context(), taskInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Task created successfully", t)
}

// GetByID handles GET /api/tasks/:id, honoring an optional select projection.
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	projection, err := query.ParseSelect(c.Request.URL.Query(), query.Tasks())
	if err != nil {
		respondError(c, err)
		return
	}
	var data any
	if projection != nil {
		data, err = h.svc.GetProjected(c.Request.Context(), id, projection)
	} else {
		data, err = h.svc.Get(c.Request.Context(), id)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Task retrieved successfully", data)
}

// Update handles PUT /api/tasks/:id. The body shape matches Create.
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	t, err := h.svc.Update(c.Request.Context(), id, taskInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Task updated successfully", t)
}

// Delete handles DELETE /api/tasks/:id.
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// taskID parses the path id. A malformed id gets the same 404 as a missing
// record, never a generic validation error.
func taskID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respond(c, http.StatusNotFound, "Task not found", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}

func taskInput(req dto.TaskRequest) service.TaskInput {
	return service.TaskInput{
		Name:         req.Name,
		Description:  req.Description,
		Deadline:     req.Deadline.Time(),
		Completed:    req.Completed,
		AssignedUser: req.AssignedUser,
	}
}
