package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bgggggh/cs409-mp3/internal/dto"
	"github.com/bgggggh/cs409-mp3/internal/query"
	"github.com/bgggggh/cs409-mp3/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// List handles GET /api/users with where/sort/select/skip/limit/count.
func (h *UserHandler) List(c *gin.Context) {
	opts, err := query.Parse(c.Request.URL.Query(), query.Users())
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
	respond(c, http.StatusOK, "Users retrieved successfully", data)
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	u, err := h.svc.Create(c.Request.Context(), userInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "User created successfully", u)
}

// GetByID handles GET /api/users/:id, honoring an optional select projection.
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	projection, err := query.ParseSelect(c.Request.URL.Query(), query.Users())
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
	respond(c, http.StatusOK, "User retrieved successfully", data)
}

// Update handles PUT /api/users/:id. The body shape matches Create.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req dto.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	u, err := h.svc.Update(c.Request.Context(), id, userInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User updated successfully", u)
}

// Delete handles DELETE /api/users/:id, unassigning all pending tasks first.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func userID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respond(c, http.StatusNotFound, "User not found", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}

func userInput(req dto.UserRequest) service.UserInput {
	return service.UserInput{
		Name:         req.Name,
		Email:        req.Email,
		PendingTasks: req.PendingTasks,
	}
}
