package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bgggggh/cs409-mp3/internal/dto"
	"github.com/bgggggh/cs409-mp3/internal/query"
	"github.com/bgggggh/cs409-mp3/internal/service"
)

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, dto.Envelope{Message: message, Data: data})
}

// respondError maps service and query errors onto the HTTP taxonomy. Unknown
// errors are logged server-side and surfaced as a generic 500.
func respondError(c *gin.Context, err error) {
	var badParam *query.BadParamError
	switch {
	case errors.As(err, &badParam):
		respond(c, http.StatusBadRequest, badParam.Error(), nil)
	case errors.Is(err, service.ErrTaskNotFound):
		respond(c, http.StatusNotFound, "Task not found", nil)
	case errors.Is(err, service.ErrUserNotFound):
		respond(c, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, service.ErrTaskFieldsRequired):
		respond(c, http.StatusBadRequest, "Name and deadline are required", nil)
	case errors.Is(err, service.ErrUserFieldsRequired):
		respond(c, http.StatusBadRequest, "Name and email are required", nil)
	case errors.Is(err, service.ErrAssignedUserNotFound):
		respond(c, http.StatusBadRequest, "Assigned user not found", nil)
	case errors.Is(err, service.ErrInvalidEmail):
		respond(c, http.StatusBadRequest, "Please enter a valid email", nil)
	case errors.Is(err, service.ErrEmailTaken):
		respond(c, http.StatusBadRequest, "Email already exists", nil)
	default:
		log.Printf("unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		respond(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
