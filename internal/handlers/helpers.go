package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/taskflowhq/taskflow/internal/middleware"
	"github.com/taskflowhq/taskflow/pkg/response"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// parseObjectID validates a document ID from the URL path.
func parseObjectID(id string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(id)
}

// bindError converts a binding failure into the client-facing message,
// naming the first violated field.
func bindError(err error) *response.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return response.NewValidation(field + " is required")
		case "min":
			return response.NewValidation(field + " is too short")
		case "max":
			return response.NewValidation(field + " is too long")
		default:
			return response.NewValidation(field + " is invalid")
		}
	}
	return response.NewValidation("invalid request body")
}

// identity returns the authenticated provider user ID, failing the
// request when the auth middleware did not run.
func identity(c *gin.Context) (string, bool) {
	id, ok := middleware.GetIdentityID(c)
	if !ok {
		response.Fail(c, response.NewUnauthorized())
		return "", false
	}
	return id, true
}
