package wrapper

import (
	"github.com/dinerozz/tracking-backend/internal/model/response"
	"github.com/dinerozz/tracking-backend/pkg/apperror"
	"github.com/gin-gonic/gin"
)

type ResponseWrapper struct {
	Data    interface{} `json:"data"`
	Success bool        `json:"success"`
}

type PaginatedResponseWrapper struct {
	Data    interface{}             `json:"data"`
	Meta    response.PaginationMeta `json:"meta"`
	Success bool                    `json:"success"`
}

type ErrorWrapper struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// AbortWithError writes the status and message that belong to err's kind.
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperror.HTTPStatus(err), ErrorWrapper{
		Message: apperror.PublicMessage(err),
		Success: false,
	})
}
