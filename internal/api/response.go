package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mattsonlyattack/cons/internal/corerr"
)

// Response is the envelope every endpoint replies with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, &Response{Success: true, Message: message, Data: data})
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, &Response{Success: true, Message: message, Data: data})
}

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, &Response{Success: false, Message: message})
}

func BadRequestError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

func NotFoundError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message)
}

func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message)
}

func PayloadTooLargeError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusRequestEntityTooLarge, message)
}

// WriteErr replies with a status code derived from the error's
// corerr.Kind: validation/not-found map to 400/404, everything else
// to 500.
func WriteErr(c *gin.Context, err error) {
	switch corerr.KindOf(err) {
	case corerr.KindNotFound:
		NotFoundError(c, err.Error())
	case corerr.KindValidation:
		BadRequestError(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}
