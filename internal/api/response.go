package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope of every API reply
type Response struct {
	Code int         `json:"code"`
	Data interface{} `json:"data"`
	Msg  string      `json:"message"`
}

// Business codes
const (
	SUCCESS          = 0
	ERROR            = -1
	NOT_READY        = 50300
	VALIDATION_ERROR = 40001
)

var codeMessages = map[int]string{
	SUCCESS:          "ok",
	ERROR:            "failed",
	NOT_READY:        "no data collected yet",
	VALIDATION_ERROR: "invalid parameter",
}

// Success writes a 200 reply carrying data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: SUCCESS,
		Data: data,
		Msg:  codeMessages[SUCCESS],
	})
}

// Error writes an error reply. An empty msg uses the code's default message.
func Error(c *gin.Context, code int, msg string) {
	if msg == "" {
		msg = codeMessages[code]
	}
	c.JSON(getHttpStatus(code), Response{
		Code: code,
		Data: nil,
		Msg:  msg,
	})
}

func getHttpStatus(code int) int {
	switch code {
	case NOT_READY:
		return http.StatusServiceUnavailable
	case VALIDATION_ERROR:
		return http.StatusBadRequest
	case SUCCESS:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
