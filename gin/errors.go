package gin

import (
	"errors"
	"net/http"

	"github.com/fwojciec/codecanvas"
	cjson "github.com/fwojciec/codecanvas/json"
	"github.com/gin-gonic/gin"
)

// StatusClientClosedRequest is recorded when the caller goes away before a
// response is committed.
const StatusClientClosedRequest = 499

// ErrorStatus maps err to an HTTP status code.
func ErrorStatus(err error) int {
	if errors.Is(err, codecanvas.ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes a JSON error body. Validation messages are safe to
// return; every other failure is reported with the route's fixed message.
func respondError(c *gin.Context, err error, public string) {
	status := ErrorStatus(err)
	msg := public
	if status == http.StatusBadRequest {
		msg = err.Error()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, cjson.ErrorResponse{Error: msg})
}
