package response

import (
	"net/http"

	"seatline/internal/shared/apperr"
	"seatline/pkg/logger"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps a domain error onto the standard envelope. The message is
// the error text for every kind except Internal, which stays generic.
func RespondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	code := kind.HTTPStatus()

	var data interface{}
	if available, ok := apperr.AvailableOf(err); ok {
		data = AvailableData{Available: available}
	}

	if kind == apperr.Internal {
		_ = c.Error(err)
		logger.GetDefault().LogHTTPError(c, err, code)
		RespondJSON(c, "error", code, http.StatusText(code), data, nil)
		return
	}
	RespondJSON(c, "error", code, err.Error(), data, err.Error())
}
