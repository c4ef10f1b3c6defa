package seats

import (
	"net/http"

	"seatline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetSeatMap godoc
// @Summary Seat availability of an event
// @Tags seats
// @Produce json
// @Param id path string true "Event ID"
// @Param class query string false "STAGE or BALCONY"
// @Success 200 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Router /events/{id}/seats [get]
func (ctrl *Controller) GetSeatMap(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	var query SeatListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	seatMap, err := ctrl.service.SeatMap(c.Request.Context(), eventID, SeatClass(query.Class))
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Seats retrieved successfully", seatMap, nil)
}
