package confirmations

import (
	"fmt"
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

// ViewConfirmation godoc
// @Summary Render the confirmation PDF of a finished reservation
// @Tags confirmations
// @Security BearerAuth
// @Produce application/pdf
// @Param id path string true "Reservation ID"
// @Success 200 {file} file
// @Failure 404 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Failure 502 {object} response.StandardApiResponse
// @Router /reservations/{id}/view-confirmation [get]
func (ctrl *Controller) ViewConfirmation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if c.Query("format") == "html" {
		page, err := ctrl.service.HTML(c.Request.Context(), id)
		if err != nil {
			response.RespondError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
		return
	}

	document, err := ctrl.service.PDF(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="confirmation-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", document)
}

// SendConfirmation godoc
// @Summary Mail the confirmation to the reservation owner
// @Tags confirmations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 400 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Failure 502 {object} response.StandardApiResponse
// @Router /reservations/{id}/send-confirmation [post]
func (ctrl *Controller) SendConfirmation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	recipient, err := ctrl.service.Send(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Confirmation sent", gin.H{"recipient": recipient}, nil)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return uuid.Nil, false
	}
	return id, true
}
