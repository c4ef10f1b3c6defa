package reservations

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"seatline/internal/shared/middleware"
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

// AddSeat godoc
// @Summary Claim a seat for the caller's reservation
// @Description Opens a session on the first claim and restarts the session lease on every claim
// @Tags reservations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body AddSeatRequest true "Event and seat"
// @Success 200 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Failure 422 {object} response.StandardApiResponse
// @Router /reservations/add-seat [post]
func (ctrl *Controller) AddSeat(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req AddSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.Claim(c.Request.Context(), ClaimInput{
		UserID:  userID,
		EventID: uuid.MustParse(req.EventID),
		SeatID:  uuid.MustParse(req.SeatID),
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}

	message := fmt.Sprintf("Seat %s was added to your reservation", result.Seat.Label())
	if result.Refreshed {
		message = fmt.Sprintf("Seat %s is already in your reservation", result.Seat.Label())
	}
	response.RespondJSON(c, "success", http.StatusOK, message, result.ToResponse(), nil)
}

// GetReservation godoc
// @Summary Get a reservation
// @Tags reservations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Failure 410 {object} response.StandardApiResponse
// @Router /reservations/{id} [get]
func (ctrl *Controller) GetReservation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	reservation, err := ctrl.service.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	if !middleware.IsAdmin(c) && (reservation.OwnerID == nil || *reservation.OwnerID != userID) {
		response.RespondError(c, ErrReservationNotFound)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation retrieved successfully", reservation.ToResponse(), nil)
}

// Finish godoc
// @Summary Finish a reservation
// @Description Seals the seat set and assigns the confirmation code
// @Tags admin-reservations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body FinishRequest true "Confirmation flag"
// @Success 200 {object} response.StandardApiResponse
// @Failure 400 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Failure 410 {object} response.StandardApiResponse
// @Router /reservations/{id}/finish [post]
func (ctrl *Controller) Finish(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req FinishRequest
	if !bindOptional(c, &req) {
		return
	}

	reservation, err := ctrl.service.Finish(c.Request.Context(), id, req.Finished)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation finished; the confirmation can be printed once payment is confirmed", reservation.ToResponse(), nil)
}

// Paid godoc
// @Summary Confirm payment of a reservation
// @Tags admin-reservations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body PaidRequest true "Confirmation flag"
// @Success 200 {object} response.StandardApiResponse
// @Failure 400 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Router /reservations/{id}/paid [post]
func (ctrl *Controller) Paid(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req PaidRequest
	if !bindOptional(c, &req) {
		return
	}

	reservation, err := ctrl.service.Pay(c.Request.Context(), id, req.Paid)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Payment confirmed", reservation.ToResponse(), nil)
}

// Cancel godoc
// @Summary Cancel a reservation
// @Description Deletes the reservation and releases its seats
// @Tags admin-reservations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body CancelRequest true "Confirmation flag"
// @Success 200 {object} response.StandardApiResponse
// @Failure 400 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Router /reservations/{id}/cancel [post]
func (ctrl *Controller) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CancelRequest
	if !bindOptional(c, &req) {
		return
	}

	if err := ctrl.service.Cancel(c.Request.Context(), id, req.Cancel); err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation cancelled successfully", nil, nil)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// bindOptional accepts an empty body so a missing flag surfaces as a
// validation failure from the service
func bindOptional(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return false
	}
	return true
}
