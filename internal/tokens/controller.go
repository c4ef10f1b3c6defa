package tokens

import (
	"net/http"

	"seatline/internal/shared/middleware"
	"seatline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type ValidateRequest struct {
	Hashcode string `json:"hashcode" binding:"required,max=10"`
}

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ListTokens godoc
// @Summary List invitation tokens
// @Tags tokens
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.StandardApiResponse
// @Router /tokens [get]
func (ctrl *Controller) ListTokens(c *gin.Context) {
	tokens, err := ctrl.service.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Tokens retrieved successfully", tokens, nil)
}

// ValidateToken godoc
// @Summary Redeem an invitation token
// @Tags tokens
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ValidateRequest true "Token"
// @Success 200 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Failure 410 {object} response.StandardApiResponse
// @Router /tokens/validate [post]
func (ctrl *Controller) ValidateToken(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	token, err := ctrl.service.Validate(c.Request.Context(), req.Hashcode, userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Token validated", token, nil)
}
