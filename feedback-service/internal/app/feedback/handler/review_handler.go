package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/service"
)

type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
	validator     *validator.Validate
}

func NewReviewHandler(reviewService service.ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     validator.New(),
	}
}

func (h *ReviewHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	reviews, err := h.reviewService.List(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err, "Failed to get reviews")
		return
	}

	c.JSON(http.StatusOK, entity.ReviewListResponse{Reviews: reviews, Total: len(reviews)})
}

func (h *ReviewHandler) Get(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	review, err := h.reviewService.Get(c.Request.Context(), c.Param("review_id"), owner)
	if err != nil {
		respondError(c, err, "Failed to get review")
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) UpdateStatus(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req entity.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: formatValidationError(err)})
		return
	}

	review, err := h.reviewService.UpdateStatus(c.Request.Context(), c.Param("review_id"), owner, req.Status)
	if err != nil {
		respondError(c, err, "Failed to update review status")
		return
	}

	c.JSON(http.StatusOK, review)
}
