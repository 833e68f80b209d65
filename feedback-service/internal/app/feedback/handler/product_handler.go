package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/service"
)

type ProductHandler struct {
	productService service.ProductServiceInterface
}

func NewProductHandler(productService service.ProductServiceInterface) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	products, err := h.productService.List(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err, "Failed to get products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{Products: products, Total: len(products)})
}

// Delete - DELETE /products/:product_id?delete_reviews=true
func (h *ProductHandler) Delete(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	deleteReviews := false
	if raw := c.Query("delete_reviews"); raw != "" {
		deleteReviews, err = strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "delete_reviews must be a boolean"})
			return
		}
	}

	entry, err := h.productService.Delete(c.Request.Context(), owner, productID, deleteReviews)
	if err != nil {
		respondError(c, err, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Product deleted", Data: entry})
}

func (h *ProductHandler) History(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	history, err := h.productService.History(c.Request.Context(), owner, limit)
	if err != nil {
		respondError(c, err, "Failed to get product history")
		return
	}

	c.JSON(http.StatusOK, entity.ProductHistoryResponse{History: history, Total: len(history)})
}

func (h *ProductHandler) Restore(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	historyID, err := uuid.Parse(c.Param("history_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid history ID"})
		return
	}

	product, err := h.productService.Restore(c.Request.Context(), owner, historyID)
	if err != nil {
		respondError(c, err, "Failed to restore product")
		return
	}

	c.JSON(http.StatusOK, product)
}
