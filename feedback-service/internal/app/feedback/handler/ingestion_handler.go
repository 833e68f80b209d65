package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/service"
	"feedbackhub/pkg/logger"
)

// IngestionHandler запускает импорт синхронно или через очередь
type IngestionHandler struct {
	ingestion service.IngestionServiceInterface
	publisher service.IngestPublisherInterface
	validator *validator.Validate
}

func NewIngestionHandler(ingestion service.IngestionServiceInterface, publisher service.IngestPublisherInterface) *IngestionHandler {
	return &IngestionHandler{
		ingestion: ingestion,
		publisher: publisher,
		validator: validator.New(),
	}
}

// Import - POST /imports/:source, с ?async=true запрос уходит в Kafka
func (h *IngestionHandler) Import(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req entity.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: formatValidationError(err)})
		return
	}

	ingest := entity.IngestRequest{
		Source:     entity.SourceKind(strings.ToLower(c.Param("source"))),
		Identifier: req.Identifier,
		OwnerID:    owner,
		SyncType:   req.SyncType,
		MaxItems:   req.MaxItems,
	}

	if c.Query("async") == "true" {
		queued, err := h.publisher.Enqueue(c.Request.Context(), ingest)
		if err != nil {
			respondError(c, err, "Failed to queue import")
			return
		}
		c.JSON(http.StatusAccepted, entity.AcceptedResponse{Message: "Import queued", Request: *queued})
		return
	}

	result, err := h.ingestion.Run(c.Request.Context(), ingest)
	if err != nil {
		logger.Warn().Err(err).
			Str("source", string(ingest.Source)).
			Str("owner_id", owner).
			Msg("Import failed")
		respondError(c, err, "Import failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Status - итог последнего импорта идентификатора
func (h *IngestionHandler) Status(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	identifier := c.Query("identifier")
	if identifier == "" {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "identifier is required"})
		return
	}

	result, err := h.ingestion.Status(c.Request.Context(), owner, entity.SourceKind(strings.ToLower(c.Param("source"))), identifier)
	if err != nil {
		respondError(c, err, "Failed to get import status")
		return
	}

	c.JSON(http.StatusOK, result)
}
