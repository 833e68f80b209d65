package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/service"
)

// MailboxHandler отдает письма ящика, сгруппированные в разговоры
type MailboxHandler struct {
	mailboxService service.MailboxServiceInterface
	validator      *validator.Validate
}

func NewMailboxHandler(mailboxService service.MailboxServiceInterface) *MailboxHandler {
	return &MailboxHandler{
		mailboxService: mailboxService,
		validator:      validator.New(),
	}
}

func (h *MailboxHandler) Threads(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	syncType := entity.SyncType(c.DefaultQuery("sync_type", string(entity.SyncQuick)))
	if syncType != entity.SyncQuick && syncType != entity.SyncFull {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "sync_type must be quick or full"})
		return
	}

	mailbox := c.Param("address")
	if err := h.validator.Var(mailbox, "required,email"); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "address must be an email address"})
		return
	}

	threads, err := h.mailboxService.Threads(c.Request.Context(), owner, mailbox, syncType)
	if err != nil {
		respondError(c, err, "Failed to get mailbox threads")
		return
	}

	c.JSON(http.StatusOK, entity.ThreadListResponse{Mailbox: mailbox, Threads: threads, Total: len(threads)})
}
