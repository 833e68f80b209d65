package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "raw/owner-1/amazon/B0TEST1234/1709294400.json",
		ObjectKey("owner-1", entity.SourceAmazon, "B0TEST1234", at))
	assert.Equal(t, "raw/owner-1/email/support@shop.com/1709294400.json",
		ObjectKey("owner-1", entity.SourceEmail, "support@shop.com", at))
	assert.Equal(t, "raw/owner%2F2/shopify/a%2Fb/1709294400.json",
		ObjectKey("owner/2", entity.SourceShopify, "a/b", at))
}
