package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReview_SetStatus(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(2 * time.Hour)
	t2 := t0.Add(30 * time.Hour)

	r := &Review{Status: StatusOpen}

	r.SetStatus(StatusInProgress, t1)
	require.NotNil(t, r.RespondedAt)
	assert.Equal(t, t1, *r.RespondedAt)
	assert.Nil(t, r.ResolvedAt)

	r.SetStatus(StatusResolved, t2)
	assert.Equal(t, t1, *r.RespondedAt, "first response time is kept")
	require.NotNil(t, r.ResolvedAt)
	assert.Equal(t, t2, *r.ResolvedAt)

	r.SetStatus(StatusOpen, t2.Add(time.Hour))
	assert.Equal(t, StatusOpen, r.Status)
	assert.Nil(t, r.ResolvedAt)
	assert.NotNil(t, r.RespondedAt)
}

func TestSourceKind(t *testing.T) {
	assert.True(t, SourceEmail.Valid())
	assert.False(t, SourceKind("ebay").Valid())

	assert.Equal(t, MarketplaceAmazon, SourceAmazon.Marketplace())
	assert.Equal(t, MarketplaceWalmart, SourceWalmart.Marketplace())
	assert.Equal(t, MarketplaceShopify, SourceShopify.Marketplace())
	assert.Equal(t, MarketplaceMailbox, SourceEmail.Marketplace())
	assert.Equal(t, "email", SourceEmail.Platform())
}

func TestReviewStatus_Valid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, ReviewStatus("closed").Valid())
}
