package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbackhub/feedback-service/internal/app/feedback/config"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/source"
)

func TestNewFetchers_CoversEverySource(t *testing.T) {
	providers := config.ProvidersConfig{}
	fetchers := NewFetchers(providers, time.Second, NewMailboxAdapter(providers))

	for _, src := range []entity.SourceKind{entity.SourceAmazon, entity.SourceWalmart, entity.SourceShopify, entity.SourceEmail} {
		fetcher, ok := fetchers[src]
		require.True(t, ok, src)

		_, servedBy, err := fetcher.Fetch(context.Background(), "id", entity.FetchOptions{})
		assert.ErrorIs(t, err, source.ErrNotConfigured, src)
		assert.Empty(t, servedBy)
	}
}

func TestNewFetchers_AmazonUsesSecondaryWhenPrimaryMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "scraper-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	providers := config.ProvidersConfig{
		AmazonSecondary: config.ProviderConfig{BaseURL: server.URL, APIKey: "scraper-key", RPS: 10, Timeout: time.Second},
	}
	fetchers := NewFetchers(providers, time.Second, NewMailboxAdapter(providers))

	_, servedBy, err := fetchers[entity.SourceAmazon].Fetch(context.Background(), "B0TEST1234", entity.FetchOptions{})

	require.NoError(t, err)
	assert.Equal(t, "amazon-scraper", servedBy)
}

func TestProviderTimeout(t *testing.T) {
	assert.Equal(t, 22500*time.Millisecond, ProviderTimeout(45*time.Second))
	assert.Zero(t, ProviderTimeout(0))
}

func TestNewFetchers_HungPrimaryLeavesTimeForSecondary(t *testing.T) {
	release := make(chan struct{})
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer hung.Close()
	defer close(release)

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer fallback.Close()

	providers := config.ProvidersConfig{
		AmazonPrimary:   config.ProviderConfig{BaseURL: hung.URL, APIKey: "rf-key", RPS: 10, Timeout: 10 * time.Second},
		AmazonSecondary: config.ProviderConfig{BaseURL: fallback.URL, APIKey: "scraper-key", RPS: 10, Timeout: 10 * time.Second},
	}
	fetchTimeout := 400 * time.Millisecond
	fetchers := NewFetchers(providers, ProviderTimeout(fetchTimeout), NewMailboxAdapter(providers))

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	_, servedBy, err := fetchers[entity.SourceAmazon].Fetch(ctx, "B0TEST1234", entity.FetchOptions{})

	require.NoError(t, err)
	assert.Equal(t, "amazon-scraper", servedBy)
}

func TestNewMailboxAdapter_Configured(t *testing.T) {
	assert.False(t, NewMailboxAdapter(config.ProvidersConfig{}).Configured())
	assert.True(t, NewMailboxAdapter(config.ProvidersConfig{
		Email: config.ProviderConfig{BaseURL: "http://mail.local", APIKey: "k"},
	}).Configured())
}
