package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

var (
	asinRe        = regexp.MustCompile(`^[A-Za-z0-9]{10}$`)
	asinPathRe    = regexp.MustCompile(`/(?:dp|gp/product|gp/aw/d|product-reviews)/([A-Za-z0-9]{10})(?:[/?#]|$)`)
	walmartIDRe   = regexp.MustCompile(`^\d{5,15}$`)
	walmartPathRe = regexp.MustCompile(`/(?:ip/(?:[^/?#]+/)?|reviews/product/)(\d{5,15})(?:[/?#]|$)`)
	shopifyIDRe   = regexp.MustCompile(`^\d+$`)
	handleRe      = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	shopifyPathRe = regexp.MustCompile(`/products/([A-Za-z0-9][A-Za-z0-9-]*)(?:[/?#]|$)`)

	validate = validator.New()
)

// NormalizeIdentifier приводит идентификатор к каноническому виду до любого сетевого вызова
func NormalizeIdentifier(kind entity.SourceKind, raw string) (string, error) {
	switch kind {
	case entity.SourceAmazon:
		return NormalizeAmazonID(raw)
	case entity.SourceWalmart:
		return NormalizeWalmartID(raw)
	case entity.SourceShopify:
		return NormalizeShopifyID(raw)
	case entity.SourceEmail:
		return NormalizeMailbox(raw)
	default:
		return "", fmt.Errorf("%w: unknown source %q", ErrInvalidIdentifier, kind)
	}
}

// NormalizeAmazonID принимает ASIN или ссылку на товар (/dp/<ASIN>, /gp/product/<ASIN>, ...)
func NormalizeAmazonID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if asinRe.MatchString(s) {
		return strings.ToUpper(s), nil
	}
	if m := asinPathRe.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(m[1]), nil
	}
	return "", fmt.Errorf("%w: %q is not an ASIN or Amazon product URL", ErrInvalidIdentifier, raw)
}

// NormalizeWalmartID принимает числовой item id или ссылку /ip/<slug>/<id>
func NormalizeWalmartID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if walmartIDRe.MatchString(s) {
		return s, nil
	}
	if m := walmartPathRe.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: %q is not a Walmart item id or product URL", ErrInvalidIdentifier, raw)
}

// NormalizeShopifyID принимает числовой id, handle товара или ссылку /products/<handle>
func NormalizeShopifyID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if shopifyIDRe.MatchString(s) {
		return s, nil
	}
	if m := shopifyPathRe.FindStringSubmatch(s); m != nil {
		return strings.ToLower(m[1]), nil
	}
	if lower := strings.ToLower(s); handleRe.MatchString(lower) {
		return lower, nil
	}
	return "", fmt.Errorf("%w: %q is not a Shopify product id, handle or URL", ErrInvalidIdentifier, raw)
}

func NormalizeMailbox(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || validate.Var(s, "email") != nil {
		return "", fmt.Errorf("%w: %q is not a mailbox address", ErrInvalidIdentifier, raw)
	}
	return s, nil
}
