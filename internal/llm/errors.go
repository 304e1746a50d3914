package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"

	"github.com/hyperjump/konsti/internal/models"
)

var quotaMarkers = []string{"insufficient_quota", "quota", "429", "billing", "api key", "api_key"}

// Classify maps a generator error to the kind of fallback the user sees.
// A nil error has no kind.
func Classify(err error) models.ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.ErrorTimeout
	}

	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) && quotaOrAuthStatus(oaiErr.StatusCode) {
		return models.ErrorQuotaOrAuth
	}
	var antErr *anthropic.Error
	if errors.As(err, &antErr) && quotaOrAuthStatus(antErr.StatusCode) {
		return models.ErrorQuotaOrAuth
	}

	msg := strings.ToLower(err.Error())
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return models.ErrorQuotaOrAuth
		}
	}
	return models.ErrorGeneric
}

func quotaOrAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusTooManyRequests
}
