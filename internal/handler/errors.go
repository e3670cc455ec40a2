package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightoffers/internal/credential"
	"github.com/dharmasatrya/flightoffers/internal/models"
	"github.com/dharmasatrya/flightoffers/internal/providers"
	"github.com/dharmasatrya/flightoffers/internal/search"
)

// retry runs op until it succeeds, fails with anything other than a
// retryable provider response, or the retry budget is spent.
func (h *SearchHandler) retry(ctx context.Context, name string, op func() error) error {
	if h.config.RetryMax <= 0 {
		return op()
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = h.config.RetryInitial
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(h.config.RetryMax)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}

		var reqErr *providers.RequestError
		if errors.As(err, &reqErr) && reqErr.Retryable() {
			log.Printf("%s attempt %d failed: %v", name, attempt, err)
			return err
		}
		return backoff.Permanent(err)
	}, b)
}

// writeError maps a pipeline failure onto an HTTP status and error body.
func writeError(c echo.Context, err error) error {
	var vErr models.ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if errors.Is(err, credential.ErrAuthentication) || errors.Is(err, credential.ErrUnavailable) {
		log.Printf("Provider token exchange failed: %v", err)
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "upstream_unavailable",
			Message: "Flight provider is unavailable",
			Code:    http.StatusServiceUnavailable,
		})
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, models.ErrorResponse{
			Error:   "timeout",
			Message: err.Error(),
			Code:    http.StatusGatewayTimeout,
		})
	}

	var reqErr *providers.RequestError
	if errors.As(err, &reqErr) {
		return c.JSON(providerStatus(reqErr.StatusCode), models.ErrorResponse{
			Error:   "provider_error",
			Message: err.Error(),
			Details: errorDetails(err, reqErr.Details),
			Code:    providerStatus(reqErr.StatusCode),
		})
	}

	// Transport and decode failures talking to the provider.
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		log.Printf("Provider call failed: %v", err)
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "provider_error",
			Message: err.Error(),
			Details: errorDetails(err, nil),
			Code:    http.StatusBadGateway,
		})
	}

	log.Printf("Request failed: %v", err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
		Code:    http.StatusInternalServerError,
	})
}

// providerStatus passes client errors through, except the provider rejecting
// our own credential, which callers must not mistake for their session.
func providerStatus(code int) int {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return http.StatusBadGateway
	case code >= 400 && code < 500:
		return code
	default:
		return http.StatusBadGateway
	}
}

func errorDetails(err error, entries []providers.APIError) any {
	var legErr *search.LegError
	if errors.As(err, &legErr) {
		return map[string]any{
			"leg":         legErr.Leg,
			"origin":      legErr.Origin,
			"destination": legErr.Destination,
			"errors":      entries,
		}
	}
	if len(entries) > 0 {
		return entries
	}
	return nil
}
