package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/costra/costra/domain"
)

func TestMapError_DomainSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrIngredientNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrRecipeNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrPriceNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrVersionConflict, http.StatusConflict, "CONFLICT"},
		{domain.ErrNameTaken, http.StatusConflict, "CONFLICT"},
	}
	for _, c := range cases {
		mapped := MapError(c.err)
		if mapped.Status != c.status {
			t.Errorf("Expected status %d for %v, got %d", c.status, c.err, mapped.Status)
		}
		if mapped.Code != c.code {
			t.Errorf("Expected code %s for %v, got %s", c.code, c.err, mapped.Code)
		}
	}
}

func TestMapError_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("failed to calculate recipe cost: %w", domain.ErrPriceNotFound)

	mapped := MapError(wrapped)
	if mapped.Status != http.StatusNotFound {
		t.Errorf("Expected 404 for wrapped sentinel, got %d", mapped.Status)
	}
}

func TestMapError_InvalidArgument(t *testing.T) {
	mapped := MapError(domain.NewInvalidArgument("price", "price must be greater than zero"))

	if mapped.Status != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", mapped.Status)
	}
	if mapped.Message != "invalid price: price must be greater than zero" {
		t.Errorf("Unexpected message: %s", mapped.Message)
	}
}

func TestMapError_UnknownErrorHidesMessage(t *testing.T) {
	mapped := MapError(errors.New("pq: connection refused"))

	if mapped.Status != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", mapped.Status)
	}
	if mapped.Message != "An unexpected error occurred" {
		t.Errorf("Internal detail must not leak, got %s", mapped.Message)
	}
}

func TestMapError_PassesThroughAppError(t *testing.T) {
	original := NewConflict("already taken")

	mapped := MapError(original)
	if mapped != original {
		t.Error("Expected AppError to pass through unchanged")
	}
}
