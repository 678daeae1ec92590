package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestAdminError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AdminError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestAdminError_WithContext(t *testing.T) {
	err := New(CategoryNetwork, SeverityWarning, "fetch failed").
		WithContext("remote_path", "reviews/index.html").
		WithContext("status", 503)

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["remote_path"] != "reviews/index.html" {
		t.Errorf("Context[remote_path] = %v, want reviews/index.html", err.Context["remote_path"])
	}

	if err.Context["status"] != 503 {
		t.Errorf("Context[status] = %v, want 503", err.Context["status"])
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	templateErr := New(CategoryTemplate, SeverityFatal, "template error")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match template category", configErr, CategoryTemplate, false},
		{"template error matches template category", templateErr, CategoryTemplate, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsCategory(test.err, test.category)
			if result != test.expected {
				t.Errorf("IsCategory() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	retryableErr := WrapRetryable(fmt.Errorf("timeout"), CategoryNetwork, SeverityWarning, "upload timed out")
	nonRetryableErr := New(CategoryConfig, SeverityFatal, "invalid")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"retryable error", retryableErr, true},
		{"non-retryable error", nonRetryableErr, false},
		{"standard error", standardErr, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsRetryable(test.err)
			if result != test.expected {
				t.Errorf("IsRetryable() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestConvenienceFunctions(t *testing.T) {
	t.Run("UnknownFieldType", func(t *testing.T) {
		err := UnknownFieldType("geo_point")
		if err.Category != CategoryValidation {
			t.Errorf("Category = %v, want %v", err.Category, CategoryValidation)
		}
		if err.Severity != SeverityFatal {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityFatal)
		}
		if err.Context["kind"] != "geo_point" {
			t.Errorf("Context[kind] = %v, want geo_point", err.Context["kind"])
		}
	})

	t.Run("UploadFailed", func(t *testing.T) {
		cause := fmt.Errorf("HTTP 502")
		err := UploadFailed(2, cause)
		if err.Category != CategoryNetwork {
			t.Errorf("Category = %v, want %v", err.Category, CategoryNetwork)
		}
		if !stdErrors.Is(err, cause) {
			t.Errorf("Cause should match wrapped cause: %v", cause)
		}
	})

	t.Run("ValidationFailed", func(t *testing.T) {
		err := ValidationFailed("rating", "not in option set")
		if err.Category != CategoryValidation {
			t.Errorf("Category = %v, want %v", err.Category, CategoryValidation)
		}
		if err.Context["field"] != "rating" {
			t.Errorf("Context[field] = %v, want rating", err.Context["field"])
		}
		if err.Context["reason"] != "not in option set" {
			t.Errorf("Context[reason] = %v, want not in option set", err.Context["reason"])
		}
	})
}
