// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package validation

import (
	"strings"
	"testing"
)

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() returned nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same instance")
	}
}

// listRequest mirrors the shape of the API's article listing request.
type listRequest struct {
	Category string `validate:"omitempty,max=100"`
	Search   string `validate:"omitempty,max=200"`
	Limit    int    `validate:"min=1"`
	Offset   int    `validate:"min=0,max=1000000"`
}

// bucketRequest exercises oneof on the recency buckets.
type bucketRequest struct {
	TimeBucket string `validate:"omitempty,oneof=1h 6h 24h"`
}

// sourceRequest exercises required and url tags.
type sourceRequest struct {
	Name string `validate:"required,min=1,max=200"`
	URL  string `validate:"required,url"`
}

func TestValidateStructValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input interface{}
	}{
		{"list defaults", &listRequest{Limit: 50}},
		{"list with filters", &listRequest{Category: "technology", Search: "chips", Limit: 200, Offset: 400}},
		{"empty bucket", &bucketRequest{}},
		{"valid bucket", &bucketRequest{TimeBucket: "6h"}},
		{"valid source", &sourceRequest{Name: "wire-service", URL: "https://example.com/feed.xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := ValidateStruct(tt.input); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStructInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
		inMessage string
	}{
		{
			name:      "zero limit",
			input:     &listRequest{Limit: 0},
			wantField: "Limit",
			wantTag:   "min",
			inMessage: "Limit must be at least 1",
		},
		{
			name:      "negative offset",
			input:     &listRequest{Limit: 10, Offset: -1},
			wantField: "Offset",
			wantTag:   "min",
			inMessage: "Offset must be at least 0",
		},
		{
			name:      "oversized category",
			input:     &listRequest{Category: strings.Repeat("x", 101), Limit: 10},
			wantField: "Category",
			wantTag:   "max",
			inMessage: "Category must be at most 100 characters",
		},
		{
			name:      "unknown bucket",
			input:     &bucketRequest{TimeBucket: "90m"},
			wantField: "TimeBucket",
			wantTag:   "oneof",
			inMessage: "TimeBucket must be one of: 1h 6h 24h",
		},
		{
			name:      "missing name",
			input:     &sourceRequest{URL: "https://example.com/feed.xml"},
			wantField: "Name",
			wantTag:   "required",
			inMessage: "Name is required",
		},
		{
			name:      "bad url",
			input:     &sourceRequest{Name: "wire-service", URL: "not a url"},
			wantField: "URL",
			wantTag:   "url",
			inMessage: "URL must be a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verr := ValidateStruct(tt.input)
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}

			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
			if !strings.Contains(errs[0].Error(), tt.inMessage) {
				t.Errorf("Error() = %q, want it to contain %q", errs[0].Error(), tt.inMessage)
			}
		})
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&listRequest{Limit: 0})
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "Limit must be at least 1") {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "Limit" {
		t.Errorf("Details[field] = %v, want Limit", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultiple(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&sourceRequest{})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) != 2 {
		t.Fatalf("got %d errors, want 2", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "Name") || !strings.Contains(apiErr.Message, "URL") {
		t.Errorf("Message should name both fields, got %q", apiErr.Message)
	}

	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] has type %T", apiErr.Details["fields"])
	}
	if len(fields) != 2 {
		t.Errorf("got %d field entries, want 2", len(fields))
	}
}

func TestValidateStructCombinedError(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&sourceRequest{})
	if verr == nil {
		t.Fatal("expected validation error")
	}

	combined := verr.Error()
	if !strings.Contains(combined, ";") {
		t.Errorf("combined message should join errors with semicolons, got %q", combined)
	}
}
