// Spotmap - Location-Based Social Map Tiles and Popularity Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotmap

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return the same non-nil instance")
	}
}

type tileQuery struct {
	Z          int      `query:"z" validate:"gte=0,lte=22"`
	Categories []string `query:"categories" validate:"omitempty,max=10,dive,spotcategory"`
	Layer      string   `query:"layer" validate:"omitempty,maplayer"`
}

type engagementBody struct {
	Kind string `json:"kind" validate:"required,engagementkind"`
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{"empty filters", &tileQuery{Z: 12}},
		{"known categories", &tileQuery{Z: 5, Categories: []string{"food", "music"}}},
		{"explicit layer", &tileQuery{Z: 20, Layer: "pulse"}},
		{"engagement like", &engagementBody{Kind: "like"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(tt.input); err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
	}{
		{"zoom too large", &tileQuery{Z: 23}, "z", "lte"},
		{"unknown category", &tileQuery{Categories: []string{"food", "karaoke"}}, "categories[1]", "spotcategory"},
		{"too many categories", &tileQuery{Categories: make([]string, 11)}, "categories", "max"},
		{"unknown layer", &tileQuery{Layer: "heatmap"}, "layer", "maplayer"},
		{"missing kind", &engagementBody{}, "kind", "required"},
		{"unknown kind", &engagementBody{Kind: "share"}, "kind", "engagementkind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() should fail")
			}
			got := err.Errors()[0]
			if got.Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", got.Field(), tt.wantField)
			}
			if got.Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", got.Tag(), tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	single := ValidateStruct(&tileQuery{Layer: "heatmap"}).ToAPIError()
	if single.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", single.Code)
	}
	if single.Message != "layer must be one of: cluster, pulse, balloon" {
		t.Errorf("Message = %q", single.Message)
	}
	if single.Details["field"] != "layer" {
		t.Errorf("Details = %v", single.Details)
	}

	multi := ValidateStruct(&tileQuery{Z: 99, Layer: "heatmap"}).ToAPIError()
	if !strings.Contains(multi.Message, "z: ") || !strings.Contains(multi.Message, "layer: ") {
		t.Errorf("Message = %q, want both fields", multi.Message)
	}
	if fields, ok := multi.Details["fields"].([]map[string]interface{}); !ok || len(fields) != 2 {
		t.Errorf("Details[fields] = %v", multi.Details["fields"])
	}
}

func TestErrorMessages(t *testing.T) {
	err := ValidateStruct(&tileQuery{Categories: make([]string, 11)})
	if err == nil {
		t.Fatal("expected error")
	}
	if want := "categories must contain at most 10 items"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
