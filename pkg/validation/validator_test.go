package validation

import (
	"encoding/json"
	"testing"
)

type sample struct {
	Name     string `json:"name" validate:"notblank"`
	Nickname string `json:"nickname" validate:"nickname"`
	Email    string `json:"email" validate:"notblank,email"`
	Picture  string `json:"picture" validate:"omitempty,url"`
}

func TestNewReportsJSONFieldNames(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		in    sample
		field string
		want  string
	}{
		{"blank name", sample{Name: "   ", Nickname: "user-1", Email: "a@b.io"}, "name", "must not be blank"},
		{"short nickname", sample{Name: "A", Nickname: "abc", Email: "a@b.io"}, "nickname", "must be at least 4 characters long"},
		{"long nickname", sample{Name: "A", Nickname: "abcdefghijklmnopq", Email: "a@b.io"}, "nickname", "must be at most 16 characters long"},
		{"bad email", sample{Name: "A", Nickname: "user-1", Email: "nope"}, "email", "must be a valid email address"},
		{"bad picture", sample{Name: "A", Nickname: "user-1", Email: "a@b.io", Picture: "not a url"}, "picture", "must be a valid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			details := ToDetails(err)
			if got := details[tt.field]; got != tt.want {
				t.Fatalf("details[%q] = %q, want %q (all: %v)", tt.field, got, tt.want, details)
			}
		})
	}
}

func TestNewAcceptsValidInput(t *testing.T) {
	in := sample{Name: "Ada", Nickname: "ada-l", Email: "ada@example.com", Picture: "https://cdn.example.com/a.png"}
	if err := New().Struct(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestToDetailsInvalidJSON(t *testing.T) {
	var v map[string]any
	err := json.Unmarshal([]byte("{"), &v)
	if got := ToDetails(err)["payload"]; got != "invalid json" {
		t.Fatalf("payload = %q", got)
	}
}

func TestUUIDTags(t *testing.T) {
	type ids struct {
		Any string `json:"any" validate:"omitempty,uuid"`
		V4  string `json:"v4" validate:"omitempty,uuid4"`
	}
	const v1 = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	const v4 = "3f0b8e5c-2a4d-4c8e-9b1a-7d2e5f6a8b90"

	tests := []struct {
		name    string
		in      ids
		wantErr string
	}{
		{"v1 as uuid", ids{Any: v1}, ""},
		{"v4 as uuid4", ids{V4: v4}, ""},
		{"v1 as uuid4", ids{V4: v1}, "v4"},
		{"garbage as uuid", ids{Any: "nope"}, "any"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := ToDetails(v.Struct(tt.in))
			if tt.wantErr == "" {
				if len(details) != 0 {
					t.Fatalf("unexpected details: %v", details)
				}
				return
			}
			if details[tt.wantErr] == "" {
				t.Fatalf("expected error on %q, got %v", tt.wantErr, details)
			}
		})
	}
	if got := ToDetails(v.Struct(ids{Any: "nope"}))["any"]; got != "must be a valid UUID" {
		t.Fatalf("uuid message = %q", got)
	}
}
