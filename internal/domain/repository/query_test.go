package repository

import (
	"math"
	"testing"
)

func TestPageValidate(t *testing.T) {
	tests := []struct {
		page    Page
		wantErr bool
	}{
		{Page{Number: 0, Size: 10}, false},
		{Page{Number: 3, Size: MaxPageSize}, false},
		{Page{Number: math.MaxInt / MaxPageSize, Size: MaxPageSize}, false},
		{Page{Number: -1, Size: 10}, true},
		{Page{Number: 0, Size: 0}, true},
		{Page{Number: 0, Size: MaxPageSize + 1}, true},
		{Page{Number: 1, Size: math.MaxInt}, true},
		{Page{Number: math.MaxInt/MaxPageSize + 1, Size: MaxPageSize}, true},
		{Page{Number: math.MaxInt, Size: 2}, true},
	}
	for _, tt := range tests {
		err := tt.page.Validate()
		if (err != nil) != tt.wantErr {
			t.Fatalf("%+v: err = %v, wantErr %v", tt.page, err, tt.wantErr)
		}
		if err == nil && tt.page.Offset() < 0 {
			t.Fatalf("%+v: offset overflowed", tt.page)
		}
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		field, dir string
		want       Sort
		wantErr    bool
	}{
		{"nickname", "", Sort{SortByNickname, Asc}, false},
		{"createdDate", "descending", Sort{SortByCreatedAt, Desc}, false},
		{"EMAIL", "DESC", Sort{SortByEmail, Desc}, false},
		{"shoe", "asc", Sort{}, true},
		{"name", "sideways", Sort{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSort(tt.field, tt.dir)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseSort(%q, %q) = %+v, %v", tt.field, tt.dir, got, err)
		}
	}
}
