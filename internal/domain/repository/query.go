package repository

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortField is a whitelisted user attribute. Its value doubles as the column name.
type SortField string

const (
	SortByID        SortField = "id"
	SortByName      SortField = "name"
	SortByNickname  SortField = "nickname"
	SortByEmail     SortField = "email"
	SortByPicture   SortField = "picture"
	SortByVersion   SortField = "version"
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
)

var sortAliases = map[string]SortField{
	"id":               SortByID,
	"name":             SortByName,
	"nickname":         SortByNickname,
	"email":            SortByEmail,
	"picture":          SortByPicture,
	"version":          SortByVersion,
	"created_at":       SortByCreatedAt,
	"createdat":        SortByCreatedAt,
	"createddate":      SortByCreatedAt,
	"updated_at":       SortByUpdatedAt,
	"updatedat":        SortByUpdatedAt,
	"lastmodifieddate": SortByUpdatedAt,
}

// ParseSortField resolves a client supplied attribute name.
func ParseSortField(s string) (SortField, error) {
	f, ok := sortAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown sort field %q", s)
	}
	return f, nil
}

// ParseDirection accepts asc/ascending/desc/descending; empty means ascending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Asc, nil
	case "desc", "descending":
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// MaxPageSize bounds Page.Size.
const MaxPageSize = 1000

// Page is a zero-based page request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return p.Number * p.Size }

func (p Page) Validate() error {
	if p.Number < 0 {
		return errors.New("page must not be negative")
	}
	if p.Size < 1 {
		return errors.New("size must be at least 1")
	}
	if p.Size > MaxPageSize {
		return fmt.Errorf("size must be at most %d", MaxPageSize)
	}
	if p.Number > math.MaxInt/p.Size {
		return errors.New("page is out of range")
	}
	return nil
}

type Sort struct {
	Field     SortField
	Direction Direction
}

// ParseSort builds a Sort from raw attribute and direction strings.
func ParseSort(field, direction string) (Sort, error) {
	f, err := ParseSortField(field)
	if err != nil {
		return Sort{}, err
	}
	d, err := ParseDirection(direction)
	if err != nil {
		return Sort{}, err
	}
	return Sort{Field: f, Direction: d}, nil
}

func (s Sort) Validate() error {
	if _, ok := sortAliases[string(s.Field)]; !ok || s.Field == "" {
		return fmt.Errorf("unknown sort field %q", s.Field)
	}
	if s.Direction != Asc && s.Direction != Desc {
		return fmt.Errorf("unknown sort direction %q", s.Direction)
	}
	return nil
}

// ListQuery selects an optional page and an optional ordering. Without Sort the
// order is creation order, ties broken by id.
type ListQuery struct {
	Page *Page
	Sort *Sort
}

func (q ListQuery) Validate() error {
	if q.Page != nil {
		if err := q.Page.Validate(); err != nil {
			return err
		}
	}
	if q.Sort != nil {
		if err := q.Sort.Validate(); err != nil {
			return err
		}
	}
	return nil
}
