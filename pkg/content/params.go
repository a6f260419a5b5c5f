package content

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Direction is the sort direction of a list request.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// List defaults applied at the fetch boundary.
const (
	DefaultType      = "ALL"
	DefaultPageSize  = 10
	MaxPageSize      = 1000
	DefaultSortBy    = "id"
	DefaultDirection = Desc
)

// ListParams describes one list request.
type ListParams struct {
	// Type is the content type, "ALL" when empty.
	Type string

	// Page is the zero-based page index.
	Page int

	// PageSize must be within 1..MaxPageSize, otherwise DefaultPageSize is used.
	PageSize int

	SortBy    string
	Direction Direction

	// Filters are forwarded as query parameters. Nil values are dropped.
	Filters map[string]any
}

// Normalized returns a copy with every default applied.
func (p ListParams) Normalized() ListParams {
	out := p
	if strings.TrimSpace(out.Type) == "" {
		out.Type = DefaultType
	}
	if out.Page < 0 {
		out.Page = 0
	}
	if out.PageSize <= 0 || out.PageSize > MaxPageSize {
		out.PageSize = DefaultPageSize
	}
	if out.SortBy == "" {
		out.SortBy = DefaultSortBy
	}
	switch Direction(strings.ToUpper(string(out.Direction))) {
	case Asc:
		out.Direction = Asc
	case Desc:
		out.Direction = Desc
	default:
		out.Direction = DefaultDirection
	}
	return out
}

// Path returns the list endpoint path with the type escaped.
func (p ListParams) Path() string {
	return "/content/type/" + url.PathEscape(p.Normalized().Type)
}

// Query renders the request query string values.
func (p ListParams) Query() url.Values {
	n := p.Normalized()
	q := url.Values{}
	q.Set("page", strconv.Itoa(n.Page))
	q.Set("size", strconv.Itoa(n.PageSize))
	q.Set("sortBy", n.SortBy)
	q.Set("direction", string(n.Direction))

	for key, value := range n.Filters {
		if value == nil {
			continue
		}
		q.Add(key, fmt.Sprint(value))
	}
	return q
}
