package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParams_Normalized(t *testing.T) {
	tests := []struct {
		name string
		in   ListParams
		want ListParams
	}{
		{
			name: "zero value",
			in:   ListParams{},
			want: ListParams{Type: "ALL", Page: 0, PageSize: 10, SortBy: "id", Direction: Desc},
		},
		{
			name: "negative page and oversize",
			in:   ListParams{Type: "NEWS", Page: -3, PageSize: 1001},
			want: ListParams{Type: "NEWS", Page: 0, PageSize: 10, SortBy: "id", Direction: Desc},
		},
		{
			name: "max page size kept",
			in:   ListParams{PageSize: 1000, Direction: "asc", SortBy: "title"},
			want: ListParams{Type: "ALL", PageSize: 1000, SortBy: "title", Direction: Asc},
		},
		{
			name: "unknown direction",
			in:   ListParams{PageSize: 5, Direction: "sideways"},
			want: ListParams{Type: "ALL", PageSize: 5, SortBy: "id", Direction: Desc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalized())
		})
	}
}

func TestListParams_Query(t *testing.T) {
	p := ListParams{
		Type:     "NEWS",
		Page:     2,
		PageSize: 25,
		Filters: map[string]any{
			"publicationType": "paper",
			"featured":        true,
			"year":            2024,
			"skipped":         nil,
		},
	}

	q := p.Query()

	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "25", q.Get("size"))
	assert.Equal(t, "id", q.Get("sortBy"))
	assert.Equal(t, "DESC", q.Get("direction"))
	assert.Equal(t, "paper", q.Get("publicationType"))
	assert.Equal(t, "true", q.Get("featured"))
	assert.Equal(t, "2024", q.Get("year"))
	assert.False(t, q.Has("skipped"))
	assert.Equal(t,
		"direction=DESC&featured=true&page=2&publicationType=paper&size=25&sortBy=id&year=2024",
		q.Encode())
}

func TestListParams_Path(t *testing.T) {
	assert.Equal(t, "/content/type/ALL", ListParams{}.Path())
	assert.Equal(t, "/content/type/NEWS", ListParams{Type: "NEWS"}.Path())
	assert.Equal(t, "/content/type/a%2Fb%20c", ListParams{Type: "a/b c"}.Path())
}

func TestCustomFields_Accessors(t *testing.T) {
	f := CustomFields{"s": "x", "b": true, "n": 1.5, "null": nil}

	assert.Equal(t, "x", *f.String("s"))
	assert.Nil(t, f.String("n"))
	assert.Nil(t, f.String("missing"))
	assert.True(t, *f.Bool("b"))
	assert.Nil(t, f.Bool("s"))
	assert.True(t, f.Has("null"))
	assert.False(t, f.Has("missing"))
	assert.Equal(t, "x", *f.FirstString("missing", "n", "s"))
	assert.Nil(t, f.FirstString("missing", "n"))
	assert.Equal(t, "fallback", f.StringOr("n", "fallback"))

	var nilFields CustomFields
	assert.Nil(t, nilFields.String("s"))
	assert.False(t, nilFields.Has("s"))
}
