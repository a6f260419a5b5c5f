package asseturl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	apiBase  = "https://cms.example.com/api"
	fileBase = "https://files.example.com"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		apiBase  string
		fileBase string
		want     string
	}{
		{name: "empty", raw: "", apiBase: apiBase, fileBase: fileBase, want: ""},
		{name: "blank", raw: "   \t", apiBase: apiBase, fileBase: fileBase, want: ""},
		{
			name: "unrelated absolute unchanged", raw: "https://other.com/a.pdf",
			apiBase: apiBase, fileBase: fileBase, want: "https://other.com/a.pdf",
		},
		{
			name: "api prefixed rewritten to file base", raw: "https://cms.example.com/api/files/a.pdf",
			apiBase: apiBase, fileBase: fileBase, want: "https://files.example.com/files/a.pdf",
		},
		{
			name: "api prefix match is case-insensitive", raw: "HTTPS://CMS.EXAMPLE.COM/API/Files/A.pdf",
			apiBase: apiBase, fileBase: fileBase, want: "https://files.example.com/Files/A.pdf",
		},
		{
			name: "remainder without slash gets one", raw: "https://cms.example.com/apifiles/a.pdf",
			apiBase: apiBase, fileBase: fileBase, want: "https://files.example.com/files/a.pdf",
		},
		{
			name: "api prefixed without file base goes to origin", raw: "https://cms.example.com/api/files/a.pdf",
			apiBase: apiBase, fileBase: "", want: "https://cms.example.com/files/a.pdf",
		},
		{
			name: "api base without /api keeps api segment", raw: "https://cms.example.com/api/files/a.pdf",
			apiBase: "https://cms.example.com/", fileBase: fileBase, want: "https://files.example.com/api/files/a.pdf",
		},
		{
			name: "already on file base unchanged", raw: "https://files.example.com/x/y.png",
			apiBase: apiBase, fileBase: fileBase, want: "https://files.example.com/x/y.png",
		},
		{
			name: "data url unchanged", raw: "data:image/png;base64,AAAA",
			apiBase: apiBase, fileBase: fileBase, want: "data:image/png;base64,AAAA",
		},
		{
			name: "blob url unchanged", raw: "blob:https://app/123",
			apiBase: apiBase, fileBase: fileBase, want: "blob:https://app/123",
		},
		{
			name: "protocol relative unchanged", raw: "//cdn.example.com/a.png",
			apiBase: apiBase, fileBase: fileBase, want: "//cdn.example.com/a.png",
		},
		{
			name: "relative with leading slash", raw: "/files/a.pdf",
			apiBase: apiBase, fileBase: "https://x.com", want: "https://x.com/files/a.pdf",
		},
		{
			name: "relative strips many slashes and api segment", raw: "///api/files/a.pdf",
			apiBase: apiBase, fileBase: fileBase, want: "https://files.example.com/files/a.pdf",
		},
		{
			name: "relative strips only one api segment", raw: "api/api/a.pdf",
			apiBase: apiBase, fileBase: fileBase, want: "https://files.example.com/api/a.pdf",
		},
		{
			name: "relative uses origin without file base", raw: "uploads/a.jpg",
			apiBase: apiBase + "///", fileBase: "", want: "https://cms.example.com/uploads/a.jpg",
		},
		{
			name: "relative trims surrounding whitespace", raw: "  /files/a.pdf  ",
			apiBase: apiBase, fileBase: fileBase + "/", want: "https://files.example.com/files/a.pdf",
		},
		{
			name: "relative without any base", raw: "/files/a.pdf",
			apiBase: "", fileBase: "", want: "/files/a.pdf",
		},
		{
			name: "absolute without any base", raw: "https://cms.example.com/api/a.pdf",
			apiBase: "", fileBase: "", want: "https://cms.example.com/api/a.pdf",
		},
		{
			name: "garbage degrades to join", raw: "%%%::",
			apiBase: apiBase, fileBase: fileBase, want: "https://files.example.com/%%%::",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.raw, tt.apiBase, tt.fileBase))
		})
	}
}

func TestResolver_ResolvePtr(t *testing.T) {
	r := New(apiBase, fileBase)

	assert.Equal(t, "", r.ResolvePtr(nil))

	empty := ""
	assert.Equal(t, "", r.ResolvePtr(&empty))

	path := "/images/inside.jpg"
	assert.Equal(t, "https://files.example.com/images/inside.jpg", r.ResolvePtr(&path))
	assert.Equal(t, r.Resolve(path), r.ResolvePtr(&path))
}

func TestResolve_ShortInputNeverPanics(t *testing.T) {
	inputs := []string{"h", "ht", "http", "/", "//", "d", "blob", "https:/"}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			Resolve(in, apiBase, fileBase)
		}, in)
	}
}

func TestResolver_Owns(t *testing.T) {
	r := New(apiBase, fileBase)

	assert.True(t, r.Owns(apiBase+"/files/a.pdf"))
	assert.True(t, r.Owns("HTTPS://FILES.EXAMPLE.COM/a.pdf"))
	assert.False(t, r.Owns("https://cdn.other.com/a.pdf"))
	assert.False(t, New("", "").Owns("https://cms.example.com/a.pdf"))
}

func TestResolver_OwnsBoundary(t *testing.T) {
	r := New("https://cms.example.com/api", "https://files.example.com")

	tests := []struct {
		url  string
		want bool
	}{
		{url: "https://cms.example.com/api", want: true},
		{url: "https://cms.example.com/api/", want: true},
		{url: "https://cms.example.com/api?x=1", want: true},
		{url: "https://cms.example.com/api#top", want: true},
		{url: "https://files.example.com", want: true},
		{url: "https://files.example.com/a.pdf", want: true},
		{url: "https://cms.example.com/apiary/a.pdf", want: false},
		{url: "https://files.example.com.evil.net/a.pdf", want: false},
		{url: "https://files.example.com:8443/a.pdf", want: false},
		{url: "https://files.example.com@evil.net/a.pdf", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Owns(tt.url))
		})
	}
}

func TestIsAbsolute(t *testing.T) {
	assert.True(t, IsAbsolute("https://x.com/a"))
	assert.True(t, IsAbsolute("  //x.com/a"))
	assert.True(t, IsAbsolute("DATA:image/png;base64,AA"))
	assert.False(t, IsAbsolute("/files/a.pdf"))
	assert.False(t, IsAbsolute("api/files/a.pdf"))
}
