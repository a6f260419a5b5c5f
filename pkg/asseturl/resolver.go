// Package asseturl rewrites CMS asset references into absolute URLs.
//
// The CMS hands out file references in several shapes: paths relative to the
// API host, absolute URLs on the API host (with or without the /api segment),
// and URLs on unrelated hosts. Assets are usually served from a different
// host than the API, so references on the API host are moved onto the
// preferred file host while everything else is left untouched.
package asseturl

import "strings"

// absolutePrefixes are the scheme prefixes treated as absolute.
var absolutePrefixes = []string{"http://", "https://", "data:", "blob:"}

// Resolver binds the two configured base URLs.
type Resolver struct {
	APIBase  string
	FileBase string
}

// New creates a resolver for the given bases.
func New(apiBase, fileBase string) Resolver {
	return Resolver{APIBase: apiBase, FileBase: fileBase}
}

// Resolve maps raw onto the resolver's bases. See the package-level Resolve.
func (r Resolver) Resolve(raw string) string {
	return Resolve(raw, r.APIBase, r.FileBase)
}

// ResolvePtr is Resolve for optional values. A nil raw yields "".
func (r Resolver) ResolvePtr(raw *string) string {
	if raw == nil {
		return ""
	}
	return Resolve(*raw, r.APIBase, r.FileBase)
}

// Owns reports whether u is hosted on the API or file base, compared
// case-insensitively. The base must end at a host or path boundary, so
// https://cms.example.com does not own https://cms.example.com.evil.net.
// Empty bases own nothing.
func (r Resolver) Owns(u string) bool {
	u = strings.TrimSpace(u)
	return ownedBy(u, r.APIBase) || ownedBy(u, r.FileBase)
}

func ownedBy(u, base string) bool {
	base = strings.TrimRight(base, "/")
	if base == "" || !hasPrefixFold(u, base) {
		return false
	}
	if len(u) == len(base) {
		return true
	}
	switch u[len(base)] {
	case '/', '?', '#':
		return true
	default:
		return false
	}
}

// IsAbsolute reports whether raw already carries a scheme or is
// protocol-relative.
func IsAbsolute(raw string) bool {
	return isAbsolute(strings.TrimSpace(raw))
}

// Resolve returns the canonical absolute URL for rawPath.
//
// Blank input yields "". The function never fails: input it cannot make sense
// of is passed through string manipulation as-is.
func Resolve(rawPath, apiBase, fileBase string) string {
	trimmed := strings.TrimSpace(rawPath)
	if trimmed == "" {
		return ""
	}

	apiBase = strings.TrimRight(apiBase, "/")
	fileBase = strings.TrimRight(fileBase, "/")
	originBase := strings.TrimSuffix(apiBase, "/api")
	preferred := preferredBase(apiBase, fileBase, originBase)

	if isAbsolute(trimmed) {
		if apiBase != "" && preferred != "" && hasPrefixFold(trimmed, apiBase) {
			return join(preferred, trimmed[len(apiBase):])
		}

		originAPI := originBase + "/api"
		if originBase != "" && preferred != "" && hasPrefixFold(trimmed, originAPI) {
			return join(preferred, trimmed[len(originAPI):])
		}

		// Unrelated hosts, including URLs already on the file host.
		return trimmed
	}

	relative := strings.TrimLeft(trimmed, "/")
	relative = strings.TrimPrefix(relative, "api/")
	if preferred == "" {
		return "/" + relative
	}
	return preferred + "/" + relative
}

func preferredBase(apiBase, fileBase, originBase string) string {
	switch {
	case fileBase != "":
		return fileBase
	case originBase != "":
		return originBase
	default:
		return apiBase
	}
}

func isAbsolute(raw string) bool {
	if strings.HasPrefix(raw, "//") {
		return true
	}
	for _, p := range absolutePrefixes {
		if hasPrefixFold(raw, p) {
			return true
		}
	}
	return false
}

// hasPrefixFold is a case-insensitive strings.HasPrefix.
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// join appends remainder to base, adding a slash only when remainder lacks one.
func join(base, remainder string) string {
	if strings.HasPrefix(remainder, "/") {
		return base + remainder
	}
	return base + "/" + remainder
}
