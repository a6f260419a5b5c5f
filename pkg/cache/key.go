package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Sternrassler/cms-client/pkg/content"
)

// Kind is the query family a key belongs to.
type Kind string

const (
	KindList   Kind = "list"
	KindDetail Kind = "detail"
	KindAll    Kind = "all"
)

// Key identifies a cached CMS query.
//
// Keys are hierarchical: a key with fewer fields set is the prefix of every
// more specific key in its family, which is what InvalidatePrefix relies on.
type Key struct {
	// Tenant adds a tenant segment when set.
	Tenant string

	// Kind is empty for the root of all content queries.
	Kind Kind

	// Type is the content type of list and all keys.
	Type string

	// ID is the record id of detail keys.
	ID int64

	// Params are rendered sorted, one segment per key.
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: cms[:tenant=<t>]:content[:kind[:type|:id][:param=value...]]
//
// Tenant, type, param names and values are query-escaped, so a ':', '='
// or ',' inside them cannot merge two different queries into one key. The
// type keeps its case because the request path does.
//
// Example:
//
//	cms:content:list:NEWS:direction=DESC:page=0:size=10:sortBy=id
func (k Key) String() string {
	parts := []string{"cms"}

	if k.Tenant != "" {
		parts = append(parts, "tenant="+url.QueryEscape(k.Tenant))
	}
	parts = append(parts, "content")

	if k.Kind == "" {
		return strings.Join(parts, ":")
	}
	parts = append(parts, string(k.Kind))

	switch k.Kind {
	case KindDetail:
		if k.ID != 0 {
			parts = append(parts, strconv.FormatInt(k.ID, 10))
		}
	default:
		if k.Type != "" {
			parts = append(parts, url.QueryEscape(k.Type))
		}
	}

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := make([]string, 0, len(k.Params[name]))
			for _, v := range k.Params[name] {
				values = append(values, url.QueryEscape(v))
			}
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", url.QueryEscape(name), strings.Join(values, ",")))
		}
	}

	return strings.Join(parts, ":")
}

// ContentKey is the root of every content query key.
func ContentKey(tenant string) Key {
	return Key{Tenant: tenant}
}

// FamilyKey is the root of one query family, e.g. every list query.
func FamilyKey(tenant string, kind Kind) Key {
	return Key{Tenant: tenant, Kind: kind}
}

// ListKey identifies one page of a list query.
func ListKey(tenant string, p content.ListParams) Key {
	p = p.Normalized()
	return Key{
		Tenant: tenant,
		Kind:   KindList,
		Type:   p.Type,
		Params: p.Query(),
	}
}

// DetailKey identifies a single record.
func DetailKey(tenant string, id int64) Key {
	return Key{Tenant: tenant, Kind: KindDetail, ID: id}
}

// AllKey identifies an aggregated query. The page index is not part of it.
func AllKey(tenant string, p content.ListParams, maxPages int) Key {
	p = p.Normalized()
	params := p.Query()
	params.Del("page")
	params.Set("maxPages", strconv.Itoa(maxPages))
	params.Set("mode", "all")

	return Key{
		Tenant: tenant,
		Kind:   KindAll,
		Type:   p.Type,
		Params: params,
	}
}
