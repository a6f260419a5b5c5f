// Package pagination walks paginated CMS list endpoints and collects every
// item into a single deduplicated slice.
//
// Pages are fetched one after another: where the next page starts depends on
// the metadata of the current one, and the CMS is inconsistent about which
// metadata it reports. The aggregator reads whichever signal is present, in
// a fixed priority order (totalPages, totalElements, last, then a full-page
// heuristic).
//
// Example usage:
//
//	records, err := pagination.Aggregate(ctx, cmsClient, content.ListParams{Type: "NEWS"},
//		pagination.Options[content.Record, int64]{MaxPages: 10})
//
// The aggregator stops when:
//   - the envelope carries no page
//   - a page is empty
//   - a page adds no new items (a backend repeating itself)
//   - the metadata says there is nothing left
//   - MaxPages fetches have been made
//
// A failed fetch aborts the aggregation; no partial result is returned.
package pagination
