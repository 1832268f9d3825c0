// Package forge discovers the repositories visible to an access token on a
// GitHub-compatible forge.
//
// APITransport issues single authenticated GET requests through go-github.
// Enumerator walks the paginated listing endpoints through a PageFetcher and
// decodes each page into Repository records. Pagination is driven by a pure
// state machine (PaginationState, Advance) so termination and failure rules can
// be exercised without a live API.
package forge
