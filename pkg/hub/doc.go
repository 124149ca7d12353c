// Package hub is the client for the Colhub (DHuS) archive holding the
// SAFE products.
//
// Two hub protocols are used:
//
//   - OpenSearch resolves a product name to its UUID
//     (GET /search?q=filename:<name>*&format=json)
//   - OData streams the archive itself
//     (GET /odata/v1/Products('<uuid>')/$value)
//
// Requests carry basic auth from the hub configuration. Metadata
// requests and downloads run on separate timeouts: a search answers in
// seconds, a SAFE archive download can legitimately run for most of an
// hour. Network errors and 5xx responses are retried with exponential
// backoff up to the configured attempt limit; 4xx responses and the
// no-match/many-match outcomes (ErrNotFound, ErrAmbiguous) are
// terminal.
package hub
