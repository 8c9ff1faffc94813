// Package fetch retrieves account and presence records from the upstream API.
//
// Every logical fetch is one GET for the whole identity batch, retried by a retry.Runner
// on transport errors and non-2xx statuses. FetchAll paces the two calls and returns both
// sequences or a fatal fetch error; it never returns partial results.
package fetch
