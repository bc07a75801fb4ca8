// Package http contains the chi handlers for the dashboard API.
//
// Handlers validate query parameters, delegate to the services layer
// and render JSON through go-chi/render. Failures surface as RFC 7807
// problem details: validation problems through the shared ErrorHandler,
// data-source conditions through MapDataSourceError so clients can
// distinguish "snapshot pending" from "sheet unreachable".
package http
