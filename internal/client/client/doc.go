// Package client contains the client-side building blocks that talk to the
// outside world.
//
// # Overview
//
//  1. A transport contract for the auth endpoints (Client) and for one
//     resource collection (Resource[F]).
//  2. An HTTP/JSON implementation (HTTPClient, HTTPResource) that injects
//     the bearer token, refreshes it once on 401, retries transient failures
//     with capped exponential backoff and maps statuses to sentinel errors.
//  3. Local store bootstrap (InitDatabase, RunMigrations) over SQLite with
//     embedded goose migrations.
//
// # Error Handling
//
// Callers match with errors.Is: ErrUnavailable (network, timeout, 408, 429,
// 5xx), ErrUnauthorized (401, 403), ErrNotFound (404) and ErrRejected (any
// other 4xx, carried by *RejectedError together with the status and body).
package client
