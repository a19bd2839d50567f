// Package services is the client application layer: the session that
// owns the bearer tokens and the record services the terminal client
// mutates notes and tasks through.
package services
