// Package common contains constants, sentinel errors and small helpers
// shared by the sync client and the reference server.
package common

const (
	// AuthorizationHeader carries "Bearer <access token>" on resource requests.
	AuthorizationHeader = "Authorization"
	BearerScheme        = "Bearer"

	// UserIDClaim is the access token claim that names the record owner.
	UserIDClaim = "user_id"
)
