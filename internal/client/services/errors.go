package services

import "errors"

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrNotFailed   = errors.New("record is not in the failed state")
)
