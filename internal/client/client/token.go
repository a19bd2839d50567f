package client

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// OwnerFromToken reads the user id claim of an access token.
//
// The signature is not checked: the token came from the server and the
// server verifies it on every call. The claim only partitions local data.
func OwnerFromToken(access string) (string, error) {
	if access == "" {
		return "", common.ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	switch v := claims[common.UserIDClaim].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}

	return "", fmt.Errorf("%w: no %s claim", common.ErrInvalidToken, common.UserIDClaim)
}
