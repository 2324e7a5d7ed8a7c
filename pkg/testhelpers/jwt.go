// Package testhelpers provides utilities for testing scrumdeck-engine components.
package testhelpers

import (
	"encoding/base64"
	"fmt"
)

// GenerateTestJWT creates a test JWT token for use when verification is
// disabled. The token has a valid structure but no signature (alg: none).
func GenerateTestJWT(sub, username, fullName string, superuser bool) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	payload := fmt.Sprintf(`{"sub":"%s"`, sub)
	if username != "" {
		payload += fmt.Sprintf(`,"username":"%s"`, username)
	}
	if fullName != "" {
		payload += fmt.Sprintf(`,"name":"%s"`, fullName)
	}
	if superuser {
		payload += `,"su":true`
	}
	payload += "}"

	encodedPayload := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return fmt.Sprintf("%s.%s.", header, encodedPayload)
}

// GenerateTestJWTWithBearer returns the token with a "Bearer " prefix for
// the Authorization header.
func GenerateTestJWTWithBearer(sub, username, fullName string, superuser bool) string {
	return "Bearer " + GenerateTestJWT(sub, username, fullName, superuser)
}
