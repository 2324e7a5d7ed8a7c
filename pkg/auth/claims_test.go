package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
		Username:         "alice",
	}

	ctx := SetClaims(context.Background(), claims)
	got, ok := GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, claims, got)
}

func TestGetClaims_Absent(t *testing.T) {
	_, ok := GetClaims(context.Background())
	assert.False(t, ok)
}

func TestIdentityFromContext(t *testing.T) {
	userID := uuid.New()
	ctx := SetClaims(context.Background(), &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		IsSuperuser:      true,
	})

	identity, err := IdentityFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.True(t, identity.IsSuperuser)
}

func TestIdentityFromContext_NoClaims(t *testing.T) {
	_, err := IdentityFromContext(context.Background())
	assert.Error(t, err)
}

func TestIdentityFromContext_BadSubject(t *testing.T) {
	ctx := SetClaims(context.Background(), &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"},
	})

	_, err := IdentityFromContext(ctx)
	assert.Error(t, err)

	ctx = SetClaims(context.Background(), &Claims{})
	_, err = IdentityFromContext(ctx)
	assert.Error(t, err)
}
