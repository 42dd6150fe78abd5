package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "mediconnect", time.Hour)
	p := Principal{
		UserID:         uuid.New(),
		OrganizationID: uuid.New(),
		EmployeeID:     "DOC001",
		Role:           "doctor",
	}

	token, expiresAt, err := svc.GenerateAccessToken(p)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, p, claims.Principal)
	assert.Equal(t, p.UserID.String(), claims.Subject)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", "mediconnect", time.Hour)
	verifier := NewJWTService("secret-b", "mediconnect", time.Hour)

	token, _, err := issuer.GenerateAccessToken(Principal{UserID: uuid.New(), Role: "nurse"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("secret", "mediconnect", time.Minute).(*jwtService)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := svc.GenerateAccessToken(Principal{UserID: uuid.New()})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("secret", "mediconnect", time.Hour)
	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
