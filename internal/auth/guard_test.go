package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyroom-backend/internal/model"
)

var testSecret = []byte("test-secret")

func TestJWTGuard_Authenticate(t *testing.T) {
	guard := NewJWTGuard(testSecret, "studyroom", 0)
	issuer := NewIssuer(testSecret, "studyroom", time.Hour)

	valid, _, err := issuer.Issue("acc-1", model.RoleAdmin)
	require.NoError(t, err)

	expiredIssuer := NewIssuer(testSecret, "studyroom", time.Hour)
	expiredIssuer.clock = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredIssuer.Issue("acc-1", model.RoleStudent)
	require.NoError(t, err)

	forged, _, err := NewIssuer([]byte("other-secret"), "studyroom", time.Hour).Issue("acc-1", model.RoleAdmin)
	require.NoError(t, err)

	foreign, _, err := NewIssuer(testSecret, "someone-else", time.Hour).Issue("acc-1", model.RoleStudent)
	require.NoError(t, err)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "studyroom",
			Subject:   "acc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(testSecret)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		header   string
		expected Principal
		wantErr  error
	}{
		{name: "Valid token", header: "Bearer " + valid, expected: Principal{AccountID: "acc-1", Role: model.RoleAdmin}},
		{name: "Lower-case scheme", header: "bearer " + valid, expected: Principal{AccountID: "acc-1", Role: model.RoleAdmin}},
		{name: "Missing header", header: "", wantErr: ErrUnauthenticated},
		{name: "Bearer without token", header: "Bearer ", wantErr: ErrUnauthenticated},
		{name: "Wrong scheme", header: "Basic Zm9vOmJhcg==", wantErr: ErrInvalidToken},
		{name: "Garbage token", header: "Bearer not.a.jwt", wantErr: ErrInvalidToken},
		{name: "Expired token", header: "Bearer " + expired, wantErr: ErrInvalidToken},
		{name: "Bad signature", header: "Bearer " + forged, wantErr: ErrInvalidToken},
		{name: "Foreign issuer", header: "Bearer " + foreign, wantErr: ErrInvalidToken},
		{name: "Missing role", header: "Bearer " + noRole, wantErr: ErrInvalidToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := guard.Authenticate(context.Background(), tc.header)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p)
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{AccountID: "acc-1", Role: model.RoleStudent})
	p, ok := PrincipalFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "acc-1", p.AccountID)
	assert.False(t, p.IsAdmin())
}
