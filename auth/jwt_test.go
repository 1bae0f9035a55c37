package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", "daybook-test", time.Hour)

	token, err := m.GenerateToken("user-1", []string{"beta"})
	require.NoError(t, err)

	id, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, []string{"beta"}, id.Roles)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager("one", "", time.Hour).GenerateToken("user-1", nil)
	require.NoError(t, err)

	_, err = NewJWTManager("two", "", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsWrongIssuer(t *testing.T) {
	token, err := NewJWTManager("secret", "someone-else", time.Hour).GenerateToken("user-1", nil)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", "daybook", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	token, err := NewJWTManager("secret", "", -time.Minute).GenerateToken("user-1", nil)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", "", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsMissingSubject(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTManager("secret", "", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "", wantErr: true},
		{header: "Basic abc", wantErr: true},
		{header: "Bearer ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ExtractToken(tt.header)
		if tt.wantErr {
			assert.Error(t, err, tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
