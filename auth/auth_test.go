package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := NewService("test-secret", 0)

	token, err := svc.Issue(42, "USER")
	require.NoError(t, err)

	id, err := svc.Verify(token)
	require.NoError(t, err)
	require.EqualValues(t, 42, id)

	claims, err := svc.VerifyClaims(token)
	require.NoError(t, err)
	require.Equal(t, "USER", claims.Role)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewService("test-secret", 0)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.Verify(token)
		require.Error(t, err, "token %q", token)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewService("secret-a", 0).Issue(1, "USER")
	require.NoError(t, err)

	_, err = NewService("secret-b", 0).Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, err := svc.Issue(1, "USER")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NotEqual(t, "hunter22", hash)

	require.True(t, CheckPassword(hash, "hunter22"))
	require.False(t, CheckPassword(hash, "hunter23"))
	require.False(t, CheckPassword("", "hunter22"))
}
