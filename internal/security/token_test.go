package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server_go/internal/security"
)

func TestVerifyForUser(t *testing.T) {
	svc := security.NewTokenService("secret", time.Hour)

	token, err := svc.CreateForUser("ext-alice")
	require.NoError(t, err)

	assert.NoError(t, svc.VerifyForUser(token, "ext-alice"))
	assert.Error(t, svc.VerifyForUser(token, "ext-bob"))
	assert.Error(t, svc.VerifyForUser("not-a-token", "ext-alice"))
}

func TestParseRejectsWrongSecret(t *testing.T) {
	minter := security.NewTokenService("secret-a", time.Hour)
	verifier := security.NewTokenService("secret-b", time.Hour)

	token, err := minter.CreateForUser("ext-alice")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	svc := security.NewTokenService("secret", -time.Minute)

	token, err := svc.CreateForUser("ext-alice")
	require.NoError(t, err)

	_, err = svc.Parse(token)
	assert.Error(t, err)
}
