package usermgmt

import (
	"testing"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueTokenRejectsNonAuthenticatingRole(t *testing.T) {
	sess := Session{SID: 1, Role: configstore.RoleLocalButton}
	_, err := issueToken(sess, "dev", "user", [SessionSecretLength]byte{})
	assert.ErrorIs(t, err, ErrArgInvalid)
}

func TestIssueTokenThenParseAndVerifyRoundTrips(t *testing.T) {
	var secret [SessionSecretLength]byte
	secret[0] = 42

	sess := Session{SID: 3, Role: configstore.RoleOperator, IssuedAt: 100, ExpiresAt: 1000}
	token, err := issueToken(sess, "device-1", "alice", secret)
	require.NoError(t, err)

	pt, err := parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, SessionID(3), pt.sid)
	assert.Equal(t, "100", pt.claims.Iat)
	assert.Equal(t, "1000", pt.claims.Exp)
	assert.Equal(t, "operator", pt.claims.Role)
	assert.Equal(t, "device-1", pt.claims.Iss)
	assert.Equal(t, "alice", pt.claims.Sub)
	assert.True(t, pt.verifySignature(secret))
}

func TestParseTokenRejectsWrongSignature(t *testing.T) {
	var secretA, secretB [SessionSecretLength]byte
	secretB[0] = 1

	sess := Session{SID: 0, Role: configstore.RoleMaintenance, IssuedAt: 1, ExpiresAt: 2}
	token, err := issueToken(sess, "dev", "admin", secretA)
	require.NoError(t, err)

	pt, err := parseToken(token)
	require.NoError(t, err)
	assert.False(t, pt.verifySignature(secretB))
}

func TestParseTokenRejectsMalformedSegments(t *testing.T) {
	_, err := parseToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestParseTokenRejectsOutOfRangeKid(t *testing.T) {
	sess := Session{SID: MaxSessions, Role: configstore.RoleOperator, IssuedAt: 1, ExpiresAt: 2}
	// issueToken does not itself validate sid range; build a token with an
	// out-of-range kid to confirm parseToken's own guard rejects it.
	token, err := issueToken(sess, "dev", "user", [SessionSecretLength]byte{})
	require.NoError(t, err)
	_, err = parseToken(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
