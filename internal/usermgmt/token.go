package usermgmt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
)

// tokenHeader is the token's first segment, ported from JWT_HEADER_FMT.
// Kid is kept as json.Number so parseToken can reject a signed or
// whitespace-padded key id without losing the raw digit text to Go's
// int unmarshalling.
type tokenHeader struct {
	Alg string      `json:"alg"`
	Typ string      `json:"typ"`
	Kid json.Number `json:"kid"`
}

// tokenClaims is the token's payload segment, ported field-for-field
// from write_claims; Iat/Exp are decimal strings, not JSON numbers, to
// preserve the full 64-bit timestamp range.
type tokenClaims struct {
	SID  int    `json:"sid"`
	Iat  string `json:"iat"`
	Exp  string `json:"exp"`
	Role string `json:"role"`
	Iss  string `json:"iss"`
	Sub  string `json:"sub"`
}

func roleClaimName(role configstore.Role) (string, bool) {
	switch role {
	case configstore.RoleOperator:
		return "operator", true
	case configstore.RoleMaintenance:
		return "maintenance", true
	default:
		// every other role aborts token creation, ported from
		// write_claims's default case.
		return "", false
	}
}

// issueToken builds and signs a bearer token for sess, ported from
// write_claims followed by the HMAC-SHA256 signing step jwt_build_token
// performs.
func issueToken(sess Session, deviceID, username string, secret [SessionSecretLength]byte) (string, error) {
	roleName, ok := roleClaimName(sess.Role)
	if !ok {
		return "", ErrArgInvalid
	}

	header, err := json.Marshal(tokenHeader{Alg: "HS256", Typ: "JWT", Kid: json.Number(strconv.Itoa(int(sess.SID)))})
	if err != nil {
		return "", err
	}
	claims, err := json.Marshal(tokenClaims{
		SID:  int(sess.SID),
		Iat:  strconv.FormatInt(sess.IssuedAt, 10),
		Exp:  strconv.FormatInt(sess.ExpiresAt, 10),
		Role: roleName,
		Iss:  deviceID,
		Sub:  username,
	})
	if err != nil {
		return "", err
	}

	signingInput := base64.RawURLEncoding.EncodeToString(header) + "." + base64.RawURLEncoding.EncodeToString(claims)
	sig := signToken(signingInput, secret)
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

func signToken(signingInput string, secret [SessionSecretLength]byte) []byte {
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(signingInput))
	return mac.Sum(nil)
}

// parsedToken is a structurally-valid, not-yet-authenticated token: the
// header's kid has been range-checked but the signature has not been
// verified against any session secret yet, since that requires looking
// the session up by kid first.
type parsedToken struct {
	sid          SessionID
	signingInput string
	signature    []byte
	claims       tokenClaims
}

// parseToken splits token into its three segments and decodes the
// header and claims, ported from the dot-scanning and JSON lookups in
// USRMGMT_ValidateSession.
func parseToken(token string) (parsedToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return parsedToken{}, ErrTokenMalformed
	}

	headerRaw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return parsedToken{}, ErrTokenMalformed
	}
	var header tokenHeader
	if err := json.Unmarshal(headerRaw, &header); err != nil {
		return parsedToken{}, ErrTokenMalformed
	}

	kidStr := header.Kid.String()
	if kidStr == "" || kidStr[0] == '-' || strings.TrimSpace(kidStr) != kidStr {
		return parsedToken{}, ErrTokenMalformed
	}
	kid, err := strconv.Atoi(kidStr)
	if err != nil || kid < 0 || kid >= MaxSessions {
		return parsedToken{}, ErrTokenMalformed
	}

	claimsRaw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return parsedToken{}, ErrTokenMalformed
	}
	var claims tokenClaims
	if err := json.Unmarshal(claimsRaw, &claims); err != nil {
		return parsedToken{}, ErrTokenMalformed
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil || len(sig) != sha256.Size {
		return parsedToken{}, ErrTokenMalformed
	}

	return parsedToken{
		sid:          SessionID(kid),
		signingInput: parts[0] + "." + parts[1],
		signature:    sig,
		claims:       claims,
	}, nil
}

// verifySignature constant-time-compares pt's signature against the
// HMAC recomputed with secret, ported from the byte-OR diff
// accumulator in USRMGMT_ValidateSession.
func (pt parsedToken) verifySignature(secret [SessionSecretLength]byte) bool {
	want := signToken(pt.signingInput, secret)
	return subtle.ConstantTimeCompare(want, pt.signature) == 1
}
