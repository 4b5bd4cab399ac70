package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"charitychain/internal/domain"
)

// TokenClaims is the payload of the bearer token. Only the account id is
// carried; the authentication gate re-resolves the account on every request.
type TokenClaims struct {
	Sub      string `json:"sub"`
	Exp      int64  `json:"exp"`
	Issuer   string `json:"iss"`
	Audience string `json:"aud"`
}

const (
	tokenIssuer   = "charitychain"
	tokenAudience = "charitychain-clients"
)

// IssueToken mints a signed bearer token bound to accountID, expiring ttl
// from now.
func IssueToken(secret, accountID string, ttl time.Duration) (string, error) {
	return SignJWT(secret, TokenClaims{
		Sub:      accountID,
		Exp:      time.Now().Add(ttl).Unix(),
		Issuer:   tokenIssuer,
		Audience: tokenAudience,
	})
}

// SignJWT produces an HS256 JWT for the given claims.
func SignJWT(secret string, claims TokenClaims) (string, error) {
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	headerJSON, _ := json.Marshal(header)
	payloadJSON, _ := json.Marshal(claims)
	headerEnc := base64.RawURLEncoding.EncodeToString(headerJSON)
	payloadEnc := base64.RawURLEncoding.EncodeToString(payloadJSON)
	data := headerEnc + "." + payloadEnc
	sig := hmacSign(secret, data)
	return data + "." + sig, nil
}

func hmacSign(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyJWT checks the signature and expiry and returns the embedded claims.
// Every failure mode wraps domain.ErrInvalidToken; callers respond uniformly
// and may log the detail. A token is still valid at the exact expiry second.
func VerifyJWT(secret, token string) (*TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed", domain.ErrInvalidToken)
	}
	expected := hmacSign(secret, parts[0]+"."+parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, fmt.Errorf("%w: signature mismatch", domain.ErrInvalidToken)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	var claims TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.Exp != 0 && time.Now().Unix() > claims.Exp {
		return nil, fmt.Errorf("%w: expired", domain.ErrInvalidToken)
	}
	return &claims, nil
}
