package googleauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenURL is Google's OAuth2 token endpoint.
	DefaultTokenURL = "https://oauth2.googleapis.com/token"

	// MessagingScope authorizes FCM v1 sends.
	MessagingScope = "https://www.googleapis.com/auth/firebase.messaging"

	grantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// Tokens are refreshed this long before their reported expiry.
	expirySkew = 60 * time.Second
)

// AuthError means the token exchange failed: bad credential material, a
// signing failure, or a non-token response from the identity provider.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("googleauth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ServiceAccount is the credential material signed into JWT assertions.
// It is loaded once at startup and must never be logged.
type ServiceAccount struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// ParseServiceAccount decodes a base64-encoded service-account JSON blob,
// the form it arrives in from the secret store.
func ParseServiceAccount(encoded string) (*ServiceAccount, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, &AuthError{Op: "decode service account", Err: err}
	}

	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, &AuthError{Op: "parse service account", Err: err}
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, &AuthError{Op: "parse service account", Err: fmt.Errorf("missing client_email or private_key")}
	}

	return &sa, nil
}

// RawJSON re-encodes the credential as service-account JSON for consumers
// that want the original form, such as the Admin SDK initializer.
func (sa *ServiceAccount) RawJSON() ([]byte, error) {
	data, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   sa.ProjectID,
		"client_email": sa.ClientEmail,
		"private_key":  sa.PrivateKey,
	})
	if err != nil {
		return nil, &AuthError{Op: "encode service account", Err: err}
	}
	return data, nil
}

type assertionClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenSource exchanges signed JWT-bearer assertions for short-lived
// access tokens, caching each token until shortly before expiry so a
// burst of dispatches does not hammer the token endpoint.
type TokenSource struct {
	sa          *ServiceAccount
	key         *rsa.PrivateKey
	tokenURL    string
	client      *http.Client
	now         func() time.Time
	cacheTokens bool

	mu      sync.Mutex
	cached  string
	expires time.Time
}

// Config configures a TokenSource. TokenURL and Client are optional;
// DisableCache reproduces the one-exchange-per-call behavior.
type Config struct {
	TokenURL     string
	Client       *http.Client
	DisableCache bool
}

// NewTokenSource validates the credential's private key up front so a bad
// credential fails at startup rather than on the first dispatch.
func NewTokenSource(sa *ServiceAccount, cfg Config) (*TokenSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return nil, &AuthError{Op: "parse private key", Err: err}
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &TokenSource{
		sa:          sa,
		key:         key,
		tokenURL:    tokenURL,
		client:      client,
		now:         time.Now,
		cacheTokens: !cfg.DisableCache,
	}, nil
}

// Token returns a valid bearer token, exchanging a fresh assertion only
// when no unexpired token is cached.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if !ts.cacheTokens {
		token, _, err := ts.exchangeWithExpiry(ctx, ts.now())
		return token, err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.now()
	if ts.cached != "" && now.Before(ts.expires) {
		return ts.cached, nil
	}

	token, expiresIn, err := ts.exchangeWithExpiry(ctx, now)
	if err != nil {
		return "", err
	}

	ts.cached = token
	ts.expires = now.Add(time.Duration(expiresIn)*time.Second - expirySkew)
	return token, nil
}

func (ts *TokenSource) exchangeWithExpiry(ctx context.Context, now time.Time) (string, int, error) {
	assertion, err := ts.signAssertion(now)
	if err != nil {
		return "", 0, err
	}

	form := url.Values{
		"grant_type": {grantType},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &AuthError{Op: "build token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", 0, &AuthError{Op: "token exchange", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &AuthError{Op: "read token response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, &AuthError{
			Op:  "token exchange",
			Err: fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body))),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, &AuthError{Op: "parse token response", Err: err}
	}
	if tr.AccessToken == "" {
		return "", 0, &AuthError{Op: "token exchange", Err: fmt.Errorf("response contains no access_token")}
	}

	expiresIn := tr.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return tr.AccessToken, expiresIn, nil
}

func (ts *TokenSource) signAssertion(now time.Time) (string, error) {
	claims := &assertionClaims{
		Scope: MessagingScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.sa.ClientEmail,
			Subject:   ts.sa.ClientEmail,
			Audience:  jwt.ClaimStrings{ts.tokenURL},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(ts.key)
	if err != nil {
		return "", &AuthError{Op: "sign assertion", Err: err}
	}
	return signed, nil
}
