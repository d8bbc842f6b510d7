package client

import "context"

// Credentials is one of NoAuth, APIKey, BasicAuth, BearerToken or OAuth2
type Credentials interface {
	credentials()
}

// TokenSource fetches an access token for the named security scheme
type TokenSource func(ctx context.Context, name string, scopes []string) (string, error)

// KeyLocation says where an API key is sent
type KeyLocation string

// API key locations
const (
	KeyInHeader KeyLocation = "header"
	KeyInQuery  KeyLocation = "query"
)

// NoAuth sends no credentials
type NoAuth struct{}

// APIKey sends a key verbatim in a named header or query parameter.
// KeySource, when set, is consulted instead of Key.
type APIKey struct {
	Name      string
	In        KeyLocation
	Key       string
	KeySource func(ctx context.Context, name string) (string, error)
}

// BasicAuth sends HTTP basic credentials
type BasicAuth struct {
	Username string
	Password string
}

// BearerToken sends Authorization: Bearer <Token>. Source, when set, is
// consulted instead of Token.
type BearerToken struct {
	Token  string
	Source TokenSource
}

// OAuth2 resolves an access token, statically or through TokenSource, and
// sends it as a bearer token. Scopes are passed to TokenSource but not
// checked locally.
type OAuth2 struct {
	Name        string
	Scopes      []string
	AccessToken string
	TokenSource TokenSource
}

func (NoAuth) credentials()      {}
func (APIKey) credentials()      {}
func (BasicAuth) credentials()   {}
func (BearerToken) credentials() {}
func (OAuth2) credentials()      {}

func (k APIKey) resolve(ctx context.Context, name string) (string, error) {
	if k.KeySource != nil {
		return k.KeySource(ctx, name)
	}
	return k.Key, nil
}

func (b BearerToken) resolve(ctx context.Context) (string, error) {
	if b.Source != nil {
		return b.Source(ctx, "bearer", nil)
	}
	return b.Token, nil
}

func (o OAuth2) resolve(ctx context.Context, name string, scopes []string) (string, error) {
	if o.TokenSource != nil {
		return o.TokenSource(ctx, name, scopes)
	}
	return o.AccessToken, nil
}
