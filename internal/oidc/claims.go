package oidc

import "context"

// ClaimUniversalID is the userinfo claim carrying the provider identity.
const ClaimUniversalID = "universal_id"

// Claims is a decoded userinfo response. Scope claims are JSON booleans.
type Claims map[string]any

// Has reports whether claim is present and exactly JSON true.
func (c Claims) Has(claim string) bool {
	v, ok := c[claim].(bool)
	return ok && v
}

// UniversalID returns the universal_id claim, or "" when absent or not a string.
func (c Claims) UniversalID() string {
	s, _ := c[ClaimUniversalID].(string)
	return s
}

// Strings flattens string and boolean claims for listeners.
func (c Claims) Strings() map[string]string {
	out := make(map[string]string, len(c))
	for k, v := range c {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case bool:
			if tv {
				out[k] = "true"
			} else {
				out[k] = "false"
			}
		}
	}
	return out
}

type claimsKey struct{}

// WithClaims stores the token claims on ctx.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims stored by RequireToken.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}
