// Package security models the current authenticated principal. The
// storefront issues guest sessions; every cart operation is scoped to
// the principal carried by the request, never to a hard-coded user.
package security

import "github.com/gin-gonic/gin"

const principalKey = "principal"

type Principal struct {
	ID string
}

// With stores the principal in the gin context.
func With(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

// From returns the request's principal. The second return is false when
// the session middleware did not run or rejected the request.
func From(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
