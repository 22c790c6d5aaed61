package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/juridiskporten/portal/internal/pkg/session"
	"github.com/juridiskporten/portal/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request
// This centralizes user session handling and eliminates code duplication
func UserContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		// On error: treat as anonymous
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	name := session.GetSessionValue(c, usercontext.KeyUserName)
	isAdmin := sess.Get(usercontext.KeyIsAdmin)
	isLawyer := sess.Get(usercontext.KeyIsLawyer)

	userCtx := usercontext.UserContext{
		UserID:     userID.(uint),
		Name:       name,
		IsLoggedIn: true,
		IsAdmin:    isAdmin != nil && isAdmin.(bool),
		IsLawyer:   isLawyer != nil && isLawyer.(bool),
	}
	c.Locals("USER_CONTEXT", userCtx)

	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserName, name)
	c.Locals(usercontext.KeyUserID, userID.(uint))
	c.Locals(usercontext.KeyIsAdmin, userCtx.IsAdmin)
	c.Locals(usercontext.KeyIsLawyer, userCtx.IsLawyer)

	return c.Next()
}
