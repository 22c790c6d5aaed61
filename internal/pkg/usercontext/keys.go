package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey          = "authenticated"
	KeyUserID        = "user_id"
	KeyUserName      = "user_name"
	KeyIsAdmin       = "isAdmin"
	KeyIsLawyer      = "isLawyer"
	KeyFromProtected = "from_protected"
)
