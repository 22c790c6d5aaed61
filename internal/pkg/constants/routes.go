package constants

// Static route constants
const (
	PublicRoute    = "/"
	LoginRoute     = "/login"
	RegisterRoute  = "/registrer"
	PackagesRoute  = "/pakker"
	CartRoute      = "/handlekurv"
	CheckoutRoute  = "/kasse"
	AccountRoute   = "/min-side"
	AdminRoute     = "/admin"
	WebhookRoute   = "/webhooks/payment"
	DownloadsPath  = "nedlastinger"
	DownloadsRoute = "/nedlastinger"
)
