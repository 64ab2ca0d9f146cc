package api

// Authentication service routes
const (
	AuthRegister       = "/auth/register"
	AuthLogin          = "/auth/login"
	AuthForgotPassword = "/auth/forgot-password"
	AuthResetPassword  = "/auth/reset-password"
	AuthProfile        = "/auth/me"
	Health             = "/health"
)

// PublicEndpoints defines routes that don't require a bearer token
var PublicEndpoints = map[string]bool{
	AuthRegister:       true,
	AuthLogin:          true,
	AuthForgotPassword: true,
	AuthResetPassword:  true,
	Health:             true,
}
