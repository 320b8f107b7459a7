package middleware

// gin context keys shared between middlewares and handlers.
const (
	CtxRequestID = "request_id"
	CtxClaims    = "claims"
)
