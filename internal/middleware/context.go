package middleware

// ContextKeyRequestID is the echo context key holding the request identifier.
const ContextKeyRequestID = "request_id"

// HeaderRequestID carries the request identifier in and out of the API.
const HeaderRequestID = "X-Request-ID"
