package common

// AuthorizationHeaderName carries the bearer access token on inbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the expected scheme prefix of the Authorization header.
const BearerScheme = "Bearer"

// RequestIDHeaderName is echoed on every response.
const RequestIDHeaderName = "X-Request-ID"
