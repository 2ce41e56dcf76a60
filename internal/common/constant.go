package common

// AuthorizationHeaderName carries the access token as "Bearer <token>".
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// RefreshTokenCookieName is the HTTP-only cookie holding the refresh token.
const RefreshTokenCookieName = "refreshToken"
