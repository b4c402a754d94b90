package authsdk

// ============================================================================
// Internal Response Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse represents a standard OAuth2 error response per RFC 6749.
// Client code should use the OAuth2Error type from errors.go instead.
type ErrorResponse struct {
	// Error is the OAuth2 error code (e.g., "invalid_request", "invalid_grant")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// SuccessResponse is the body of endpoints that only report an outcome.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse represents the OAuth2 token endpoint response per RFC 6749.
// This is returned from POST /auth/token for every grant type.
type TokenResponse struct {
	// AccessToken is the opaque bearer token used against the image API
	AccessToken string `json:"access_token"`

	// RefreshToken is the opaque refresh token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "Bearer" per OAuth2 spec
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`

	// Scope is the space-delimited list of scopes granted to this token
	Scope string `json:"scope,omitempty"`
}

// IntrospectionResponse represents the RFC 7662 token introspection response.
// When a token is inactive, only the Active field is set.
type IntrospectionResponse struct {
	Active bool `json:"active"`

	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	Sub       string `json:"sub,omitempty"`
	Jti       string `json:"jti,omitempty"`
}

// ============================================================================
// Account Types
// ============================================================================

// CredentialsRequest is the body of POST /register and POST /auth/login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccountResponse is returned by registration and login.
type AccountResponse struct {
	Success bool     `json:"success"`
	User    UserInfo `json:"user"`
}

// ============================================================================
// Client Types
// ============================================================================

// CreateClientRequest carries the RFC 7591 style metadata of a new client.
type CreateClientRequest struct {
	ClientName              string   `json:"client_name"`
	ClientURI               string   `json:"client_uri,omitempty"`
	GrantTypes              []string `json:"grant_types"`
	RedirectURIs            []string `json:"redirect_uris"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	Scope                   string   `json:"scope"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
}

// ClientInfo describes a registered client. ClientSecret is only present in
// the response to the request that created the client.
type ClientInfo struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	ClientName              string   `json:"client_name"`
	ClientURI               string   `json:"client_uri,omitempty"`
	GrantTypes              []string `json:"grant_types"`
	RedirectURIs            []string `json:"redirect_uris"`
	ResponseTypes           []string `json:"response_types"`
	Scope                   string   `json:"scope"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}

// ListClientsResponse contains the clients a developer registered.
type ListClientsResponse struct {
	Clients []ClientInfo `json:"clients"`
}

// ============================================================================
// Authorization Types
// ============================================================================

// ConsentPrompt is what GET /auth/authorize returns when the user still has
// to approve the request.
type ConsentPrompt struct {
	ClientID     string `json:"client_id"`
	ClientName   string `json:"client_name"`
	Scope        string `json:"scope"`
	ResponseType string `json:"response_type"`
	RedirectURI  string `json:"redirect_uri"`
	State        string `json:"state,omitempty"`
	User         string `json:"user,omitempty"`
}

// ============================================================================
// Resource Types
// ============================================================================

// Link is a hypermedia reference.
type Link struct {
	Href string `json:"href"`
}

// Links holds the hypermedia references of a resource body.
type Links struct {
	Self *Link `json:"self,omitempty"`
	User *Link `json:"user,omitempty"`
}

// UserInfo is a user as exposed by the image API.
type UserInfo struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Images   []ImageInfo `json:"images,omitempty"`
	Links    Links       `json:"_links"`
}

// ListUsersResponse is the body of GET /api/users.
type ListUsersResponse struct {
	Users []UserInfo `json:"users"`
	Links Links      `json:"_links"`
}

// ImageInfo is image metadata. URL is only filled on single image reads.
type ImageInfo struct {
	ID          int64  `json:"id"`
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	URL         string `json:"url,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	Links       Links  `json:"_links"`
}

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	Success bool      `json:"success"`
	Image   ImageInfo `json:"image"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`

	// BlobStore indicates whether the image store is reachable
	BlobStore string `json:"blob_store"`
}
