package authsdk

import (
	"context"
	"net/http"
)

// Account operations. These use the browser session cookie held in the
// client's jar rather than a bearer token.

// Register creates a user account.
func (c *SDKClient) Register(ctx context.Context, username, password string) (*AccountResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/register", CredentialsRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var account AccountResponse
	if err := decodeJSON(resp, &account, http.StatusOK); err != nil {
		return nil, err
	}

	return &account, nil
}

// Login starts a browser session. The session cookie is kept in the
// client's cookie jar for later calls.
func (c *SDKClient) Login(ctx context.Context, username, password string) (*AccountResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/login", CredentialsRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var account AccountResponse
	if err := decodeJSON(resp, &account, http.StatusOK); err != nil {
		return nil, err
	}

	return &account, nil
}

// Logout ends the browser session.
func (c *SDKClient) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}

// CreateClient registers an OAuth2 client owned by the logged-in user.
// The returned ClientSecret is only ever shown here.
func (c *SDKClient) CreateClient(ctx context.Context, req CreateClientRequest) (*ClientInfo, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/create_client", req)
	if err != nil {
		return nil, err
	}

	var client ClientInfo
	if err := decodeJSON(resp, &client, http.StatusOK); err != nil {
		return nil, err
	}

	return &client, nil
}

// ListClients lists the logged-in user's OAuth2 clients.
func (c *SDKClient) ListClients(ctx context.Context) (*ListClientsResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/clients", nil, nil)
	if err != nil {
		return nil, err
	}

	var clients ListClientsResponse
	if err := decodeJSON(resp, &clients, http.StatusOK); err != nil {
		return nil, err
	}

	return &clients, nil
}
