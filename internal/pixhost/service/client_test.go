package service

import (
	"testing"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/stretchr/testify/require"
)

func TestClientRegister(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := t.Context()
	owner := env.user(t, "dev")

	t.Run("confidential clients get a long secret", func(t *testing.T) {
		c, secret, err := env.clients.Register(ctx, owner.ID, defaultMetadata())
		require.NoError(t, err)
		require.Len(t, c.ID, 24)
		require.GreaterOrEqual(t, len(secret), 43)
		require.NotEmpty(t, c.SecretHash)
		require.Equal(t, domain.AuthMethodClientSecretBasic, c.TokenEndpointAuthMethod)
		require.ElementsMatch(t, []string{domain.ResponseTypeCode, domain.ResponseTypeToken}, c.ResponseTypes)
	})

	t.Run("none auth method has no secret", func(t *testing.T) {
		meta := defaultMetadata()
		meta.TokenEndpointAuthMethod = domain.AuthMethodNone

		c, secret, err := env.clients.Register(ctx, owner.ID, meta)
		require.NoError(t, err)
		require.Empty(t, secret)
		require.Empty(t, c.SecretHash)
	})

	t.Run("anonymous owner", func(t *testing.T) {
		_, _, err := env.clients.Register(ctx, 0, defaultMetadata())
		require.ErrorIs(t, err, ErrLoginRequired)
	})

	invalid := map[string]func(m *domain.ClientMetadata){
		"no grant types":      func(m *domain.ClientMetadata) { m.GrantTypes = nil },
		"unknown grant type":  func(m *domain.ClientMetadata) { m.GrantTypes = []string{"client_credentials"} },
		"no redirect uris":    func(m *domain.ClientMetadata) { m.RedirectURIs = nil },
		"relative redirect":   func(m *domain.ClientMetadata) { m.RedirectURIs = []string{"/cb"} },
		"fragment redirect":   func(m *domain.ClientMetadata) { m.RedirectURIs = []string{"https://a.example/cb#x"} },
		"unknown response":    func(m *domain.ClientMetadata) { m.ResponseTypes = []string{"id_token"} },
		"unknown auth method": func(m *domain.ClientMetadata) { m.TokenEndpointAuthMethod = "private_key_jwt" },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			meta := defaultMetadata()
			mutate(&meta)
			_, _, err := env.clients.Register(ctx, owner.ID, meta)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestClientValidateScope(t *testing.T) {
	t.Parallel()

	var svc ClientService
	c := domain.Client{Scopes: []string{"profile", "images"}}

	cases := []struct {
		name      string
		requested []string
		want      []string
		err       error
	}{
		{"empty means full registered scope", nil, []string{"profile", "images"}, nil},
		{"subset", []string{"images"}, []string{"images"}, nil},
		{"keeps requested order without duplicates", []string{"images", "profile", "images"}, []string{"images", "profile"}, nil},
		{"drops unknown entries", []string{"images", "admin"}, []string{"images"}, nil},
		{"disjoint", []string{"admin"}, nil, ErrInvalidScope},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ValidateScope(c, tc.requested)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestClientAuthenticate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := t.Context()
	owner := env.user(t, "dev")

	basic, secret := env.client(t, owner.ID, defaultMetadata())

	postMeta := defaultMetadata()
	postMeta.TokenEndpointAuthMethod = domain.AuthMethodClientSecretPost
	post, postSecret := env.client(t, owner.ID, postMeta)

	publicMeta := defaultMetadata()
	publicMeta.TokenEndpointAuthMethod = domain.AuthMethodNone
	public, _ := env.client(t, owner.ID, publicMeta)

	ok := []ClientCredentials{
		{ClientID: basic.ID, ClientSecret: secret, Method: domain.AuthMethodClientSecretBasic},
		{ClientID: post.ID, ClientSecret: postSecret, Method: domain.AuthMethodClientSecretPost},
		{ClientID: public.ID, Method: domain.AuthMethodNone},
	}
	for _, creds := range ok {
		c, err := env.clients.Authenticate(ctx, creds)
		require.NoError(t, err, creds.Method)
		require.Equal(t, creds.ClientID, c.ID)
	}

	bad := map[string]ClientCredentials{
		"wrong secret":         {ClientID: basic.ID, ClientSecret: "nope", Method: domain.AuthMethodClientSecretBasic},
		"basic client in form": {ClientID: basic.ID, ClientSecret: secret, Method: domain.AuthMethodClientSecretPost},
		"post client as basic": {ClientID: post.ID, ClientSecret: postSecret, Method: domain.AuthMethodClientSecretBasic},
		"confidential as none": {ClientID: basic.ID, Method: domain.AuthMethodNone},
		"public with secret":   {ClientID: public.ID, ClientSecret: "x", Method: domain.AuthMethodClientSecretPost},
		"unknown client":       {ClientID: "missing", ClientSecret: "x", Method: domain.AuthMethodClientSecretBasic},
		"no client id":         {Method: domain.AuthMethodNone},
	}
	for name, creds := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := env.clients.Authenticate(ctx, creds)
			require.ErrorIs(t, err, ErrInvalidClient)
		})
	}
}
