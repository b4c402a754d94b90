package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
)

const usersPath = "/api/users"

func userPath(id int64) string {
	return fmt.Sprintf("/api/user/%d", id)
}

func imagePath(userID, imageID int64) string {
	return fmt.Sprintf("/api/user/%d/image/%d", userID, imageID)
}

func renderUser(u domain.User) authsdk.UserInfo {
	return authsdk.UserInfo{
		ID:       u.ID,
		Username: u.Username,
		Links:    authsdk.Links{Self: &authsdk.Link{Href: userPath(u.ID)}},
	}
}

func renderImage(img domain.Image) authsdk.ImageInfo {
	return authsdk.ImageInfo{
		ID:          img.ID,
		GUID:        img.GUID,
		Title:       img.Title,
		ContentType: img.ContentType,
		Size:        img.Size,
		CreatedAt:   img.CreatedAt.UTC().Format(time.RFC3339),
		Links: authsdk.Links{
			Self: &authsdk.Link{Href: imagePath(img.UserID, img.ID)},
			User: &authsdk.Link{Href: userPath(img.UserID)},
		},
	}
}

func renderClient(c domain.Client, secret string) authsdk.ClientInfo {
	return authsdk.ClientInfo{
		ClientID:                c.ID,
		ClientSecret:            secret,
		ClientIDIssuedAt:        c.IssuedAt.Unix(),
		ClientName:              c.Name,
		ClientURI:               c.URI,
		GrantTypes:              c.GrantTypes,
		RedirectURIs:            c.RedirectURIs,
		ResponseTypes:           c.ResponseTypes,
		Scope:                   strings.Join(c.Scopes, " "),
		TokenEndpointAuthMethod: c.TokenEndpointAuthMethod,
	}
}

func renderToken(tok domain.IssuedToken) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    domain.BearerTokenType,
		ExpiresIn:    int(tok.ExpiresIn.Seconds()),
		Scope:        strings.Join(tok.Scopes, " "),
	}
}
