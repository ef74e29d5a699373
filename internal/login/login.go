// Package login turns a shareable invite link into a durable game session.
package login

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"banana_bot/internal/provider"
)

var ErrLoginFailed = errors.New("login failed")

// Authenticator is the slice of provider.Provider the login flow needs.
type Authenticator interface {
	Login(ctx context.Context, tgInfo, inviteCode string) (provider.LoginResult, error)
}

// LaunchData extracts the launch payload from the link fragment: the value of
// the first "&"-separated pair, percent-decoded.
func LaunchData(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("%w: parse link: %v", ErrLoginFailed, err)
	}
	fragment := u.EscapedFragment()
	if fragment == "" {
		return "", fmt.Errorf("%w: link has no fragment", ErrLoginFailed)
	}
	first, _, _ := strings.Cut(fragment, "&")
	_, value, ok := strings.Cut(first, "=")
	if !ok {
		return "", fmt.Errorf("%w: fragment has no launch data", ErrLoginFailed)
	}
	if i := strings.IndexByte(value, '='); i >= 0 {
		value = value[:i]
	}
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return "", fmt.Errorf("%w: decode launch data: %v", ErrLoginFailed, err)
	}
	if decoded == "" {
		return "", fmt.Errorf("%w: empty launch data", ErrLoginFailed)
	}
	return decoded, nil
}

// Login exchanges link + inviteCode for a session. The remote endpoint is not
// called when the link carries no usable launch data.
func Login(ctx context.Context, auth Authenticator, link, inviteCode string) (provider.LoginResult, error) {
	tgInfo, err := LaunchData(link)
	if err != nil {
		return provider.LoginResult{}, err
	}
	res, err := auth.Login(ctx, tgInfo, strings.TrimSpace(inviteCode))
	if err != nil {
		return provider.LoginResult{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if res.AccessToken == "" || res.CookieToken == "" {
		return provider.LoginResult{}, fmt.Errorf("%w: incomplete session", ErrLoginFailed)
	}
	return res, nil
}
