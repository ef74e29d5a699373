package login

import (
	"context"
	"errors"
	"testing"

	"banana_bot/internal/provider"
)

type fakeAuth struct {
	calls  int
	tgInfo string
	invite string
	res    provider.LoginResult
	err    error
}

func (f *fakeAuth) Login(_ context.Context, tgInfo, inviteCode string) (provider.LoginResult, error) {
	f.calls++
	f.tgInfo = tgInfo
	f.invite = inviteCode
	return f.res, f.err
}

func TestLaunchData(t *testing.T) {
	cases := []struct {
		name string
		link string
		want string
		ok   bool
	}{
		{
			name: "telegram web app",
			link: "https://t.me/OfficialBananaBot/banana#tgWebAppData=query_id%3DAAE%26user%3D%257B%2522id%2522%253A1%257D&tgWebAppVersion=7.6",
			want: "query_id=AAE&user=%7B%22id%22%3A1%7D",
			ok:   true,
		},
		{name: "no fragment", link: "https://t.me/OfficialBananaBot/banana", ok: false},
		{name: "fragment without pair", link: "https://t.me/x#justtext", ok: false},
		{name: "empty value", link: "https://t.me/x#tgWebAppData=&v=1", ok: false},
		{name: "bad escape", link: "https://t.me/x#tgWebAppData=%zz", ok: false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := LaunchData(c.link)
			if !c.ok {
				if !errors.Is(err, ErrLoginFailed) {
					t.Fatalf("expected ErrLoginFailed, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestLogin_NoFragmentDoesNotCallRemote(t *testing.T) {
	auth := &fakeAuth{res: provider.LoginResult{AccessToken: "a", CookieToken: "c"}}
	_, err := Login(context.Background(), auth, "https://t.me/OfficialBananaBot/banana?startapp=x", "code")
	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("expected ErrLoginFailed, got %v", err)
	}
	if auth.calls != 0 {
		t.Errorf("remote login called %d times", auth.calls)
	}
}

func TestLogin_Success(t *testing.T) {
	auth := &fakeAuth{res: provider.LoginResult{AccessToken: "a", CookieToken: "banana-game:user:token=c"}}
	res, err := Login(context.Background(), auth, "https://t.me/x#tgWebAppData=abc%20def&x=1", " HHQJ6T4 ")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res != auth.res {
		t.Errorf("unexpected result %+v", res)
	}
	if auth.tgInfo != "abc def" || auth.invite != "HHQJ6T4" {
		t.Errorf("unexpected args %q %q", auth.tgInfo, auth.invite)
	}
}

func TestLogin_RemoteFailures(t *testing.T) {
	link := "https://t.me/x#tgWebAppData=abc"

	rejected := &fakeAuth{err: &provider.APIError{Op: "login", Code: 40001}}
	_, err := Login(context.Background(), rejected, link, "")
	if !errors.Is(err, ErrLoginFailed) || !provider.IsRejected(err) {
		t.Errorf("expected wrapped rejection, got %v", err)
	}

	partial := &fakeAuth{res: provider.LoginResult{AccessToken: "a"}}
	if _, err := Login(context.Background(), partial, link, ""); !errors.Is(err, ErrLoginFailed) {
		t.Errorf("expected ErrLoginFailed for missing cookie, got %v", err)
	}
}
