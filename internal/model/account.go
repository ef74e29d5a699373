package model

import "strings"

// AccountConfig 是 user.json 中单个账号的配置，所有字段都可选。
type AccountConfig struct {
	Link        string `json:"link,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	CookieToken string `json:"cookie_token,omitempty"`
	InviteCode  string `json:"invite_code,omitempty"`
}

// SessionReady reports whether both tokens are present.
func (a AccountConfig) SessionReady() bool {
	return strings.TrimSpace(a.AccessToken) != "" && strings.TrimSpace(a.CookieToken) != ""
}

// CanLogin reports whether a session can be derived from the invite link.
func (a AccountConfig) CanLogin() bool {
	return strings.TrimSpace(a.Link) != ""
}

// Accounts maps account name to its config.
type Accounts map[string]AccountConfig

// Clone returns a copy that can be mutated without touching a.
func (a Accounts) Clone() Accounts {
	out := make(Accounts, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Session is the immutable credential pair owned by one running worker.
type Session struct {
	Account     string
	AccessToken string
	CookieToken string
}

func NewSession(name string, cfg AccountConfig) Session {
	return Session{
		Account:     name,
		AccessToken: strings.TrimSpace(cfg.AccessToken),
		CookieToken: strings.TrimSpace(cfg.CookieToken),
	}
}
