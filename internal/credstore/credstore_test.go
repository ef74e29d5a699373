package credstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"banana_bot/internal/model"
)

func TestLoad_Missing(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "user.json"))
	if _, err := s.Load(); !errors.Is(err, ErrConfigUnreadable) {
		t.Fatalf("expected ErrConfigUnreadable, got %v", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	cases := map[string]string{
		"garbage": "{not json",
		"array":   `[1,2,3]`,
		"null":    `null`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "user.json")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Open(path).Load(); !errors.Is(err, ErrConfigUnreadable) {
				t.Fatalf("expected ErrConfigUnreadable, got %v", err)
			}
		})
	}
}

func TestLoad_OptionalFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	body := `{
  "alice": {"link": "https://t.me/x#tgWebAppData=abc", "invite_code": "HHQJ6T4"},
  "bob": {"access_token": "tok", "cookie_token": "banana-game:user:token=c"}
}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	accounts, err := Open(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts["alice"].SessionReady() || !accounts["alice"].CanLogin() {
		t.Errorf("alice should need login: %+v", accounts["alice"])
	}
	if !accounts["bob"].SessionReady() {
		t.Errorf("bob should be ready: %+v", accounts["bob"])
	}
}

func TestSave_RoundTripAndNoTempLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.json")
	s := Open(path)

	in := model.Accounts{
		"alice": {Link: "https://t.me/x#a=b", AccessToken: "t1", CookieToken: "c1"},
		"bob":   {InviteCode: "code"},
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "\n  \"alice\"") {
		t.Errorf("expected pretty printed output, got %s", raw)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out["alice"] != in["alice"] || out["bob"] != in["bob"] {
		t.Errorf("round trip mismatch: %+v", out)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only user.json in dir, got %d entries", len(entries))
	}
}

func TestSave_WriteFailed(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "missing-dir", "user.json"))
	if err := s.Save(model.Accounts{"a": {}}); !errors.Is(err, ErrConfigWriteFailed) {
		t.Fatalf("expected ErrConfigWriteFailed, got %v", err)
	}
}
