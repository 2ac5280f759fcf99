package core

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateAuthToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"strong", "a1b2c3d4e5f6g7h8", false},
		{"empty", "", true},
		{"short", "a1b2c3", true},
		{"weak", "password12345678", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAuthToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAuthToken(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticateBearer(t *testing.T) {
	const expected = "validtokensecret"

	if r := AuthenticateBearer("Bearer "+expected, expected); !r.Authorized {
		t.Fatalf("expected authorized, got %s", r.Error)
	}

	cases := map[string]string{
		"":             "Missing Authorization header",
		"Token abc":    "Invalid Authorization header format",
		"Bearer wrong": "Invalid bearer token",
	}
	for header, want := range cases {
		r := AuthenticateBearer(header, expected)
		if r.Authorized || r.Error != want {
			t.Errorf("header %q: got %+v, want error %q", header, r, want)
		}
	}
}

func TestAuthenticateBasic(t *testing.T) {
	if r := AuthenticateBasic("user", "pass", "user:pass"); !r.Authorized {
		t.Fatalf("expected authorized, got %s", r.Error)
	}
	if r := AuthenticateBasic("user", "nope", "user:pass"); r.Authorized {
		t.Fatal("expected rejection for wrong password")
	}
	if r := AuthenticateBasic("", "", "user:pass"); r.Error != "Missing basic auth credentials" {
		t.Fatalf("unexpected error %q", r.Error)
	}
}

func TestAuthenticator(t *testing.T) {
	if _, err := NewAuthenticator("bearer", "short"); err == nil {
		t.Error("expected weak bearer token to be rejected")
	}
	if _, err := NewAuthenticator("oauth", ""); err == nil {
		t.Error("expected unknown auth type to be rejected")
	}

	none, err := NewAuthenticator("", "")
	if err != nil {
		t.Fatal(err)
	}
	if !none.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil)).Authorized {
		t.Error("no auth should authorize everything")
	}

	bearer, err := NewAuthenticator(AuthBearer, "k9Fz2Lq8Xw3Rv7Tn")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if bearer.Authenticate(req).Authorized {
		t.Error("missing header should be rejected")
	}
	req.Header.Set("Authorization", "Bearer k9Fz2Lq8Xw3Rv7Tn")
	if !bearer.Authenticate(req).Authorized {
		t.Error("matching bearer token should be accepted")
	}

	basic, err := NewAuthenticator(AuthBasic, "planner:Zx81Vq27Lm55Pw")
	if err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("planner", "Zx81Vq27Lm55Pw")
	if !basic.Authenticate(req).Authorized {
		t.Error("matching basic credentials should be accepted")
	}
}

func TestSecureCompareString(t *testing.T) {
	if !SecureCompareString("abc", "abc") {
		t.Error("equal strings should compare equal")
	}
	if SecureCompareString("abc", "abd") || SecureCompareString("abc", "abcd") {
		t.Error("different strings should not compare equal")
	}
}
