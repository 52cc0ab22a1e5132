package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "un_abc123def456", false},
		{"empty key", "", true},
		{"missing prefix", "abc123def456", true},
		{"wrong prefix", "hf_abc123", true},
		{"just prefix", "un_", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAPIKey(%q) err = %v, wantErr = %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func cliAuthServer(t *testing.T, wantEmail string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cli/auth" {
			t.Errorf("%s %s, want POST /cli/auth", r.Method, r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req["email"] != wantEmail {
			t.Errorf("email = %q, want %q", req["email"], wantEmail)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"message": "sent"}); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginStoresKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := cliAuthServer(t, "amina@example.com")

	if err := runLogin(srv.URL, "amina@example.com", strings.NewReader("un_pastedkey\n")); err != nil {
		t.Fatalf("login: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "un_pastedkey" || cfg.Email != "amina@example.com" || cfg.ServerURL != srv.URL {
		t.Errorf("config = %+v", cfg)
	}
}

func TestLoginPromptsForEmail(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := cliAuthServer(t, "brian@example.com")

	if err := runLogin(srv.URL, "", strings.NewReader("brian@example.com\nun_key\n")); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestLoginRejectsBadKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := cliAuthServer(t, "amina@example.com")

	if err := runLogin(srv.URL, "amina@example.com", strings.NewReader("hf_wrong\n")); err == nil {
		t.Fatal("expected error for key without un_ prefix")
	}
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "" {
		t.Errorf("bad key was saved: %q", cfg.APIKey)
	}
}
