package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func meServer(t *testing.T, validKey string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/me" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+validKey {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid API key"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{
			"uid": "u1", "email": "amina@example.com", "role": "student", "fullName": "Amina Odhiambo",
		}); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatus(t *testing.T) {
	srv := meServer(t, "un_validkey1234567890")

	tests := []struct {
		name   string
		server string
		key    string
		want   []string
	}{
		{"no key", srv.URL, "", []string{"API Key: not configured", "uninest login"}},
		{"valid key", srv.URL, "un_validkey1234567890", []string{"un_valid… (UNINEST_API_KEY)", "connected as Amina Odhiambo (amina@example.com, student)"}},
		{"short key", srv.URL, "un_ab", []string{"API Key: un_ab…", "invalid API key"}},
		{"rejected key", srv.URL, "un_badkey1234567890", []string{"invalid API key", "re-authenticate"}},
		{"server down", "http://127.0.0.1:1", "un_validkey1234567890", []string{"cannot reach server"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv(envServerURL, tt.server)
			t.Setenv(envAPIKey, tt.key)

			var out bytes.Buffer
			if err := runStatus(&out); err != nil {
				t.Fatalf("status: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output missing %q:\n%s", w, out.String())
				}
			}
		})
	}
}

func TestStatusKeyFromConfig(t *testing.T) {
	srv := meServer(t, "un_stored1234567890")
	t.Setenv("HOME", t.TempDir())
	t.Setenv(envServerURL, "")
	t.Setenv(envAPIKey, "")
	if err := saveConfig(CLIConfig{ServerURL: srv.URL, APIKey: "un_stored1234567890"}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runStatus(&out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "(config)") || !strings.Contains(out.String(), "connected as") {
		t.Errorf("output = %s", out.String())
	}
}
