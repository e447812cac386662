package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/evetabi/amm/internal/config"
	"github.com/evetabi/amm/internal/domain"
	"github.com/evetabi/amm/internal/service"
)

func authCfg() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "test-access-secret-abcdefghijklmnop",
			RefreshSecret: "test-refresh-secret-abcdefghijklmnop",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    30 * 24 * time.Hour,
		},
	}
}

// TestRequireRole covers the authorization collaborator: a trader must not
// pass an admin gate, admins pass every gate, and matching roles pass.
func TestRequireRole(t *testing.T) {
	cases := []struct {
		name     string
		role     string
		required domain.Role
		wantErr  error
	}{
		{"trader denied admin gate", string(domain.RoleTrader), domain.RoleAdmin, domain.ErrForbidden},
		{"empty role denied", "", domain.RoleAdmin, domain.ErrForbidden},
		{"unknown role denied", "auditor", domain.RoleAdmin, domain.ErrForbidden},
		{"admin passes admin gate", string(domain.RoleAdmin), domain.RoleAdmin, nil},
		{"admin passes trader gate", string(domain.RoleAdmin), domain.RoleTrader, nil},
		{"trader passes trader gate", string(domain.RoleTrader), domain.RoleTrader, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.RequireRole(tc.role, tc.required)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("RequireRole(%q, %q) = %v, want nil", tc.role, tc.required, err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("RequireRole(%q, %q) = %v, want %v", tc.role, tc.required, err, tc.wantErr)
			}
		})
	}
}

// TestParseAccessToken_RejectsGarbage exercises the token parser without a
// database: a malformed token and a token signed elsewhere both fail with
// ErrTokenInvalid.
func TestParseAccessToken_RejectsGarbage(t *testing.T) {
	authSvc := service.NewAuthService(nil, nil, nil, authCfg())

	for _, tok := range []string{
		"",
		"not.a.jwt",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9" +
			".eyJzdWIiOiIxMjM0NTY3ODkwIiwicm9sZSI6InRyYWRlciIsInR5cGUiOiJhY2Nlc3MifQ" +
			".BADSIG",
	} {
		if _, err := authSvc.ParseAccessToken(tok); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("ParseAccessToken(%q) = %v, want ErrTokenInvalid", tok, err)
		}
	}
}
