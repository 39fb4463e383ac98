package auth

import (
	"strings"
	"testing"
	"time"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "bearer token", header: "Bearer abc123", want: "abc123"},
		{name: "lowercase bearer", header: "bearer abc123", want: "abc123"},
		{name: "empty header", header: "", wantErr: true},
		{name: "no scheme", header: "abc123", wantErr: true},
		{name: "wrong scheme", header: "Basic abc123", wantErr: true},
		{name: "bearer with empty token", header: "Bearer ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractToken(tt.header)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractToken(%q) expected error", tt.header)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractToken(%q) error: %v", tt.header, err)
			}
			if got != tt.want {
				t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a, err := NewJWTAuth("test-secret", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewJWTAuth error: %v", err)
	}

	access, refresh, err := a.GenerateTokens("user-1", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateTokens error: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("empty tokens issued")
	}

	for _, token := range []string{access, refresh} {
		user, err := a.VerifyToken(token)
		if err != nil {
			t.Fatalf("VerifyToken error: %v", err)
		}
		if user.ID != "user-1" || user.Email != "test@example.com" {
			t.Errorf("verified user = %+v, want user-1 / test@example.com", user)
		}
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	a, _ := NewJWTAuth("secret-a", time.Hour, time.Hour)
	b, _ := NewJWTAuth("secret-b", time.Hour, time.Hour)

	token, _, err := a.GenerateTokens("user-1", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateTokens error: %v", err)
	}

	if _, err := b.VerifyToken(token); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	a, _ := NewJWTAuth("test-secret", -time.Minute, -time.Minute)

	token, _, err := a.GenerateTokens("user-1", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateTokens error: %v", err)
	}

	if _, err := a.VerifyToken(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestNewJWTAuthRequiresSecret(t *testing.T) {
	if _, err := NewJWTAuth("", time.Hour, time.Hour); err == nil {
		t.Error("empty secret accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse 1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "argon2id$") {
		t.Errorf("hash %q missing argon2id prefix", hash)
	}

	ok, err := VerifyPassword(hash, "correct horse 1")
	if err != nil || !ok {
		t.Errorf("correct password rejected: ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword(hash, "wrong password 2")
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}

	// Same password, different salt, different hash.
	hash2, _ := HashPassword("correct horse 1")
	if hash == hash2 {
		t.Error("two hashes of the same password are identical")
	}

	if _, err := VerifyPassword("not-a-hash", "whatever"); err == nil {
		t.Error("malformed hash accepted")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{password: "abcdef12", wantErr: false},
		{password: "P4ssword", wantErr: false},
		{password: "short1", wantErr: true},
		{password: "onlyletters", wantErr: true},
		{password: "12345678", wantErr: true},
		{password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr && err == nil {
				t.Errorf("ValidatePassword(%q) expected error", tt.password)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidatePassword(%q) unexpected error: %v", tt.password, err)
			}
		})
	}
}
