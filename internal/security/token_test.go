package security

import (
	"testing"
	"time"
)

func TestGenerateJWT(t *testing.T) {
	tests := []struct {
		name     string
		userID   uint
		username string
	}{
		{
			name:     "Regular user",
			userID:   1,
			username: "warlord",
		},
		{
			name:     "Another user",
			userID:   2,
			username: "defender_01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateJWT(tt.userID, tt.username, "test_secret_key_minimum_32_chars")
			if err != nil {
				t.Fatalf("GenerateJWT() error = %v", err)
			}

			if token == "" {
				t.Error("GenerateJWT() returned empty token")
			}

			claims, err := ValidateJWT(token, "test_secret_key_minimum_32_chars")
			if err != nil {
				t.Fatalf("ValidateJWT() error = %v", err)
			}

			if claims.UserID != tt.userID {
				t.Errorf("UserID = %d, want %d", claims.UserID, tt.userID)
			}

			if claims.Username != tt.username {
				t.Errorf("Username = %q, want %q", claims.Username, tt.username)
			}
		})
	}
}

func TestValidateJWT_InvalidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "Empty token",
			token: "",
		},
		{
			name:  "Invalid format",
			token: "invalid.token.here",
		},
		{
			name:  "Random string",
			token: "randomstring",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateJWT(tt.token, "test_secret_key_minimum_32_chars")
			if err == nil {
				t.Error("ValidateJWT() expected error for invalid token, got nil")
			}
		})
	}
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT(1, "warlord", "test_secret_key_minimum_32_chars")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	_, err = ValidateJWT(token, "a_completely_different_secret_key_32")
	if err == nil {
		t.Error("ValidateJWT() expected error for wrong secret, got nil")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	userID := uint(42)
	username := "rebel_leader"

	token, err := GenerateJWT(userID, username, "test_secret_key_minimum_32_chars")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	claims, err := ValidateJWT(token, "test_secret_key_minimum_32_chars")
	if err != nil {
		t.Fatalf("ValidateJWT() error = %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("UserID = %d, want %d", claims.UserID, userID)
	}

	if claims.ExpiresAt.Time.Before(time.Now()) {
		t.Error("Token already expired")
	}

	expectedExpiry := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt.Time.After(expectedExpiry.Add(time.Minute)) {
		t.Error("Token expiration is too far in the future")
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Plain terms pass through",
			input: "Leader becomes general, no exiles",
			want:  "Leader becomes general, no exiles",
		},
		{
			name:  "Markup stripped",
			input: "<script>alert(1)</script>peace",
			want:  "peace",
		},
		{
			name:  "Whitespace trimmed",
			input: "  surrender terms  ",
			want:  "surrender terms",
		},
		{
			name:  "NUL bytes removed",
			input: "terms\x00here",
			want:  "termshere",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeText_LengthCap(t *testing.T) {
	long := make([]byte, maxFreeFormLength+500)
	for i := range long {
		long[i] = 'a'
	}

	got := SanitizeText(string(long))
	if len(got) != maxFreeFormLength {
		t.Errorf("SanitizeText() length = %d, want %d", len(got), maxFreeFormLength)
	}
}
