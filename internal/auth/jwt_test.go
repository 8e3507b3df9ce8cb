package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/mmynk/relateos/internal/models"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Email: "alice@example.com", DisplayName: "Alice"}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "alice@example.com" || claims.Name != "Alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	user := &models.User{ID: "user-1"}

	expired, err := NewJWTManager("secret", -time.Minute).Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	otherKey, err := NewJWTManager("other-secret", time.Hour).Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	m := NewJWTManager("secret", time.Hour)
	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"wrong key", otherKey, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Validate(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
