package auth_test

import (
	"testing"
	"time"

	"github.com/zahrat-boutique/api/internal/auth"
	"github.com/zahrat-boutique/api/internal/enum"
	"github.com/zahrat-boutique/api/internal/model"
)

func staffActor() auth.Actor {
	return auth.StaffActor{User: model.User{
		ID:        "u-001",
		Name:      "Fatma",
		Username:  "fatma",
		Pin:       "4321",
		Role:      enum.RoleStaff,
		CreatedAt: time.Now(),
	}}
}

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"

	token, err := auth.GenerateToken(secret, staffActor())
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.ActorID != "u-001" {
		t.Errorf("actor ID: got %v, want u-001", claims.ActorID)
	}
	if claims.Role != enum.RoleStaff {
		t.Errorf("role: got %v, want %v", claims.Role, enum.RoleStaff)
	}
	if claims.Phone != "" {
		t.Errorf("staff claims should not carry a phone, got %q", claims.Phone)
	}
}

func TestCustomerTokenCarriesPhone(t *testing.T) {
	actor := auth.CustomerActor{
		CustomerName: "Aisha",
		Phone:        "96890000",
		Pin:          "9876",
		FirstOrderAt: time.Now(),
	}

	token, err := auth.GenerateToken("secret", actor)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := auth.ValidateToken("secret", token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.ActorID != "cust-96890000" {
		t.Errorf("actor ID: got %v, want cust-96890000", claims.ActorID)
	}
	if claims.Phone != "96890000" {
		t.Errorf("phone: got %v, want 96890000", claims.Phone)
	}
	if claims.Role != enum.RoleCustomer {
		t.Errorf("role: got %v, want customer", claims.Role)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken("secret-a", staffActor())
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := auth.ValidateToken("secret-b", token); err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	if _, err := auth.ValidateToken("secret", "not-a-jwt"); err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}
