package services

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testTokenService() TokenService {
	return TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "eduai-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

func TestPasswordHashRoundtrip(t *testing.T) {
	svc := testTokenService()
	hashed, err := svc.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !svc.VerifyPassword("correct horse battery", hashed) {
		t.Fatal("correct password must verify")
	}
	if svc.VerifyPassword("wrong password", hashed) {
		t.Fatal("wrong password must not verify")
	}
}

func TestPasswordHashesAreSalted(t *testing.T) {
	svc := testTokenService()
	first, _ := svc.HashPassword("same input")
	second, _ := svc.HashPassword("same input")
	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyBcryptLegacyHash(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("migrated secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	svc := testTokenService()
	if !svc.VerifyPassword("migrated secret", string(legacy)) {
		t.Fatal("bcrypt hashes from the old stack must still verify")
	}
}

func TestAccessTokenRoundtrip(t *testing.T) {
	svc := testTokenService()
	schoolID := "school-1"
	signed, expiresAt, err := svc.CreateAccessToken("user-1", "t@example.com", "teacher_school", &schoolID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if expiresAt <= time.Now().Unix() {
		t.Fatalf("expiry %d is not in the future", expiresAt)
	}

	token, claims, err := svc.ParseToken(signed)
	if err != nil || !token.Valid {
		t.Fatalf("parse: %v", err)
	}
	if claims["typ"] != "access" || claims["sub"] != "user-1" {
		t.Fatalf("unexpected claims %v", claims)
	}
	if claims["role"] != "teacher_school" || claims["schoolId"] != "school-1" {
		t.Fatalf("role claims missing: %v", claims)
	}
}

func TestAccessTokenWithoutSchool(t *testing.T) {
	svc := testTokenService()
	signed, _, err := svc.CreateAccessToken("user-1", "t@example.com", "teacher_individual", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, claims, err := svc.ParseToken(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := claims["schoolId"]; ok {
		t.Fatal("schoolId claim must be absent for individual accounts")
	}
}

func TestRefreshTokenType(t *testing.T) {
	svc := testTokenService()
	signed, err := svc.CreateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	token, claims, err := svc.ParseToken(signed)
	if err != nil || !token.Valid {
		t.Fatalf("parse: %v", err)
	}
	if claims["typ"] != "refresh" {
		t.Fatalf("expected refresh type, got %v", claims["typ"])
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	svc := testTokenService()
	signed, _, err := svc.CreateAccessToken("user-1", "t@example.com", "teacher", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other := svc
	other.Secret = []byte("different-secret")
	if _, _, err := other.ParseToken(signed); err == nil {
		t.Fatal("a forged signature must not parse")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	other := testTokenService()
	other.Issuer = "someone-else"
	signed, _, err := other.CreateAccessToken("user-1", "t@example.com", "teacher", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	svc := testTokenService()
	if _, _, err := svc.ParseToken(signed); err == nil {
		t.Fatal("tokens from another issuer must be rejected")
	}
}
