package util

import (
	"strings"
	"testing"
)

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("FITTR_TEST_BOOL", "yes")
	if !ParseBoolEnv("FITTR_TEST_BOOL", false) {
		t.Error("expected 'yes' to parse as true")
	}
	t.Setenv("FITTR_TEST_BOOL", "off")
	if ParseBoolEnv("FITTR_TEST_BOOL", true) {
		t.Error("expected 'off' to parse as false")
	}
	t.Setenv("FITTR_TEST_BOOL", "maybe")
	if !ParseBoolEnv("FITTR_TEST_BOOL", true) {
		t.Error("invalid value should fall back to default")
	}
	if ParseBoolEnv("FITTR_TEST_BOOL_UNSET", false) {
		t.Error("unset variable should fall back to default")
	}
}

func TestParseIntEnv(t *testing.T) {
	t.Setenv("FITTR_TEST_INT", " 42 ")
	if got := ParseIntEnv("FITTR_TEST_INT", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	t.Setenv("FITTR_TEST_INT", "forty-two")
	if got := ParseIntEnv("FITTR_TEST_INT", 7); got != 7 {
		t.Errorf("invalid value should fall back to default, got %d", got)
	}
}

func TestGenerateOTP(t *testing.T) {
	otp := GenerateOTP(6)
	if len(otp) != 6 {
		t.Fatalf("expected 6 digits, got %q", otp)
	}
	for _, c := range otp {
		if c < '0' || c > '9' {
			t.Fatalf("non-digit in OTP: %q", otp)
		}
	}
	if GenerateOTP(0) != "" {
		t.Error("zero length should yield empty OTP")
	}
}

func TestGenerateVerifyToken(t *testing.T) {
	token := GenerateVerifyToken()
	if !strings.HasPrefix(token, "v_") || len(token) != 34 {
		t.Errorf("unexpected token shape: %q", token)
	}
}

func TestGenerateRandomHex(t *testing.T) {
	hex := GenerateRandomHex(16)
	if len(hex) != 16 {
		t.Fatalf("expected 16 chars, got %q", hex)
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("non-hex char in %q", hex)
		}
	}
}
