package payment

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func signSHA256(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func signMD5(payload []byte, secret string) string {
	mac := hmac.New(md5.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignatureSHA256(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment.confirmed"}`)
	secret := "whsec_test"

	if !VerifyWebhookSignature(payload, signSHA256(payload, secret), secret) {
		t.Fatal("valid sha256 signature rejected")
	}
	if !VerifyWebhookSignature(payload, strings.ToUpper(signSHA256(payload, secret)), secret) {
		t.Fatal("uppercase hex signature rejected")
	}
	if VerifyWebhookSignature(payload, signSHA256(payload, "wrong"), secret) {
		t.Fatal("signature with wrong secret accepted")
	}
	if VerifyWebhookSignature([]byte(`{"tampered":true}`), signSHA256(payload, secret), secret) {
		t.Fatal("tampered payload accepted")
	}
}

func TestVerifyWebhookSignatureMD5Fallback(t *testing.T) {
	payload := []byte(`{"id":"evt_2"}`)
	secret := "whsec_legacy"

	if !VerifyWebhookSignature(payload, signMD5(payload, secret), secret) {
		t.Fatal("legacy md5 signature rejected")
	}
}

func TestVerifyWebhookSignatureRejectsGarbage(t *testing.T) {
	payload := []byte(`{}`)
	cases := []struct {
		name      string
		signature string
		secret    string
	}{
		{"empty signature", "", "secret"},
		{"empty secret", signSHA256(payload, "secret"), ""},
		{"not hex", "zz-not-hex", "secret"},
		{"whitespace only", "   ", "secret"},
	}
	for _, tc := range cases {
		if VerifyWebhookSignature(payload, tc.signature, tc.secret) {
			t.Fatalf("%s: accepted", tc.name)
		}
	}
}
