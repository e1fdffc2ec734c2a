package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"type":"user.created"}`)

	if err := VerifyWebhookSignature("whsec", body, sign("whsec", body)); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
	if err := VerifyWebhookSignature("whsec", body, sign("other", body)); !errors.Is(err, ErrBadSignature) {
		t.Errorf("wrong signature: err = %v, want ErrBadSignature", err)
	}
	if err := VerifyWebhookSignature("", body, ""); err != nil {
		t.Errorf("empty secret should skip verification, got %v", err)
	}
}

func TestParseWebhookEvent(t *testing.T) {
	body := []byte(`{
		"type": "user.created",
		"data": {
			"id": "user_1",
			"first_name": "Ada",
			"last_name": "Lovelace",
			"image_url": "https://img.example/ada.png",
			"primary_email_address_id": "em_1",
			"email_addresses": [{"id": "em_1", "email_address": "ada@example.com"}]
		}
	}`)

	event, err := ParseWebhookEvent(body)
	if err != nil {
		t.Fatalf("ParseWebhookEvent: %v", err)
	}
	if event.Type != EventUserCreated {
		t.Errorf("type = %q", event.Type)
	}
	if event.User.ID != "user_1" || event.User.Email != "ada@example.com" {
		t.Errorf("user = %+v", event.User)
	}
}

func TestParseWebhookEvent_Invalid(t *testing.T) {
	for _, body := range []string{"not json", `{"type":"user.created"}`, `{"data":{"id":"user_1"}}`} {
		if _, err := ParseWebhookEvent([]byte(body)); err == nil {
			t.Errorf("expected error for %q", body)
		}
	}
}
