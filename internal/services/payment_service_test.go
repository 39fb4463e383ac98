package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"
)

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhook(t *testing.T) {
	s := &PaymentService{webhookSecret: "whsec_test"}
	payload := []byte(`{"type":"subscription.active"}`)

	if err := s.VerifyWebhook(payload, signPayload("whsec_test", payload)); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
	if err := s.VerifyWebhook(payload, signPayload("wrong_secret", payload)); err == nil {
		t.Error("signature from wrong secret accepted")
	}
	if err := s.VerifyWebhook(payload, "deadbeef"); err == nil {
		t.Error("garbage signature accepted")
	}

	empty := &PaymentService{}
	if err := empty.VerifyWebhook(payload, signPayload("", payload)); err == nil {
		t.Error("verification succeeded with no secret configured")
	}
}

func TestVerifyAndParseWebhook_HMACFallback(t *testing.T) {
	s := &PaymentService{webhookSecret: "whsec_test"}
	payload := []byte(`{"id":"sub_123","type":"subscription.cancelled","data":{"subscription_id":"sub_123","customer_id":"cus_9"}}`)

	headers := make(http.Header)
	headers.Set("Webhook-Signature", signPayload("whsec_test", payload))

	event, err := s.VerifyAndParseWebhook(payload, headers)
	if err != nil {
		t.Fatalf("VerifyAndParseWebhook error: %v", err)
	}
	if event.Type != "subscription.cancelled" {
		t.Errorf("event type = %q, want subscription.cancelled", event.Type)
	}
	if got, _ := event.Data["customer_id"].(string); got != "cus_9" {
		t.Errorf("customer_id = %q, want cus_9", got)
	}
}

func TestVerifyAndParseWebhook_MissingSignature(t *testing.T) {
	s := &PaymentService{webhookSecret: "whsec_test"}
	if _, err := s.VerifyAndParseWebhook([]byte(`{}`), make(http.Header)); err == nil {
		t.Error("request without signature header accepted")
	}
}

func TestVerifyAndParseWebhook_MalformedPayload(t *testing.T) {
	s := &PaymentService{webhookSecret: "whsec_test"}
	payload := []byte(`not json`)

	headers := make(http.Header)
	headers.Set("Webhook-Signature", signPayload("whsec_test", payload))

	if _, err := s.VerifyAndParseWebhook(payload, headers); err == nil {
		t.Error("malformed payload accepted")
	}
}
