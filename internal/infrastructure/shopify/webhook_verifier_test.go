package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerify(t *testing.T) {
	verifier := NewWebhookVerifier("hush")
	payload := []byte(`{"id":1,"email":"jonsnow@example.com"}`)

	require.NoError(t, verifier.Verify(payload, sign("hush", payload)))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	verifier := NewWebhookVerifier("hush")
	payload := []byte(`{"id":1}`)

	require.Error(t, verifier.Verify(payload, sign("other", payload)))
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	verifier := NewWebhookVerifier("hush")
	signature := sign("hush", []byte(`{"id":1}`))

	require.Error(t, verifier.Verify([]byte(`{"id":2}`), signature))
}

func TestVerifyRejectsMissingHeader(t *testing.T) {
	verifier := NewWebhookVerifier("hush")
	require.Error(t, verifier.Verify([]byte(`{}`), ""))
}
