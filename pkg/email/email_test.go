package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepdeck/prepdeck/pkg/email"
)

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		msg     email.Message
		wantErr bool
	}{
		{"valid", email.Message{To: "a@example.com", Subject: "Hi", HTMLBody: "<p>x</p>"}, false},
		{"bad recipient", email.Message{To: "nope", Subject: "Hi", HTMLBody: "<p>x</p>"}, true},
		{"empty subject", email.Message{To: "a@example.com", Subject: " ", HTMLBody: "<p>x</p>"}, true},
		{"empty body", email.Message{To: "a@example.com", Subject: "Hi"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, email.ErrInvalidMessage)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPostmarkSender(t *testing.T) {
	t.Parallel()

	valid := email.Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "billing@prepdeck.io",
		SupportEmail:         "support@prepdeck.io",
	}
	s, err := email.NewPostmarkSender(valid)
	require.NoError(t, err)
	assert.NotNil(t, s)

	noToken := valid
	noToken.PostmarkAccountToken = ""
	_, err = email.NewPostmarkSender(noToken)
	require.ErrorIs(t, err, email.ErrInvalidConfig)

	badSender := valid
	badSender.SenderEmail = "billing"
	_, err = email.NewPostmarkSender(badSender)
	require.ErrorIs(t, err, email.ErrInvalidConfig)
}

func TestNewPicksDevSenderWithoutTokens(t *testing.T) {
	t.Parallel()

	s, err := email.New(email.Config{SenderEmail: "a@example.com", SupportEmail: "b@example.com", DevDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &email.DevSender{}, s)
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := email.NewDevSender(dir)

	msg := email.Message{To: "user@example.com", Subject: "Payment failed", HTMLBody: "<p>update card</p>", Tag: "payment-failed"}
	require.NoError(t, s.Send(context.Background(), msg))

	files, err := filepath.Glob(filepath.Join(dir, "*_payment-failed.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "user@example.com", got["to"])
	assert.Equal(t, "<p>update card</p>", got["html_body"])

	err = s.Send(context.Background(), email.Message{To: "x"})
	require.ErrorIs(t, err, email.ErrInvalidMessage)
}
