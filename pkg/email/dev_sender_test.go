package email_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodswim/backend/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{
		SendTo:   "owner@club.test",
		Subject:  "Your trial ends soon",
		BodyHTML: "<p>hi</p>",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*email.SendEmailParams)
	}{
		{name: "missing recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "" }},
		{name: "malformed recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "not-an-email" }},
		{name: "missing subject", mutate: func(p *email.SendEmailParams) { p.Subject = "" }},
		{name: "missing body", mutate: func(p *email.SendEmailParams) { p.BodyHTML = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			params := valid
			tt.mutate(&params)
			assert.ErrorIs(t, params.Validate(), email.ErrInvalidParams)
		})
	}
}

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(filepath.Join(dir, "outbox"))

	err := sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "owner@club.test",
		Subject:  "Your trial ends soon",
		BodyHTML: "<p>pick a plan</p>",
		Tag:      "trial-reminder",
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "outbox"))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var sawHTML, sawJSON bool
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".html"):
			sawHTML = true
			assert.Contains(t, e.Name(), "trial-reminder")
			raw, err := os.ReadFile(filepath.Join(dir, "outbox", e.Name()))
			require.NoError(t, err)
			assert.Equal(t, "<p>pick a plan</p>", string(raw))
		case strings.HasSuffix(e.Name(), ".json"):
			sawJSON = true
		}
	}
	assert.True(t, sawHTML)
	assert.True(t, sawJSON)
}

func TestNewPostmarkClient_Validation(t *testing.T) {
	t.Parallel()

	valid := email.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "noreply@goodswim.io",
		SupportEmail:         "support@goodswim.io",
	}

	_, err := email.NewPostmarkClient(valid)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*email.Config)
	}{
		{name: "missing server token", mutate: func(c *email.Config) { c.PostmarkServerToken = "" }},
		{name: "missing account token", mutate: func(c *email.Config) { c.PostmarkAccountToken = "" }},
		{name: "missing sender", mutate: func(c *email.Config) { c.SenderEmail = "" }},
		{name: "malformed sender", mutate: func(c *email.Config) { c.SenderEmail = "nope" }},
		{name: "missing support", mutate: func(c *email.Config) { c.SupportEmail = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			_, err := email.NewPostmarkClient(cfg)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
		})
	}
}
