package telegram

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/flemzord/tgflow/pkg/workflow"
)

// CredentialName is the type name of the bot-token credential.
const CredentialName = "telegramApi"

// Credential is the telegramApi credential type.
type Credential struct{}

// Description implements workflow.CredentialType.
func (Credential) Description() workflow.CredentialDescription {
	return workflow.CredentialDescription{
		Name:        CredentialName,
		DisplayName: "Telegram API",
		Properties: []workflow.NodeProperty{
			{
				DisplayName: "Access Token",
				Name:        "accessToken",
				Type:        workflow.PropertyString,
				Default:     "",
				Required:    true,
				Password:    true,
				Description: "Chat with the bot father to obtain the access token",
			},
		},
		Test: workflow.CredentialTestRequest{
			BaseURL: DefaultAPIURL,
			URL:     "/bot{{accessToken}}/getMe",
		},
	}
}

// Authenticate sets the bearer header used by the credential test.
func (Credential) Authenticate(creds workflow.Credentials, req *http.Request) error {
	token, err := accessToken(creds)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Test verifies the token with getMe.
func (c Credential) Test(ctx context.Context, client *http.Client, creds workflow.Credentials) error {
	token, err := accessToken(creds)
	if err != nil {
		return err
	}
	tg := NewClient(token, DefaultAPIURL, &http.Client{
		Transport: authTransport{creds: creds, cred: c, base: transportOf(client)},
		Timeout:   timeoutOf(client),
	})
	_, err = tg.GetMe(ctx)
	return err
}

// authTransport applies Credential.Authenticate to every outgoing request.
type authTransport struct {
	creds workflow.Credentials
	cred  Credential
	base  http.RoundTripper
}

func (t authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if err := t.cred.Authenticate(t.creds, req); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

func transportOf(c *http.Client) http.RoundTripper {
	if c == nil || c.Transport == nil {
		return http.DefaultTransport
	}
	return c.Transport
}

func timeoutOf(c *http.Client) time.Duration {
	if c == nil {
		return 0
	}
	return c.Timeout
}

func accessToken(creds workflow.Credentials) (string, error) {
	token := creds.Get("accessToken")
	if strings.TrimSpace(token) == "" {
		return "", &workflow.ConfigurationError{Reason: "telegramApi credential has no accessToken"}
	}
	return token, nil
}

// clientFor builds a client from the node's current credential. The token
// is read on every call and never cached.
func clientFor(ctx context.Context, nc workflow.NodeContext) (*Client, error) {
	creds, err := nc.Credentials(ctx, CredentialName)
	if err != nil {
		return nil, err
	}
	token, err := accessToken(creds)
	if err != nil {
		return nil, err
	}
	return NewClient(token, DefaultAPIURL, nc.HTTPClient()), nil
}
