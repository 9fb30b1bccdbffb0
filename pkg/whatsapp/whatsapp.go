// Package whatsapp sends Twilio content-template messages over the WhatsApp
// channel.
package whatsapp

import (
	"encoding/json"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/ci-events/notify-server/internal/domain/common/errorz"
)

type Client struct {
	rest *twilio.RestClient
	from string
}

func NewClient(accountSID, authToken, fromNumber string) (*Client, error) {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return nil, errorz.MissingCredentials
	}

	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &Client{
		rest: rest,
		from: fromNumber,
	}, nil
}

func (c *Client) From() string {
	return c.from
}

// SendTemplate sends a content template to the given number and returns the
// raw Twilio message resource as JSON for audit logging.
func (c *Client) SendTemplate(to, contentSID string, variables map[string]string) (string, error) {
	if contentSID == "" {
		return "", errorz.MissingTemplate
	}

	vars, err := json.Marshal(variables)
	if err != nil {
		return "", fmt.Errorf("failed to marshal content variables: %w", err)
	}

	params := &api.CreateMessageParams{}
	params.SetFrom(fmt.Sprintf("whatsapp:%s", c.from))
	params.SetTo(to)
	params.SetContentSid(contentSID)
	params.SetContentVariables(string(vars))

	message, err := c.rest.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("failed to send whatsapp template: %w", err)
	}

	receipt, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("failed to marshal twilio result: %w", err)
	}
	return string(receipt), nil
}
