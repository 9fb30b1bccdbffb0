// Package push wraps Firebase Cloud Messaging behind a result discriminator:
// Send never returns an error, it reports success or failure in the Result
// so callers can collect outcomes without fail-fast joins.
package push

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/ci-events/notify-server/internal/domain/common/errorz"
)

type Client struct {
	messaging *messaging.Client
}

// NewClient initializes an FCM client from a base64-encoded service account
// key, as the key is delivered through the environment.
func NewClient(ctx context.Context, serviceAccountKeyBase64 string) (*Client, error) {
	if serviceAccountKeyBase64 == "" {
		return nil, errorz.MissingCredentials
	}

	serviceAccount, err := base64.StdEncoding.DecodeString(serviceAccountKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode service account key: %w", err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(serviceAccount))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	return &Client{messaging: client}, nil
}

type Message struct {
	Token     string
	Title     string
	Body      string
	URL       string
	EventID   string
	RequestID string
	Badge     int64
}

type Result struct {
	Success   bool
	MessageID string
	Err       error
}

func (c *Client) Send(ctx context.Context, msg Message) Result {
	message := &messaging.Message{
		Token: msg.Token,
		Data: map[string]string{
			"title":        msg.Title,
			"body":         msg.Body,
			"url":          msg.URL,
			"eventId":      msg.EventID,
			"requestId":    msg.RequestID,
			"click_action": msg.URL,
			"badge":        strconv.FormatInt(msg.Badge, 10),
		},
		Webpush: &messaging.WebpushConfig{
			Headers: map[string]string{
				"link": msg.URL,
			},
			FCMOptions: &messaging.WebpushFCMOptions{
				Link: msg.URL,
			},
		},
	}

	id, err := c.messaging.Send(ctx, message)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Success: true, MessageID: id}
}
