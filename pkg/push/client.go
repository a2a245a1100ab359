package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/miguelserrato/tapiceros-backend/pkg/config"
	"github.com/miguelserrato/tapiceros-backend/pkg/logger"
)

// Notification is the user-visible part of a push message.
type Notification struct {
	Title    string
	Body     string
	ImageURL string
}

// MulticastResult reports per-token delivery outcomes.
type MulticastResult struct {
	SuccessCount int
	FailureCount int
}

// Client wraps Firebase Cloud Messaging. A Client with a nil messenger is the
// unconfigured state: sends become no-ops instead of errors so environments
// without FCM credentials keep working.
type Client struct {
	messenger *messaging.Client
	logg      *logger.Logger
}

// NewClient initializes FCM from the configured credentials. When no
// credentials are configured it returns a usable no-op client.
func NewClient(ctx context.Context, cfg config.FirebaseConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Configured() {
		if logg != nil {
			logg.Warn(ctx, "firebase credentials not configured, push notifications disabled")
		}
		return &Client{logg: logg}, nil
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	} else {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	fbCfg := &firebase.Config{}
	if cfg.ProjectID != "" {
		fbCfg.ProjectID = cfg.ProjectID
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	messenger, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing fcm messenger: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "firebase messaging client initialized")
	}
	return &Client{messenger: messenger, logg: logg}, nil
}

// Configured reports whether the client can actually deliver messages.
func (c *Client) Configured() bool {
	return c != nil && c.messenger != nil
}

// SendToDevice delivers a message to one registration token. Returns the FCM
// message ID, or "" when the client is unconfigured.
func (c *Client) SendToDevice(ctx context.Context, token string, n Notification, data map[string]string) (string, error) {
	if !c.Configured() {
		return "", nil
	}
	if token == "" {
		return "", fmt.Errorf("device token is required")
	}
	return c.messenger.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: toFCM(n),
		Data:         data,
	})
}

// SendToMany delivers a message to up to 500 tokens and reports per-token counts.
func (c *Client) SendToMany(ctx context.Context, tokens []string, n Notification, data map[string]string) (*MulticastResult, error) {
	if !c.Configured() {
		return &MulticastResult{}, nil
	}
	if len(tokens) == 0 {
		return &MulticastResult{}, nil
	}
	resp, err := c.messenger.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: toFCM(n),
		Data:         data,
	})
	if err != nil {
		return nil, err
	}
	return &MulticastResult{SuccessCount: resp.SuccessCount, FailureCount: resp.FailureCount}, nil
}

// SendToTopic publishes a message to every device subscribed to the topic.
func (c *Client) SendToTopic(ctx context.Context, topic string, n Notification, data map[string]string) (string, error) {
	if !c.Configured() {
		return "", nil
	}
	if topic == "" {
		return "", fmt.Errorf("topic is required")
	}
	return c.messenger.Send(ctx, &messaging.Message{
		Topic:        topic,
		Notification: toFCM(n),
		Data:         data,
	})
}

// Subscribe adds the tokens to a topic.
func (c *Client) Subscribe(ctx context.Context, tokens []string, topic string) error {
	if !c.Configured() || len(tokens) == 0 {
		return nil
	}
	_, err := c.messenger.SubscribeToTopic(ctx, tokens, topic)
	return err
}

// Unsubscribe removes the tokens from a topic.
func (c *Client) Unsubscribe(ctx context.Context, tokens []string, topic string) error {
	if !c.Configured() || len(tokens) == 0 {
		return nil
	}
	_, err := c.messenger.UnsubscribeFromTopic(ctx, tokens, topic)
	return err
}

func toFCM(n Notification) *messaging.Notification {
	return &messaging.Notification{
		Title:    n.Title,
		Body:     n.Body,
		ImageURL: n.ImageURL,
	}
}
