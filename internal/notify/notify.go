// Package notify sends Expo push notifications to household members. Pushes
// are best-effort: failures are logged and never propagate to the caller.
package notify

import (
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"go.uber.org/zap"
)

// Notifier fans a notification out to a set of Expo push tokens.
type Notifier interface {
	Push(tokens []string, title, body string, data map[string]string)
}

// ExpoNotifier implements Notifier on the Expo push service.
type ExpoNotifier struct {
	client *expo.PushClient
	logger *zap.Logger
}

// NewExpoNotifier creates a Notifier using the default Expo endpoint.
func NewExpoNotifier(logger *zap.Logger) *ExpoNotifier {
	return &ExpoNotifier{client: expo.NewPushClient(nil), logger: logger}
}

// Push delivers the notification to every valid token. Invalid tokens are
// skipped with a log line.
func (n *ExpoNotifier) Push(tokens []string, title, body string, data map[string]string) {
	pushTokens := make([]expo.ExponentPushToken, 0, len(tokens))
	for _, raw := range tokens {
		token, err := expo.NewExponentPushToken(raw)
		if err != nil {
			n.logger.Warn("invalid expo token, skipping", zap.Error(err))
			continue
		}
		pushTokens = append(pushTokens, token)
	}
	if len(pushTokens) == 0 {
		return
	}

	response, err := n.client.Publish(&expo.PushMessage{
		To:       pushTokens,
		Title:    title,
		Body:     body,
		Sound:    "default",
		Priority: expo.DefaultPriority,
		Data:     data,
	})
	if err != nil {
		n.logger.Error("push publish failed", zap.Error(err))
		return
	}
	if err := response.ValidateResponse(); err != nil {
		n.logger.Error("push rejected by expo", zap.Error(err))
	}
}

// Nop is a Notifier that discards everything. Used in tests and when push is
// not configured.
type Nop struct{}

// Push does nothing.
func (Nop) Push([]string, string, string, map[string]string) {}
