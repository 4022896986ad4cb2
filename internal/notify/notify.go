package notify

import (
	"context"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"
)

// OrderUpdate is pushed to the buyer's channel when an order reaches a
// terminal state, so the frontend can stop polling the session status.
type OrderUpdate struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type Notifier interface {
	NotifyOrderUpdate(ctx context.Context, userID string, update OrderUpdate) error
}

// PubNubNotifier publishes order updates over PubNub, one channel per user.
type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(publishKey, subscribeKey, userID string) *PubNubNotifier {
	config := pubnub.NewConfigWithUserId(pubnub.UserId(userID))
	config.PublishKey = publishKey
	config.SubscribeKey = subscribeKey

	return &PubNubNotifier{pn: pubnub.NewPubNub(config)}
}

func (n *PubNubNotifier) NotifyOrderUpdate(ctx context.Context, userID string, update OrderUpdate) error {
	channel := "order-updates." + userID

	_, status, err := n.pn.PublishWithContext(ctx).
		Channel(channel).
		Message(update).
		Execute()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	if status.Error != nil {
		return fmt.Errorf("publish to %s: status %d: %w", channel, status.StatusCode, status.Error)
	}

	slog.Debug("published order update",
		"channel", channel,
		"order_id", update.OrderID,
		"status", update.Status,
	)
	return nil
}

// NopNotifier drops updates. Used in tests and when realtime keys are not
// configured.
type NopNotifier struct{}

func (NopNotifier) NotifyOrderUpdate(ctx context.Context, userID string, update OrderUpdate) error {
	return nil
}
