package gonotifications

import (
	"context"
	"fmt"
	"strconv"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	"github.com/HMC-Makerspace/BLUEPRINT/blueprint/notify"
	"github.com/goliatone/go-notifications/pkg/onready"
)

// Notifier adapts go-notifications OnReadyNotifier to blueprint.
type Notifier struct {
	delegate onready.OnReadyNotifier
}

// NewNotifier wraps a go-notifications notifier.
func NewNotifier(delegate onready.OnReadyNotifier) *Notifier {
	return &Notifier{delegate: delegate}
}

// Send forwards the event to the underlying go-notifications notifier.
// Physical prints have no download URL, so the size and fidelity details
// travel in the message body.
func (n *Notifier) Send(ctx context.Context, evt notify.PrintLoggedEvent) error {
	if n == nil || n.delegate == nil {
		return blueprint.NewError(blueprint.KindNotImpl, "go-notifications notifier not configured", nil)
	}

	message := evt.Message
	if message == "" {
		message = defaultMessage(evt)
	}

	payload := onready.OnReadyEvent{
		Recipients:       evt.Recipients,
		Locale:           evt.Locale,
		ActorID:          strconv.FormatInt(evt.Token, 10),
		Channels:         evt.Channels,
		FileName:         evt.FileName,
		Format:           "print",
		Message:          message,
		ChannelOverrides: evt.ChannelOverrides,
	}

	return n.delegate.Send(ctx, payload)
}

func defaultMessage(evt notify.PrintLoggedEvent) string {
	who := evt.UserName
	if who == "" {
		who = "Badge " + strconv.FormatInt(evt.Token, 10)
	}
	return fmt.Sprintf("%s printed %s: %.1f x %.1f in at %d DPI on the %d in. roll at %s",
		who, evt.FileName, evt.WidthInches, evt.HeightInches, evt.DPI, evt.PaperWidth, evt.PrintedAt)
}
