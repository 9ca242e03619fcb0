package notify

import "context"

// PrintLoggedNotifier delivers notifications for completed print jobs.
type PrintLoggedNotifier interface {
	Send(ctx context.Context, evt PrintLoggedEvent) error
}

// PrintLoggedEvent mirrors go-notifications OnReadyEvent, but stays in blueprint.
type PrintLoggedEvent struct {
	Recipients       []string
	Channels         []string
	Locale           string
	Token            int64
	UserName         string
	FileName         string
	WidthInches      float64
	HeightInches     float64
	DPI              int
	PaperWidth       int
	PrintedAt        string
	Message          string
	ChannelOverrides map[string]map[string]any
	Attachments      []NotificationAttachment
}

// NotificationAttachment captures file payloads for notifications.
type NotificationAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
	Size        int64
}
