package transfer

import (
	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/jgesser/mobilecloud-15/internal/entities"
)

// Update is one state change of a transfer. Message is the human-readable
// status string shown as the progress indicator.
type Update struct {
	TransferID string
	Kind       entities.TransferKind
	VideoID    int64
	State      entities.TransferState
	Message    string
	Bytes      int64
	Err        error
}

// Notifier receives every Update of a transfer, in order.
type Notifier interface {
	Notify(u Update)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(u Update)

func (f NotifierFunc) Notify(u Update) { f(u) }

// Notifiers fans an Update out to each notifier in turn.
type Notifiers []Notifier

func (n Notifiers) Notify(u Update) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Notify(u)
		}
	}
}

// LogNotifier writes updates to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(u Update) {
	entry := log.WithFields(log.Fields{
		"transfer": u.TransferID,
		"kind":     u.Kind,
		"video":    u.VideoID,
		"state":    u.State,
	})
	if u.Bytes > 0 {
		entry = entry.WithField("size", humanize.Bytes(uint64(u.Bytes)))
	}

	switch {
	case u.State == entities.TransferStateFailed:
		entry.WithError(u.Err).Warn(u.Message)
	case u.State == entities.TransferStateInProgress:
		entry.Debug(u.Message)
	default:
		entry.Info(u.Message)
	}
}

func startedMessage(kind entities.TransferKind) string {
	if kind == entities.TransferKindUpload {
		return "Upload in progress"
	}
	return "Download in progress"
}

func progressMessage(kind entities.TransferKind, n int64) string {
	verb := "downloaded"
	if kind == entities.TransferKindUpload {
		verb = "uploaded"
	}
	return humanize.Bytes(uint64(n)) + " " + verb
}

func finishedMessage(kind entities.TransferKind, succeeded bool) string {
	switch {
	case kind == entities.TransferKindUpload && succeeded:
		return "Upload complete"
	case kind == entities.TransferKindUpload:
		return "Upload failed"
	case succeeded:
		return "Download complete"
	default:
		return "Download failed"
	}
}
