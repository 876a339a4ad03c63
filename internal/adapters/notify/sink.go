package notify

import (
	"context"

	"github.com/okian/greenhorn/internal/domain/model"
	"github.com/okian/greenhorn/pkg/logger"
	"github.com/okian/greenhorn/pkg/metrics"
)

// Delivery channels reported in logs and metrics.
const (
	ChannelMailbox = "mailbox"
	ChannelConsole = "console"
)

// Sink receives crossings and tells the affected player about them.
type Sink interface {
	Notify(ctx context.Context, c model.Crossing)
}

// Router delivers warnings through the mailbox when the player is online and
// falls back to the console log otherwise.
type Router struct {
	mailbox *Mailbox
	logger  logger.Logger
}

// NewRouter creates a Router. A nil mailbox sends everything to the console.
func NewRouter(mailbox *Mailbox, l logger.Logger) *Router {
	if l == nil {
		l = logger.Get().Named("notify")
	}
	return &Router{mailbox: mailbox, logger: l}
}

// Notify renders c and delivers it.
func (r *Router) Notify(ctx context.Context, c model.Crossing) {
	w := model.WarningFor(c)

	if r.mailbox != nil && r.mailbox.Deliver(w) {
		metrics.RecordNotification(ChannelMailbox)
		r.logger.Debug(ctx, "warning queued for player",
			logger.String("player", string(c.PlayerID)),
			logger.String("warning_id", w.ID),
		)
		return
	}

	metrics.RecordNotification(ChannelConsole)
	r.logger.Warn(ctx, "player not connected; warning logged to console",
		logger.String("player", string(c.PlayerID)),
		logger.Int("level", c.Level),
		logger.Int("threshold", c.Threshold),
		logger.String("text", w.Text),
	)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, c model.Crossing)

// Notify calls f.
func (f SinkFunc) Notify(ctx context.Context, c model.Crossing) { f(ctx, c) }
