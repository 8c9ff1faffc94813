package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
	"git.home.luguber.info/inful/presencewatch/internal/logfields"
	"git.home.luguber.info/inful/presencewatch/internal/metrics"
	"git.home.luguber.info/inful/presencewatch/internal/record"
	"git.home.luguber.info/inful/presencewatch/internal/snapshot"
)

// Summary reports one detect-and-notify pass.
type Summary struct {
	Transitions []Transition
	Sent        int
	Failed      int
}

// Notifier fans alerts out to every sender. It keeps no state between calls.
type Notifier struct {
	senders   []Sender
	formatter *Formatter
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

func WithFormatter(f *Formatter) Option { return func(n *Notifier) { n.formatter = f } }

func WithRecorder(r metrics.Recorder) Option { return func(n *Notifier) { n.recorder = r } }

func WithLogger(l *slog.Logger) Option { return func(n *Notifier) { n.logger = l } }

// NewNotifier creates a notifier. No senders is valid; detection still runs.
func NewNotifier(senders []Sender, opts ...Option) *Notifier {
	n := &Notifier{senders: senders}
	for _, opt := range opts {
		opt(n)
	}
	if n.formatter == nil {
		n.formatter = NewFormatter(nil)
	}
	n.recorder = metrics.OrNoop(n.recorder)
	if n.logger == nil {
		n.logger = slog.Default()
	}
	return n
}

// DetectAndNotify detects transitions and delivers one alert per transition to every
// sender. Delivery failures are logged and counted; they never stop the pass.
func (n *Notifier) DetectAndNotify(ctx context.Context, current []*record.Record, previous snapshot.Snapshot) Summary {
	summary := Summary{Transitions: Detect(current, previous)}

	for _, t := range summary.Transitions {
		n.recorder.IncTransition(t.Previous, t.Current)
		alert := n.formatter.Format(t)
		n.logger.Info("Presence changed",
			logfields.Identity(t.Identity),
			slog.String("name", alert.DisplayName),
			logfields.PreviousState(t.Previous),
			logfields.State(t.Current))

		for _, s := range n.senders {
			if err := s.Send(ctx, alert); err != nil {
				summary.Failed++
				result := metrics.ResultFailed
				if errors.Is(err, context.Canceled) {
					result = metrics.ResultCanceled
				}
				n.recorder.IncNotification(s.Name(), result)
				derr := ferrors.NotifyError("notification delivery failed").
					WithCause(err).
					WithContext("sender", s.Name()).
					WithContext("identity", t.Identity).
					Build()
				n.logger.Warn(derr.Message(), logfields.Sender(s.Name()), logfields.Identity(t.Identity), logfields.Error(err))
				continue
			}
			summary.Sent++
			n.recorder.IncNotification(s.Name(), metrics.ResultSuccess)
		}
	}
	return summary
}

// BuildSenders creates the senders enabled in cfg. The returned closers release
// connections held by senders and must be closed by the caller.
func BuildSenders(cfg config.NotifyConfig, client *http.Client) ([]Sender, []io.Closer, error) {
	var (
		senders []Sender
		closers []io.Closer
	)
	if cfg.Webhook != nil {
		senders = append(senders, NewWebhookSender(*cfg.Webhook, client))
	}
	if cfg.Telegram != nil {
		tg, err := NewTelegramSender(*cfg.Telegram)
		if err != nil {
			return nil, nil, ferrors.ConfigError("invalid telegram configuration").
				WithCause(err).WithContext("item", "notify.telegram").Build()
		}
		senders = append(senders, tg)
	}
	if cfg.NATS != nil {
		ns, err := NewNATSSender(*cfg.NATS)
		if err != nil {
			closeAll(closers)
			return nil, nil, ferrors.NetworkError("failed to connect to NATS").
				WithCause(err).WithContext("endpoint", cfg.NATS.URL).Build()
		}
		senders = append(senders, ns)
		closers = append(closers, ns)
	}
	return senders, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
