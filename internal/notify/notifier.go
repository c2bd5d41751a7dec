// Package notify delivers operator alerts over Telegram and Discord.
// Arbitrage hits are the main event; grading and calibration summaries can
// be enabled per channel through the event filter.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shataken-source/progno/internal/domain"
)

// Event types the notifier understands.
const (
	EventArbitrage   = "arbitrage"
	EventGrading     = "grading"
	EventCalibration = "calibration"
)

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans a notification out to every registered sender. An allowed
// event set filters which events are forwarded; an empty set allows all.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends to all senders if the event type passes the filter.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// NotifyOpportunities formats and sends an alert for a batch of arbitrage
// hits. A failing channel does not block the others.
func (n *Notifier) NotifyOpportunities(ctx context.Context, opps []domain.ArbitrageOpportunity) error {
	if len(opps) == 0 {
		return nil
	}
	title := fmt.Sprintf("%d arbitrage opportunities", len(opps))
	if len(opps) == 1 {
		title = "Arbitrage opportunity"
	}

	var b strings.Builder
	for i, opp := range opps {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatOpportunity(opp))
	}
	return n.Notify(ctx, EventArbitrage, title, b.String())
}

func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// FormatOpportunity renders one opportunity as a compact multi-line message.
func FormatOpportunity(opp domain.ArbitrageOpportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %.2f%% profit, $%.2f on $%.0f\n",
		opp.GameID, opp.Market, opp.ProfitPct, opp.GuaranteedProfit, opp.TotalStake)
	for _, leg := range opp.Legs {
		fmt.Fprintf(&b, "  %s: %s %+.0f, stake $%.2f\n",
			leg.Bookmaker, leg.Side, leg.Price, leg.Stake)
	}
	fmt.Fprintf(&b, "  confidence %.0f%%", opp.Confidence*100)
	return b.String()
}
