package bot

import (
	"context"
	"time"

	"agendabot/internal/agenda"
	appLog "agendabot/internal/log"
)

// dailyPost runs on the configured post schedule. Mondays get the 7-day
// week view, every other day the single-day view. Failures are logged and
// swallowed; the next scheduled run is unaffected.
func (b *Bot) dailyPost() {
	now := time.Now().In(b.svc.Location())

	var q scheduleQuery
	if now.Weekday() == time.Monday {
		q = scheduleQuery{agenda.DaysFrom(now, 7), "pour cette semaine"}
	} else {
		q = scheduleQuery{agenda.SingleDay(now), "pour aujourd'hui"}
	}

	occs, err := b.svc.Filter(q.dateRange)
	if err != nil {
		appLog.Error("daily post query failed", err, "label", q.label)
		return
	}
	embed := scheduleEmbed(agenda.Format(occs, q.label))

	for _, channelID := range b.cfg.Discord.Channels {
		if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
			appLog.Error("daily post delivery failed", err, "channel", channelID)
			continue
		}
		appLog.Info("daily post sent", "channel", channelID, "label", q.label)
	}
}

// refreshFeed re-downloads the calendar feed. A failed fetch leaves the
// store stale; queries keep serving the previous blob.
func (b *Bot) refreshFeed() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := b.fetcher.Fetch(ctx, b.cfg.Calendar.URL); err != nil {
		appLog.Error("scheduled feed refresh failed", err)
	}
}
