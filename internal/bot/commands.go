package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"agendabot/internal/agenda"
	appLog "agendabot/internal/log"
)

var commandDefinitions = []*discordgo.ApplicationCommand{
	{Name: "ping", Description: "Affiche la latence du bot."},
	{Name: "today", Description: "Affiche les cours d'aujourd'hui."},
	{Name: "tomorrow", Description: "Affiche les cours de demain."},
	{Name: "3days", Description: "Affiche les cours des 3 prochains jours."},
	{Name: "week", Description: "Affiche les cours de la semaine."},
}

const (
	replyFeedUnavailable = "Le calendrier n'est pas disponible pour le moment. 😕"
	replyQueryFailed     = "Une erreur est survenue lors du traitement de la demande. 😕"
)

// scheduleQuery is a resolved schedule request: a date range plus the
// human-readable label that ends up in the rendered title.
type scheduleQuery struct {
	dateRange agenda.DateRange
	label     string
}

// resolveQuery maps a command name to its range and label relative to now.
// The second return is false for commands that are not schedule queries.
func resolveQuery(name string, now time.Time) (scheduleQuery, bool) {
	switch name {
	case "today":
		return scheduleQuery{agenda.SingleDay(now), "pour aujourd'hui"}, true
	case "tomorrow":
		return scheduleQuery{agenda.SingleDay(now.AddDate(0, 0, 1)), "pour demain"}, true
	case "3days":
		return scheduleQuery{agenda.DaysFrom(now, 3), "pour les 3 prochains jours"}, true
	case "week":
		return scheduleQuery{agenda.DaysFrom(now, 7), "pour cette semaine"}, true
	default:
		return scheduleQuery{}, false
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name
	appLog.Info("command received", "command", name, "channel", i.ChannelID)

	if name == "ping" {
		b.handlePing(s, i)
		return
	}

	q, ok := resolveQuery(name, time.Now().In(b.svc.Location()))
	if !ok {
		return
	}
	b.handleSchedule(s, i, q)
}

func (b *Bot) handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	latency := s.HeartbeatLatency().Milliseconds()
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("Pong! (%dms)", latency),
		},
	})
	if err != nil {
		appLog.Error("ping reply failed", err, "channel", i.ChannelID)
	}
}

// handleSchedule acknowledges the interaction before running the query so
// the 3-second interaction deadline cannot expire, then edits the deferred
// reply with either the schedule or an explicit error message.
func (b *Bot) handleSchedule(s *discordgo.Session, i *discordgo.InteractionCreate, q scheduleQuery) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		appLog.Error("interaction defer failed", err, "channel", i.ChannelID)
		return
	}

	occs, err := b.svc.Filter(q.dateRange)
	if err != nil {
		reply := replyQueryFailed
		if errors.Is(err, agenda.ErrFeedUnavailable) {
			reply = replyFeedUnavailable
		}
		appLog.Error("schedule query failed", err, "label", q.label)
		b.editReply(s, i, &discordgo.WebhookEdit{Content: &reply})
		return
	}

	rendered := agenda.Format(occs, q.label)
	embeds := []*discordgo.MessageEmbed{scheduleEmbed(rendered)}
	b.editReply(s, i, &discordgo.WebhookEdit{Embeds: &embeds})
}

func (b *Bot) editReply(s *discordgo.Session, i *discordgo.InteractionCreate, edit *discordgo.WebhookEdit) {
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		appLog.Error("interaction reply failed", err, "channel", i.ChannelID)
	}
}
