package bot

import (
	"github.com/bwmarrin/discordgo"

	"agendabot/internal/agenda"
)

const (
	colorBlue   = 0x3498db // empty schedule
	colorOrange = 0xe67e22 // schedule with events
)

// scheduleEmbed converts a rendered schedule into a Discord embed: the
// apology as the description when the range is empty, otherwise one inline
// field per day.
func scheduleEmbed(r agenda.Rendered) *discordgo.MessageEmbed {
	if r.Empty() {
		return &discordgo.MessageEmbed{
			Title:       r.Title,
			Description: r.Apology,
			Color:       colorBlue,
		}
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(r.Days))
	for _, day := range r.Days {
		value := day.Body
		if value == "" {
			// Discord rejects empty field values; a day can end up bodyless
			// when every entry was a modality placeholder.
			value = "\u200b"
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   day.Heading,
			Value:  value,
			Inline: true,
		})
	}

	return &discordgo.MessageEmbed{
		Title:  r.Title,
		Color:  colorOrange,
		Fields: fields,
	}
}
