// Package bot wires the Discord gateway to the agenda pipeline: slash
// commands, proactive daily posts and periodic feed refresh.
package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"

	"agendabot/internal/agenda"
	"agendabot/internal/config"
	"agendabot/internal/ics"
	appLog "agendabot/internal/log"
)

// Bot owns the gateway session and the cron scheduler.
type Bot struct {
	cfg     *config.Config
	svc     *agenda.Service
	fetcher *ics.Fetcher
	session *discordgo.Session
	cron    *cron.Cron
}

// New builds the Bot and its Discord session. The session is not opened
// yet; call Start.
func New(cfg *config.Config, svc *agenda.Service, fetcher *ics.Fetcher) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		cfg:     cfg,
		svc:     svc,
		fetcher: fetcher,
		session: session,
		cron:    cron.New(cron.WithLocation(svc.Location())),
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)

	return b, nil
}

// Start opens the gateway connection and starts the cron jobs: the daily
// post at the configured wall-clock schedule and, if configured, the
// periodic feed refresh. Anchoring the post to a cron expression instead of
// a fixed-period loop means the trigger window cannot be missed by a badly
// aligned restart.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return err
	}

	if _, err := b.cron.AddFunc(b.cfg.PostCron, b.dailyPost); err != nil {
		b.session.Close()
		return err
	}
	if b.cfg.Calendar.RefreshCron != "" {
		if _, err := b.cron.AddFunc(b.cfg.Calendar.RefreshCron, b.refreshFeed); err != nil {
			b.session.Close()
			return err
		}
	}
	b.cron.Start()

	return nil
}

// Stop stops the cron scheduler and closes the gateway session.
func (b *Bot) Stop() {
	ctx := b.cron.Stop()
	<-ctx.Done()
	if err := b.session.Close(); err != nil {
		appLog.Error("session close failed", err)
	}
}

func (b *Bot) onReady(s *discordgo.Session, _ *discordgo.Ready) {
	appLog.Info("logged in", "user", s.State.User.String())
	b.registerCommands(s)
}

// registerCommands registers the slash commands on every configured guild.
// Guild-scoped registration propagates immediately, unlike global commands.
func (b *Bot) registerCommands(s *discordgo.Session) {
	for _, guildID := range b.cfg.Discord.Guilds {
		for _, cmd := range commandDefinitions {
			if _, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, cmd); err != nil {
				appLog.Error("command registration failed", err, "command", cmd.Name, "guild", guildID)
			}
		}
		appLog.Info("commands registered", "guild", guildID, "count", len(commandDefinitions))
	}
}
