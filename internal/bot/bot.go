package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
)

const commandTimeout = 10 * time.Second

// Bot connects the command handler to a Discord gateway session
type Bot struct {
	session *discordgo.Session
	handler *CommandHandler
	pool    *WorkerPool
	guildID string
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func New(logger *slog.Logger, token, guildID string, handler *CommandHandler, pool *WorkerPool) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		session: session,
		handler: handler,
		pool:    pool,
		guildID: guildID,
		logger:  logger.With("component", "discord_bot"),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Session is exposed so the announcer can post through the same connection
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// Start opens the gateway connection and registers the slash commands
func (b *Bot) Start() error {
	b.session.AddHandler(b.onInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("Connected to Discord", "user", r.User.Username, "guilds", len(r.Guilds))
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	registered, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, Commands())
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	b.logger.Info("Registered slash commands", "count", len(registered), "guild_id", b.guildID)
	return nil
}

func (b *Bot) Stop() error {
	b.cancel()
	return b.session.Close()
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	cmd := parseInteraction(i)

	// Acknowledge first; the command itself may outlast the three second window.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Error("Failed to acknowledge interaction", "command", cmd.Name, "error", err)
		return
	}

	err = b.pool.Submit(func() {
		b.edit(s, i.Interaction, b.runCommand(cmd))
	})
	if errors.Is(err, ErrPoolBusy) {
		b.edit(s, i.Interaction, textReply("The bot is busy right now, please try again in a moment."))
		return
	}
	if err != nil {
		b.logger.Error("Failed to dispatch command", "command", cmd.Name, "error", err)
		b.edit(s, i.Interaction, textReply("Something went wrong, please try again later."))
	}
}

// runCommand always produces a reply, so a deferred response is never left pending
func (b *Bot) runCommand(cmd Command) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Command panicked", "command", cmd.Name, "panic", r, "stack", string(debug.Stack()))
			reply = textReply("Something went wrong, please try again later.")
		}
	}()

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()
	return b.handler.Handle(ctx, cmd)
}

func (b *Bot) edit(s *discordgo.Session, interaction *discordgo.Interaction, reply Reply) {
	edit := &discordgo.WebhookEdit{}
	if reply.Content != "" {
		edit.Content = &reply.Content
	}
	if reply.Embed != nil {
		edit.Embeds = &[]*discordgo.MessageEmbed{reply.Embed}
	}
	if _, err := s.InteractionResponseEdit(interaction, edit); err != nil {
		b.logger.Error("Failed to send interaction reply", "error", err)
	}
}

// parseInteraction flattens the options of a slash command
func parseInteraction(i *discordgo.InteractionCreate) Command {
	data := i.ApplicationCommandData()
	cmd := Command{
		Name:    data.Name,
		Strings: map[string]string{},
		Ints:    map[string]int64{},
		Users:   map[string]string{},
	}

	switch {
	case i.Member != nil && i.Member.User != nil:
		cmd.UserID = i.Member.User.ID
		cmd.IsAdmin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	case i.User != nil:
		cmd.UserID = i.User.ID
	}

	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			cmd.Strings[opt.Name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			cmd.Ints[opt.Name] = opt.IntValue()
		case discordgo.ApplicationCommandOptionUser:
			cmd.Users[opt.Name] = opt.UserValue(nil).ID
		}
	}
	return cmd
}
