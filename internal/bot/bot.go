// Package bot hosts the Discord gateway connection and the /streak command.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"github.com/meditationmind/bloombot/internal/database/types"
	"github.com/meditationmind/bloombot/internal/setup/config"
	"github.com/meditationmind/bloombot/internal/streak"
	"go.uber.org/zap"
)

// commandTimeout bounds the work done for one interaction.
const commandTimeout = 10 * time.Second

// StreakComputer computes a member's streak.
type StreakComputer interface {
	Compute(ctx context.Context, guildID, userID uint64) (streak.Result, error)
}

// ProfileSource loads a member's tracking preferences.
type ProfileSource interface {
	GetProfile(ctx context.Context, guildID, userID uint64) (*types.TrackingProfile, error)
}

// Bot handles Discord interactions.
type Bot struct {
	client      bot.Client
	streaks     StreakComputer
	profiles    ProfileSource
	staffRoleID snowflake.ID
	testGuildID snowflake.ID
	logger      *zap.Logger
}

// New creates the Discord client. The gateway is opened by Serve.
func New(cfg *config.Discord, streaks StreakComputer, profiles ProfileSource, logger *zap.Logger) (*Bot, error) {
	b := &Bot{
		streaks:     streaks,
		profiles:    profiles,
		staffRoleID: snowflake.ID(cfg.StaffRoleID),
		testGuildID: snowflake.ID(cfg.TestGuildID),
		logger:      logger.Named("bot"),
	}

	client, err := disgo.New(cfg.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(gateway.IntentGuilds),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client

	return b, nil
}

// String implements fmt.Stringer, naming the service for the supervisor.
func (b *Bot) String() string {
	return "discord-bot"
}

// Serve registers commands, opens the gateway and blocks until ctx is done.
func (b *Bot) Serve(ctx context.Context) error {
	b.logger.Info("Registering commands")

	if err := b.registerCommands(); err != nil {
		return err
	}

	b.logger.Info("Starting bot")

	if err := b.client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	<-ctx.Done()

	b.logger.Info("Closing bot")

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.client.Close(closeCtx)

	return ctx.Err()
}

func (b *Bot) registerCommands() error {
	commands := []discord.ApplicationCommandCreate{streakCommand()}

	var err error
	if b.testGuildID != 0 {
		_, err = b.client.Rest().SetGuildCommands(b.client.ApplicationID(), b.testGuildID, commands)
	} else {
		_, err = b.client.Rest().SetGlobalCommands(b.client.ApplicationID(), commands)
	}

	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	return nil
}

// handleApplicationCommandInteraction dispatches slash commands in their own goroutine.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	go func() {
		data := event.SlashCommandInteractionData()

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in application command interaction handler", zap.Any("panic", r))
				b.respond(event, "Internal error. Please report this to an administrator.")
			}

			b.logger.Debug("Application command interaction handled",
				zap.String("command", data.CommandName()),
				zap.Duration("duration", time.Since(start)))
		}()

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		switch data.CommandName() {
		case StreakCommandName:
			b.handleStreak(ctx, event, data)
		default:
			if err := event.CreateMessage(discord.NewMessageCreateBuilder().
				SetContent("This command is not available.").
				SetEphemeral(true).
				Build()); err != nil {
				b.logger.Error("Failed to respond to unknown command", zap.Error(err))
			}
		}
	}()
}

// respond replaces the deferred response content.
func (b *Bot) respond(event *events.ApplicationCommandInteractionCreate, content string) {
	_, err := event.Client().Rest().UpdateInteractionResponse(
		event.ApplicationID(),
		event.Token(),
		discord.NewMessageUpdateBuilder().SetContent(content).Build(),
	)
	if err != nil {
		b.logger.Error("Failed to update interaction response", zap.Error(err))
	}
}
