package bot

import (
	"context"
	"fmt"
	"slices"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/meditationmind/bloombot/internal/streak"
	"go.uber.org/zap"
)

// streakCommand describes /streak [user] [privacy].
func streakCommand() discord.SlashCommandCreate {
	return discord.SlashCommandCreate{
		Name:        StreakCommandName,
		Description: "See your current meditation streak",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionUser{
				Name:        streakUserOption,
				Description: "The user to check the streak of",
			},
			discord.ApplicationCommandOptionString{
				Name:        streakPrivacyOption,
				Description: "Set visibility of response (Defaults to public)",
				Choices: []discord.ApplicationCommandOptionChoiceString{
					{Name: privacyPublic, Value: privacyPublic},
					{Name: privacyPrivate, Value: privacyPrivate},
				},
			},
		},
	}
}

// streakView is what the /streak reply needs to know.
type streakView struct {
	// Subject is the member's display name, empty when asking about yourself.
	Subject string
	// Private marks a private streak shown to staff.
	Private bool
	Record  streak.Record
}

// formatStreak renders the reply for a computed streak.
func formatStreak(v streakView) string {
	if v.Subject == "" {
		if v.Record.Current == v.Record.Longest {
			return fmt.Sprintf("Your current meditation streak is %d days. This is your longest streak.", v.Record.Current)
		}

		return fmt.Sprintf("Your current meditation streak is %d days. Your longest streak is %d days.",
			v.Record.Current, v.Record.Longest)
	}

	kind := "meditation streak"
	if v.Private {
		kind = "**private** meditation streak"
	}

	if v.Record.Current == v.Record.Longest {
		return fmt.Sprintf("%s's current %s is %d days. This is %s's longest streak.",
			v.Subject, kind, v.Record.Current, v.Subject)
	}

	return fmt.Sprintf("%s's current %s is %d days. %s's longest streak is %d days.",
		v.Subject, kind, v.Record.Current, v.Subject, v.Record.Longest)
}

// streakRequest is a /streak invocation with the Discord specifics resolved.
type streakRequest struct {
	GuildID  uint64
	TargetID uint64
	// Subject is the target's display name, empty when asking about yourself.
	Subject string
	// Privacy is the privacy option, empty when not given.
	Privacy string
	Staff   bool
}

// streakVisibility decides how a /streak reply may be shown.
type streakVisibility struct {
	Ephemeral bool
	// ShowPrivate marks a private streak revealed to staff.
	ShowPrivate bool
	// Denied holds the refusal when the streak may not be shown at all.
	Denied string
}

// handleStreak answers /streak for the caller or another member.
// Private streaks of others are only shown to staff, and only ephemerally.
func (b *Bot) handleStreak(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) {
	guildID := event.GuildID()
	if guildID == nil {
		b.respondNow(event, true, "This command can only be used in a server.")
		return
	}

	caller := event.User()
	req := streakRequest{
		GuildID:  uint64(*guildID),
		TargetID: uint64(caller.ID),
		Staff:    b.isStaff(event),
	}

	if member, ok := data.OptMember(streakUserOption); ok && member.User.ID != caller.ID {
		req.TargetID = uint64(member.User.ID)
		req.Subject = member.EffectiveName()
	} else if user, ok := data.OptUser(streakUserOption); ok && user.ID != caller.ID {
		req.TargetID = uint64(user.ID)
		req.Subject = user.EffectiveName()
	}

	if choice, ok := data.OptString(streakPrivacyOption); ok {
		req.Privacy = choice
	}

	visibility, err := b.streakVisibility(ctx, req)
	if err != nil {
		b.respondNow(event, true, unavailableMessage(req.Subject))
		return
	}

	if visibility.Denied != "" {
		b.respondNow(event, true, visibility.Denied)
		return
	}

	if err := event.DeferCreateMessage(visibility.Ephemeral); err != nil {
		b.logger.Error("Failed to defer create message", zap.Error(err))
		return
	}

	b.respond(event, b.streakContent(ctx, req, visibility.ShowPrivate))
}

// streakVisibility loads the target's privacy setting.
// An unreadable profile is an error, never a public profile.
func (b *Bot) streakVisibility(ctx context.Context, req streakRequest) (streakVisibility, error) {
	profile, err := b.profiles.GetProfile(ctx, req.GuildID, req.TargetID)
	if err != nil {
		b.logger.Error("Failed to load tracking profile",
			zap.Uint64("guildID", req.GuildID),
			zap.Uint64("userID", req.TargetID),
			zap.Error(err))

		return streakVisibility{}, err
	}

	private := profile != nil && profile.StreaksPrivate

	v := streakVisibility{Ephemeral: private}
	if req.Privacy != "" {
		v.Ephemeral = req.Privacy == privacyPrivate
	}

	if req.Subject != "" && private {
		if !req.Staff {
			return streakVisibility{
				Denied: fmt.Sprintf("Sorry, %s's meditation streak is set to private.", req.Subject),
			}, nil
		}

		v.ShowPrivate = true
		v.Ephemeral = true
	}

	return v, nil
}

// streakContent computes the streak and renders the reply.
func (b *Bot) streakContent(ctx context.Context, req streakRequest, showPrivate bool) string {
	result, err := b.streaks.Compute(ctx, req.GuildID, req.TargetID)
	if err != nil {
		b.logger.Error("Failed to compute streak",
			zap.Uint64("guildID", req.GuildID),
			zap.Uint64("userID", req.TargetID),
			zap.Error(err))

		return unavailableMessage(req.Subject)
	}

	return formatStreak(streakView{
		Subject: req.Subject,
		Private: showPrivate,
		Record:  result.Record,
	})
}

func unavailableMessage(subject string) string {
	if subject == "" {
		return "Your streak could not be calculated right now. Please try again later."
	}

	return subject + "'s streak could not be calculated right now. Please try again later."
}

// respondNow answers without deferring.
func (b *Bot) respondNow(event *events.ApplicationCommandInteractionCreate, ephemeral bool, content string) {
	if err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(ephemeral).
		Build()); err != nil {
		b.logger.Error("Failed to respond", zap.Error(err))
	}
}

// isStaff reports whether the caller holds the configured staff role.
func (b *Bot) isStaff(event *events.ApplicationCommandInteractionCreate) bool {
	member := event.Member()
	if member == nil || b.staffRoleID == 0 {
		return false
	}

	return slices.Contains(member.RoleIDs, b.staffRoleID)
}
