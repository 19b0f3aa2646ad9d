package bot

const (
	// StreakCommandName is the slash command showing a member's streak.
	StreakCommandName = "streak"

	streakUserOption    = "user"
	streakPrivacyOption = "privacy"

	privacyPublic  = "public"
	privacyPrivate = "private"
)
