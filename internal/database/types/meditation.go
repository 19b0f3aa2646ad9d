package types

import "time"

// Meditation is a single logged practice session.
type Meditation struct {
	ID         string    `bun:",pk"                    json:"id"`
	GuildID    uint64    `bun:",notnull"               json:"guildId"`
	UserID     uint64    `bun:",notnull"               json:"userId"`
	Minutes    int       `bun:",notnull"               json:"minutes"`
	OccurredAt time.Time `bun:",notnull,default:now()" json:"occurredAt"`
}

// MemberKey identifies a member of a guild.
type MemberKey struct {
	GuildID uint64 `bun:"guild_id"`
	UserID  uint64 `bun:"user_id"`
}
