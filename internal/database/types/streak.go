package types

import "time"

// Streak is the cached streak of a member.
type Streak struct {
	GuildID   uint64    `bun:",pk"                    json:"guildId"`
	UserID    uint64    `bun:",pk"                    json:"userId"`
	Current   int       `bun:",notnull"               json:"current"`
	Longest   int       `bun:",notnull"               json:"longest"`
	UpdatedAt time.Time `bun:",notnull,default:now()" json:"updatedAt"`
}
