package types

// TrackingProfile holds a member's tracking preferences.
// UTCOffset is in minutes and decides which calendar day a session falls on.
type TrackingProfile struct {
	GuildID           uint64 `bun:",pk"                    json:"guildId"`
	UserID            uint64 `bun:",pk"                    json:"userId"`
	UTCOffset         int    `bun:",notnull,default:0"     json:"utcOffset"`
	AnonymousTracking bool   `bun:",notnull,default:false" json:"anonymousTracking"`
	StreaksActive     bool   `bun:",notnull,default:true"  json:"streaksActive"`
	StreaksPrivate    bool   `bun:",notnull,default:false" json:"streaksPrivate"`
}
