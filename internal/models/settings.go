package models

import "time"

// LogCategory is the wire key of one of the fourteen log routes.
type LogCategory string

const (
	LogRoleStatus LogCategory = "durumRolLog"
	LogTicket     LogCategory = "ticketLog"
	LogEmoji      LogCategory = "emojiLog"
	LogMessage    LogCategory = "mesajLog"
	LogLevelUp    LogCategory = "seviyeLog"
	LogNameChange LogCategory = "isimLog"
	LogVoice      LogCategory = "sesLog"
	LogChannel    LogCategory = "kanalLog"
	LogInvite     LogCategory = "davetLog"
	LogJoinLeave  LogCategory = "girisCikisLog"
	LogBanKick    LogCategory = "banKickLog"
	LogMute       LogCategory = "muteLog"
	LogJail       LogCategory = "jailLog"
	LogModeration LogCategory = "modLog"
)

// LogCategories lists every category in document order.
var LogCategories = []LogCategory{
	LogRoleStatus, LogTicket, LogEmoji, LogMessage, LogLevelUp, LogNameChange, LogVoice,
	LogChannel, LogInvite, LogJoinLeave, LogBanKick, LogMute, LogJail, LogModeration,
}

// LogCategoryGroups is the grouping shown by the editors.
var LogCategoryGroups = []struct {
	Name       string
	Categories []LogCategory
}{
	{"moderation", []LogCategory{LogBanKick, LogMute, LogJail, LogModeration}},
	{"server", []LogCategory{LogRoleStatus, LogEmoji, LogChannel, LogJoinLeave, LogInvite}},
	{"messages", []LogCategory{LogMessage, LogLevelUp, LogNameChange, LogVoice, LogTicket}},
}

// ParseLogCategory reports whether key names a known category.
func ParseLogCategory(key string) (LogCategory, bool) {
	for _, c := range LogCategories {
		if string(c) == key {
			return c, true
		}
	}
	return "", false
}

// LogChannels routes each log category to a channel id; nil disables it.
type LogChannels struct {
	GuildID       string    `json:"guildId" bson:"guildId"`
	DurumRolLog   *string   `json:"durumRolLog" bson:"durumRolLog"`
	TicketLog     *string   `json:"ticketLog" bson:"ticketLog"`
	EmojiLog      *string   `json:"emojiLog" bson:"emojiLog"`
	MesajLog      *string   `json:"mesajLog" bson:"mesajLog"`
	SeviyeLog     *string   `json:"seviyeLog" bson:"seviyeLog"`
	IsimLog       *string   `json:"isimLog" bson:"isimLog"`
	SesLog        *string   `json:"sesLog" bson:"sesLog"`
	KanalLog      *string   `json:"kanalLog" bson:"kanalLog"`
	DavetLog      *string   `json:"davetLog" bson:"davetLog"`
	GirisCikisLog *string   `json:"girisCikisLog" bson:"girisCikisLog"`
	BanKickLog    *string   `json:"banKickLog" bson:"banKickLog"`
	MuteLog       *string   `json:"muteLog" bson:"muteLog"`
	JailLog       *string   `json:"jailLog" bson:"jailLog"`
	ModLog        *string   `json:"modLog" bson:"modLog"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DefaultLogChannels returns a document with every category disabled.
func DefaultLogChannels(guildID string) *LogChannels {
	return &LogChannels{GuildID: guildID}
}

func (l *LogChannels) slot(c LogCategory) **string {
	switch c {
	case LogRoleStatus:
		return &l.DurumRolLog
	case LogTicket:
		return &l.TicketLog
	case LogEmoji:
		return &l.EmojiLog
	case LogMessage:
		return &l.MesajLog
	case LogLevelUp:
		return &l.SeviyeLog
	case LogNameChange:
		return &l.IsimLog
	case LogVoice:
		return &l.SesLog
	case LogChannel:
		return &l.KanalLog
	case LogInvite:
		return &l.DavetLog
	case LogJoinLeave:
		return &l.GirisCikisLog
	case LogBanKick:
		return &l.BanKickLog
	case LogMute:
		return &l.MuteLog
	case LogJail:
		return &l.JailLog
	case LogModeration:
		return &l.ModLog
	}
	return nil
}

// Get returns the channel routed for c, or nil when disabled or unknown.
func (l *LogChannels) Get(c LogCategory) *string {
	if p := l.slot(c); p != nil && *p != nil {
		v := **p
		return &v
	}
	return nil
}

// Set routes c to channelID (nil disables). Unknown categories are ignored.
func (l *LogChannels) Set(c LogCategory, channelID *string) {
	p := l.slot(c)
	if p == nil {
		return
	}
	if channelID == nil {
		*p = nil
		return
	}
	v := *channelID
	*p = &v
}

// Routes returns the document as a category → channel map.
func (l *LogChannels) Routes() LogChannelPatch {
	out := make(LogChannelPatch, len(LogCategories))
	for _, c := range LogCategories {
		out[c] = l.Get(c)
	}
	return out
}

// Clone returns a deep copy.
func (l *LogChannels) Clone() *LogChannels {
	cp := &LogChannels{GuildID: l.GuildID, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt}
	for _, c := range LogCategories {
		cp.Set(c, l.Get(c))
	}
	return cp
}

// Equal compares the fourteen routes only.
func (l *LogChannels) Equal(o *LogChannels) bool {
	for _, c := range LogCategories {
		if !sameChannel(l.Get(c), o.Get(c)) {
			return false
		}
	}
	return true
}

// Changed lists the categories whose route differs from o.
func (l *LogChannels) Changed(o *LogChannels) []LogCategory {
	var out []LogCategory
	for _, c := range LogCategories {
		if !sameChannel(l.Get(c), o.Get(c)) {
			out = append(out, c)
		}
	}
	return out
}

func sameChannel(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// LogChannelPatch is a partial update: only present categories are written.
type LogChannelPatch map[LogCategory]*string

// Apply merges p into l.
func (p LogChannelPatch) Apply(l *LogChannels) {
	for c, v := range p {
		l.Set(c, v)
	}
}

// Language is a bot response language code.
type Language string

// DefaultLanguage is used when a guild has no language document.
const DefaultLanguage Language = "tr"

// LanguageInfo describes a supported language.
type LanguageInfo struct {
	Code       Language
	Name       string
	NativeName string
}

// Languages is the closed set of supported languages.
var Languages = []LanguageInfo{
	{"tr", "Turkish", "Türkçe"},
	{"en", "English", "English"},
	{"es", "Spanish", "Español"},
	{"ru", "Russian", "Русский"},
	{"zh", "Chinese", "中文"},
	{"fr", "French", "Français"},
	{"pt", "Portuguese", "Português"},
	{"ja", "Japanese", "日本語"},
	{"ko", "Korean", "한국어"},
	{"de", "German", "Deutsch"},
}

// Valid reports whether l belongs to the supported set.
func (l Language) Valid() bool {
	for _, info := range Languages {
		if info.Code == l {
			return true
		}
	}
	return false
}

// GuildLanguage is the per-guild language document.
type GuildLanguage struct {
	GuildID   string    `json:"guildId" bson:"guildId"`
	Language  Language  `json:"language" bson:"language"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DefaultGuildLanguage returns the fallback document for guildID.
func DefaultGuildLanguage(guildID string) *GuildLanguage {
	return &GuildLanguage{GuildID: guildID, Language: DefaultLanguage}
}
