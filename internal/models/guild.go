package models

// GuildSummary is one entry of GET /guilds.
type GuildSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Icon        *string  `json:"icon"`
	Owner       bool     `json:"owner"`
	Permissions string   `json:"permissions"`
	Features    []string `json:"features"`
	HasBot      bool     `json:"hasBot"`
	CanManage   bool     `json:"canManage"`
}

// Channel is one entry of GET /guilds/:id/channels.
type Channel struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     int     `json:"type"`
	Position int     `json:"position"`
	ParentID *string `json:"parent_id"`
}
