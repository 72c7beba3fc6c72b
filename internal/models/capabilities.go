package models

import "strconv"

// Discord permission bits relevant to the panel.
const (
	PermAdministrator int64 = 1 << 3
	PermManageGuild   int64 = 1 << 5
)

// Capabilities is the set of named rights derived once from a raw Discord
// permission bitmask.
type Capabilities struct {
	Owner         bool
	Administrator bool
	ManageGuild   bool
}

// CapabilitiesFromBits derives capabilities from a permission bitmask.
func CapabilitiesFromBits(bits int64) Capabilities {
	return Capabilities{
		Administrator: bits&PermAdministrator == PermAdministrator,
		ManageGuild:   bits&PermManageGuild == PermManageGuild,
	}
}

// ParseCapabilities parses the decimal string form Discord uses on the wire.
// A malformed value yields no capabilities.
func ParseCapabilities(raw string) Capabilities {
	bits, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Capabilities{}
	}
	return CapabilitiesFromBits(bits)
}

// CanManage is the single management policy used for both guild listing and
// the server-side guild gate.
func (c Capabilities) CanManage() bool {
	return c.Owner || c.Administrator || c.ManageGuild
}
