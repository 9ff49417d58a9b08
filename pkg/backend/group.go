package backend

import (
	"fmt"
	"strings"
)

// Group is a canonical package category.
type Group string

const (
	GroupAccessories   Group = "accessories"
	GroupAdminTools    Group = "admin-tools"
	GroupCommunication Group = "communication"
	GroupDocumentation Group = "documentation"
	GroupDesktopGnome  Group = "desktop-gnome"
	GroupDesktopKDE    Group = "desktop-kde"
	GroupDesktopOther  Group = "desktop-other"
	GroupElectronics   Group = "electronics"
	GroupGames         Group = "games"
	GroupGraphics      Group = "graphics"
	GroupInternet      Group = "internet"
	GroupLegacy        Group = "legacy"
	GroupLocalization  Group = "localization"
	GroupMultimedia    Group = "multimedia"
	GroupNetwork       Group = "network"
	GroupOther         Group = "other"
	GroupProgramming   Group = "programming"
	GroupPublishing    Group = "publishing"
	GroupScience       Group = "science"
	GroupSystem        Group = "system"
	GroupCollections   Group = "collections"
	GroupUnknown       Group = "unknown"
)

// AllGroups lists every known group.
var AllGroups = []Group{
	GroupAccessories, GroupAdminTools, GroupCommunication, GroupDocumentation,
	GroupDesktopGnome, GroupDesktopKDE, GroupDesktopOther, GroupElectronics,
	GroupGames, GroupGraphics, GroupInternet, GroupLegacy, GroupLocalization,
	GroupMultimedia, GroupNetwork, GroupOther, GroupProgramming, GroupPublishing,
	GroupScience, GroupSystem, GroupCollections, GroupUnknown,
}

// ParseGroup returns the group named s.
func ParseGroup(s string) (Group, error) {
	g := Group(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllGroups {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGroup, s)
}

// sectionGroups maps Debian-style archive sections to groups.
var sectionGroups = map[string]Group{
	"admin":        GroupAdminTools,
	"base":         GroupSystem,
	"comm":         GroupCommunication,
	"devel":        GroupProgramming,
	"doc":          GroupDocumentation,
	"editors":      GroupPublishing,
	"electronics":  GroupElectronics,
	"embedded":     GroupSystem,
	"fonts":        GroupDesktopOther,
	"games":        GroupGames,
	"gnome":        GroupDesktopGnome,
	"graphics":     GroupGraphics,
	"hamradio":     GroupCommunication,
	"interpreters": GroupProgramming,
	"kde":          GroupDesktopKDE,
	"libdevel":     GroupProgramming,
	"libs":         GroupSystem,
	"localization": GroupLocalization,
	"mail":         GroupInternet,
	"math":         GroupScience,
	"metapackages": GroupCollections,
	"misc":         GroupOther,
	"net":          GroupNetwork,
	"news":         GroupInternet,
	"oldlibs":      GroupLegacy,
	"otherosfs":    GroupSystem,
	"perl":         GroupProgramming,
	"python":       GroupProgramming,
	"science":      GroupScience,
	"shells":       GroupSystem,
	"sound":        GroupMultimedia,
	"tex":          GroupPublishing,
	"text":         GroupPublishing,
	"translations": GroupLocalization,
	"utils":        GroupAccessories,
	"video":        GroupMultimedia,
	"web":          GroupInternet,
	"x11":          GroupDesktopOther,
}

// GroupFromSection classifies a backend section string such as
// "contrib/devel". Only the component after the last "/" is considered.
func GroupFromSection(section string) Group {
	if i := strings.LastIndex(section, "/"); i >= 0 {
		section = section[i+1:]
	}
	if g, ok := sectionGroups[strings.ToLower(section)]; ok {
		return g
	}
	return GroupUnknown
}
