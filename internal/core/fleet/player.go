package fleet

import (
	"regexp"
	"strings"
)

var playerLine = regexp.MustCompile(`^\s*\d+\.\s+(.*?),\s*(\d+)\s*$`)

// Player is a player currently connected to a server.
type Player struct {
	Name    string `json:"name"`
	SteamID string `json:"steam_id"`
}

// ParsePlayers extracts players from a listplayers response. Lines look
// like "0. Some Name, 76561198000000000"; anything else is ignored,
// including the "No Players Connected" notice.
func ParsePlayers(response string) []Player {
	var players []Player
	for _, line := range strings.Split(response, "\n") {
		m := playerLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		players = append(players, Player{
			Name:    strings.TrimSpace(m[1]),
			SteamID: m[2],
		})
	}
	return players
}
