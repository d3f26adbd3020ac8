package fleet

import (
	"strconv"
	"strings"
)

const (
	// DefaultRestartMessage is broadcast before a scheduled restart.
	DefaultRestartMessage = "Server will be restarted in {minutes} min. {seconds} sec."

	// SaveAndKickAt is the number of seconds before a restart at which the
	// world is saved and players are kicked.
	SaveAndKickAt = 30
)

// RestartDelays lists the delays in minutes an operator may schedule.
var RestartDelays = []int{1, 2, 3, 4, 5, 10, 15, 20, 25, 30}

// ShouldNotify reports whether players are warned when secondsLeft remain:
// every five minutes above five minutes, every minute down to one minute and
// every 20 seconds in the last minute.
func ShouldNotify(secondsLeft int) bool {
	switch {
	case secondsLeft <= 0:
		return false
	case secondsLeft > 300:
		return secondsLeft%300 == 0
	case secondsLeft > 60:
		return secondsLeft%60 == 0
	default:
		return secondsLeft%20 == 0
	}
}

// NotificationSchedule lists the countdown values, in descending order, at
// which a restart delayed by totalSeconds notifies players.
func NotificationSchedule(totalSeconds int) []int {
	var out []int
	for s := totalSeconds; s > 0; s-- {
		if ShouldNotify(s) {
			out = append(out, s)
		}
	}
	return out
}

// FormatRestartMessage fills the {minutes} and {seconds} placeholders of a
// restart message template. A literal \n in the template is a line break.
func FormatRestartMessage(template string, secondsLeft int) string {
	if template == "" {
		template = DefaultRestartMessage
	}
	return strings.NewReplacer(
		`\n`, "\n",
		"{minutes}", strconv.Itoa(secondsLeft/60),
		"{seconds}", strconv.Itoa(secondsLeft%60),
	).Replace(template)
}

// ValidRestartDelay reports whether minutes is one of RestartDelays.
func ValidRestartDelay(minutes int) bool {
	for _, d := range RestartDelays {
		if d == minutes {
			return true
		}
	}
	return false
}
