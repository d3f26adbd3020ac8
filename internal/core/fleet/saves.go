package fleet

import (
	"regexp"
	"time"
)

// LiveSaveTolerance is how far the remote and local modification times of a
// live save may drift before the save is fetched again.
const LiveSaveTolerance = 120 * time.Second

var (
	saveExtension = regexp.MustCompile(`(?i)\.(?:ark|arkprofile|arktribe|arktributetribe|profilebak|tribebak)$`)
	liveSave      = regexp.MustCompile(`(?i)^\w+(?:_P)?\.ark$`)
)

// IsSaveFile reports whether name is a world, profile or tribe save.
func IsSaveFile(name string) bool {
	return saveExtension.MatchString(name)
}

// IsLiveSave reports whether name is the world save the server keeps
// rewriting, e.g. TheIsland.ark or Ragnarok_P.ark. Timestamped copies like
// TheIsland_01.01.2024_10.00.00.ark are not live.
func IsLiveSave(name string) bool {
	return liveSave.MatchString(name)
}

// NeedsBackup decides whether a remote save must be fetched given the
// modification time of the existing local copy (zero when there is none).
func NeedsBackup(name string, remote, local time.Time) bool {
	if !IsSaveFile(name) {
		return false
	}
	if local.IsZero() {
		return true
	}
	if !IsLiveSave(name) {
		return false
	}
	drift := remote.Sub(local)
	if drift < 0 {
		drift = -drift
	}
	return drift > LiveSaveTolerance
}
