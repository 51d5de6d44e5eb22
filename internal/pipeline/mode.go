package pipeline

import (
	"strings"

	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
)

// Mode selects how far a run goes.
type Mode string

const (
	// ModeMigrate rewrites matching assets and commits them.
	ModeMigrate Mode = "migrate"
	// ModeReport only reports the URLs of matching assets.
	ModeReport Mode = "report"
)

// ParseMode normalizes s into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMigrate, "":
		return ModeMigrate, nil
	case ModeReport:
		return ModeReport, nil
	default:
		return "", errors.ConfigError("unknown mode").
			WithContext("mode", s).
			Build()
	}
}
