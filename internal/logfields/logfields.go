package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyMode       = "mode"
	KeySite       = "site"
	KeyURL        = "url"
	KeyReference  = "reference"
	KeyLane       = "lane"
	KeyLayout     = "layout"
	KeyStage      = "stage"
	KeyStatus     = "status"
	KeyOutcome    = "outcome"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Site(s string) slog.Attr         { return slog.String(KeySite, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Reference(r string) slog.Attr    { return slog.String(KeyReference, r) }
func Lane(l string) slog.Attr         { return slog.String(KeyLane, l) }
func Layout(l string) slog.Attr       { return slog.String(KeyLayout, l) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
