package flood

import (
	"fmt"
	"time"
)

// Penalty is what happens to a flooding user once their warnings run out.
type Penalty string

const (
	// PenaltyWarn sends a message and takes no further action.
	PenaltyWarn Penalty = "warn"
	// PenaltyMute restricts the user for the configured duration.
	PenaltyMute Penalty = "mute"
	// PenaltyKick removes the user; they can rejoin.
	PenaltyKick Penalty = "kick"
	// PenaltyTempBan bans for the configured duration.
	PenaltyTempBan Penalty = "tempban"
	// PenaltyBan bans permanently.
	PenaltyBan Penalty = "ban"
)

func (p Penalty) valid() bool {
	switch p {
	case PenaltyWarn, PenaltyMute, PenaltyKick, PenaltyTempBan, PenaltyBan:
		return true
	}
	return false
}

// Config is the per-chat antiflood policy, supplied by configuration or
// persistence outside this package.
type Config struct {
	Enabled bool `yaml:"enabled"`

	// MaxMessages allowed inside the window before a message counts as flood.
	MaxMessages uint32 `yaml:"max_messages"`

	// WindowSecs is the sliding-window length in seconds.
	WindowSecs uint32 `yaml:"window_secs"`

	// Penalty applied once warnings are exhausted.
	Penalty Penalty `yaml:"penalty"`

	// PenaltyDurationSecs bounds mute/tempban; 0 means permanent.
	PenaltyDurationSecs uint64 `yaml:"penalty_duration_secs"`

	// WarningsBeforePenalty is how many flood warnings a user gets before the
	// penalty applies; 0 penalizes immediately.
	WarningsBeforePenalty uint32 `yaml:"warnings_before_penalty"`
}

// DefaultConfig matches the deployed defaults: disabled until an admin turns
// it on, 5 messages in 5 seconds, one warning, then a 5 minute mute.
func DefaultConfig() Config {
	return Config{
		Enabled:               false,
		MaxMessages:           5,
		WindowSecs:            5,
		Penalty:               PenaltyMute,
		PenaltyDurationSecs:   300,
		WarningsBeforePenalty: 1,
	}
}

// Window returns the sliding window as a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.WindowSecs) * time.Second
}

// PenaltyDuration returns the penalty duration; 0 means permanent.
func (c Config) PenaltyDuration() time.Duration {
	return time.Duration(c.PenaltyDurationSecs) * time.Second
}

// Validate enforces the admin-command ranges.
func (c Config) Validate() error {
	if c.MaxMessages < 2 || c.MaxMessages > 100 {
		return fmt.Errorf("max_messages must be within 2..100, got %d", c.MaxMessages)
	}
	if c.WindowSecs < 1 || c.WindowSecs > 300 {
		return fmt.Errorf("window_secs must be within 1..300, got %d", c.WindowSecs)
	}
	if !c.Penalty.valid() {
		return fmt.Errorf("unknown penalty %q", c.Penalty)
	}
	return nil
}

// Action is what the penalty-execution collaborator should do next.
type Action int

const (
	// ActionNone: not flooding, nothing to do.
	ActionNone Action = iota
	// ActionWarn: flooding, but warnings remain; send a warning message.
	ActionWarn
	// ActionApply: warnings exhausted; apply the configured penalty and then
	// call Tracker.ResetUser.
	ActionApply
)

// Decision is the outcome of evaluating a Record result against a policy.
type Decision struct {
	Action Action

	// Remaining is how many more floods are tolerated before the penalty,
	// including the current one. Set for ActionWarn.
	Remaining uint32

	// Penalty and Duration are set for ActionApply. Zero duration on mute or
	// tempban means permanent.
	Penalty  Penalty
	Duration time.Duration
}

// Evaluate turns a (flooding, warnings) pair into the warn-then-penalize
// ladder. It is pure: the caller owns messaging, the actual restriction, and
// the ResetUser that follows a penalty.
func Evaluate(flooding bool, warnings uint32, cfg Config) Decision {
	if !flooding {
		return Decision{Action: ActionNone}
	}
	if warnings <= cfg.WarningsBeforePenalty {
		return Decision{
			Action:    ActionWarn,
			Remaining: cfg.WarningsBeforePenalty - warnings + 1,
		}
	}
	return Decision{
		Action:   ActionApply,
		Penalty:  cfg.Penalty,
		Duration: cfg.PenaltyDuration(),
	}
}
