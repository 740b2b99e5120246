// Package config holds the fixed timing and service parameters for a match
// instance. A Match value is built once when the match is created and passed
// around explicitly; it is never mutated afterwards.
package config

import (
	"strconv"
	"time"
)

const (
	defaultTickRate             = 5
	defaultMaxEmptySec          = 30
	defaultDelayBetweenGamesSec = 5
	defaultTurnTimeFastSec      = 10
	defaultTurnTimeNormalSec    = 20

	defaultInferenceAddress = "http://tf:8501/v1/models/ttt:predict"
	defaultInferenceTimeout = time.Second
)

// Match carries the per-match configuration.
type Match struct {
	// TickRate is how many times per second the match loop runs.
	TickRate int
	// MaxEmptySec is how long a match may sit with no connected players
	// before it shuts down.
	MaxEmptySec int
	// DelayBetweenGamesSec is the cool-down between rounds.
	DelayBetweenGamesSec int
	// TurnTimeFastSec and TurnTimeNormalSec bound how long a player has to
	// submit a move, depending on the match speed mode.
	TurnTimeFastSec   int
	TurnTimeNormalSec int

	// InferenceAddress is the prediction endpoint used for bot moves.
	InferenceAddress string
	// InferenceTimeout bounds a single prediction round trip. The call runs
	// inside a tick, so this must stay short.
	InferenceTimeout time.Duration
}

// Default returns the compiled-in match configuration.
func Default() *Match {
	return &Match{
		TickRate:             defaultTickRate,
		MaxEmptySec:          defaultMaxEmptySec,
		DelayBetweenGamesSec: defaultDelayBetweenGamesSec,
		TurnTimeFastSec:      defaultTurnTimeFastSec,
		TurnTimeNormalSec:    defaultTurnTimeNormalSec,
		InferenceAddress:     defaultInferenceAddress,
		InferenceTimeout:     defaultInferenceTimeout,
	}
}

// FromEnv builds a match configuration from the runtime environment map,
// falling back to defaults for missing or unparseable values.
func FromEnv(env map[string]string) *Match {
	cfg := Default()

	if val, ok := env["tictactoe_tick_rate"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			cfg.TickRate = i
		}
	}
	if val, ok := env["tictactoe_max_empty_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			cfg.MaxEmptySec = i
		}
	}
	if val, ok := env["tictactoe_delay_between_games_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			cfg.DelayBetweenGamesSec = i
		}
	}
	if val, ok := env["tictactoe_turn_time_fast_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			cfg.TurnTimeFastSec = i
		}
	}
	if val, ok := env["tictactoe_turn_time_normal_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			cfg.TurnTimeNormalSec = i
		}
	}
	if val, ok := env["tictactoe_tf_serving_address"]; ok && val != "" {
		cfg.InferenceAddress = val
	}
	if val, ok := env["tictactoe_inference_timeout_ms"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			cfg.InferenceTimeout = time.Duration(i) * time.Millisecond
		}
	}

	return cfg
}

// MaxEmptyTicks is the idle-shutdown threshold in ticks.
func (m *Match) MaxEmptyTicks() int {
	return m.MaxEmptySec * m.TickRate
}

// DelayBetweenGamesTicks is the inter-round cool-down in ticks.
func (m *Match) DelayBetweenGamesTicks() int64 {
	return int64(m.DelayBetweenGamesSec * m.TickRate)
}

// TurnDeadlineTicks is the turn timer in ticks for the given speed mode.
func (m *Match) TurnDeadlineTicks(fast bool) int64 {
	if fast {
		return int64(m.TurnTimeFastSec * m.TickRate)
	}
	return int64(m.TurnTimeNormalSec * m.TickRate)
}
