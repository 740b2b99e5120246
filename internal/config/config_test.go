package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5, cfg.TickRate)
	assert.Equal(t, 30, cfg.MaxEmptySec)
	assert.Equal(t, 5, cfg.DelayBetweenGamesSec)
	assert.Equal(t, 10, cfg.TurnTimeFastSec)
	assert.Equal(t, 20, cfg.TurnTimeNormalSec)
	assert.Equal(t, time.Second, cfg.InferenceTimeout)
	assert.NotEmpty(t, cfg.InferenceAddress)
}

func TestFromEnv(t *testing.T) {
	t.Run("EmptyEnvKeepsDefaults", func(t *testing.T) {
		assert.Equal(t, Default(), FromEnv(nil))
	})

	t.Run("Overrides", func(t *testing.T) {
		cfg := FromEnv(map[string]string{
			"tictactoe_tick_rate":               "10",
			"tictactoe_max_empty_sec":           "60",
			"tictactoe_delay_between_games_sec": "3",
			"tictactoe_turn_time_fast_sec":      "5",
			"tictactoe_turn_time_normal_sec":    "30",
			"tictactoe_tf_serving_address":      "http://inference:8501/v1/models/ttt:predict",
			"tictactoe_inference_timeout_ms":    "250",
		})

		assert.Equal(t, 10, cfg.TickRate)
		assert.Equal(t, 60, cfg.MaxEmptySec)
		assert.Equal(t, 3, cfg.DelayBetweenGamesSec)
		assert.Equal(t, 5, cfg.TurnTimeFastSec)
		assert.Equal(t, 30, cfg.TurnTimeNormalSec)
		assert.Equal(t, "http://inference:8501/v1/models/ttt:predict", cfg.InferenceAddress)
		assert.Equal(t, 250*time.Millisecond, cfg.InferenceTimeout)
	})

	t.Run("BadValuesIgnored", func(t *testing.T) {
		cfg := FromEnv(map[string]string{
			"tictactoe_tick_rate":            "zero",
			"tictactoe_max_empty_sec":        "-5",
			"tictactoe_turn_time_fast_sec":   "0",
			"tictactoe_tf_serving_address":   "",
			"tictactoe_inference_timeout_ms": "1.5",
		})

		assert.Equal(t, Default(), cfg)
	})
}

func TestDerivedTicks(t *testing.T) {
	cfg := Default()

	require.Equal(t, 150, cfg.MaxEmptyTicks())
	require.Equal(t, int64(25), cfg.DelayBetweenGamesTicks())
	require.Equal(t, int64(50), cfg.TurnDeadlineTicks(true))
	require.Equal(t, int64(100), cfg.TurnDeadlineTicks(false))
}
