package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabstat/domain/stats"
	"tabstat/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"TABSTAT_ROUND", "TABSTAT_JOBS", "TABSTAT_PREFER_DMY", "TABSTAT_DATES_WHITELIST",
		"TABSTAT_MIN_PARALLEL_ROWS", "TABSTAT_MAX_VALUES", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Stats.Round)
	assert.Equal(t, 0, cfg.Stats.Jobs)
	assert.Equal(t, int64(10000), cfg.Stats.MinParallelRows)
	assert.Equal(t, stats.DefaultDatesWhitelist, cfg.Stats.DatesWhitelist)
	assert.Equal(t, "WARN", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TABSTAT_ROUND", "2")
	t.Setenv("TABSTAT_JOBS", "8")
	t.Setenv("TABSTAT_PREFER_DMY", "true")
	t.Setenv("TABSTAT_MAX_VALUES", "1000")

	cfg, err := Load()
	require.NoError(t, err)

	opts := cfg.Options()
	assert.Equal(t, 2, opts.Round)
	assert.Equal(t, 8, opts.Workers)
	assert.True(t, opts.PreferDayFirst)
	assert.Equal(t, 1000, opts.MaxValues)
	assert.Equal(t, stats.DatesNone, opts.Dates.Mode)
}

func TestLoadRejectsOutOfRange(t *testing.T) {
	cases := map[string]string{
		"TABSTAT_ROUND":             "17",
		"TABSTAT_JOBS":              "-1",
		"TABSTAT_MIN_PARALLEL_ROWS": "-5",
		"TABSTAT_MAX_VALUES":        "-2",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
