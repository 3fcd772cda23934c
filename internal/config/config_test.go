package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestLoadOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
demo: shader
display:
  speed_hz: 40000000
leds:
  reset_us: 300
sim:
  headless: true
  mirror: ":8080"
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "shader", c.Demo)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 40_000_000, c.Display.SpeedHz)
	assert.Equal(t, 1000, c.Display.WatchdogMs)
	assert.Equal(t, 40_000_000, c.Leds.ClockHz)
	assert.Equal(t, 300, c.Leds.ResetUs)
	assert.True(t, c.Sim.Headless)
	assert.Equal(t, 2, c.Sim.Scale)
	assert.Equal(t, ":8080", c.Sim.Mirror)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badge.yaml")
	want := Default()
	want.Demo = "leds"
	want.Leds.Divider = 2
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("demo: [unterminated"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangeDivider(t *testing.T) {
	for _, div := range []string{"0", "256", "-1"} {
		path := filepath.Join(t.TempDir(), "div.yaml")
		require.NoError(t, os.WriteFile(path, []byte("leds:\n  divider: "+div+"\n"), 0644))
		_, err := Load(path)
		require.Error(t, err, "divider %s", div)
		assert.Contains(t, err.Error(), "leds.divider")
	}

	path := filepath.Join(t.TempDir(), "div.yaml")
	require.NoError(t, os.WriteFile(path, []byte("leds:\n  divider: 255\n"), 0644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), c.LedConfig().Divider)
}

func TestDriverConfigs(t *testing.T) {
	c := Default()
	d := c.DisplayConfig()
	assert.Equal(t, 80*physic.MegaHertz, d.Frequency)
	assert.Equal(t, time.Second, d.Watchdog)

	c.Display.WatchdogMs = -1
	assert.True(t, c.DisplayConfig().Watchdog < 0)

	l := c.LedConfig()
	assert.Equal(t, 40*physic.MegaHertz, l.Clock)
	assert.Equal(t, uint8(1), l.Divider)
	assert.Equal(t, 50*time.Microsecond, l.Reset)
}
