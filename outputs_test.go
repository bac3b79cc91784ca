//go:build !tinygo

package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSysfsLED(t *testing.T) {
	p := filepath.Join(t.TempDir(), "brightness")
	led := &sysfsLED{path: p, log: discardLogger()}

	led.Set(true)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))

	led.Set(false)
	data, err = os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "0", string(data))
}

func TestSysfsLEDLogsRepeatedErrorOnce(t *testing.T) {
	var buf bytes.Buffer
	led := &sysfsLED{
		path: filepath.Join(t.TempDir(), "missing", "brightness"),
		log:  log.New(&buf, "", 0),
	}
	for i := 0; i < 3; i++ {
		led.Set(i%2 == 0)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "set led"))
}

func TestSysfsLEDDisabled(t *testing.T) {
	led := newSysfsLED("", discardLogger())
	led.Set(true) // no-op, must not panic
	assert.Empty(t, led.path)
	assert.Equal(t, "/sys/class/leds/led0/brightness", newSysfsLED("led0", discardLogger()).path)
}

func TestBellBuzzer(t *testing.T) {
	var out bytes.Buffer
	b := &bellBuzzer{out: &out}
	require.NoError(t, b.On())
	require.NoError(t, b.On())
	assert.Equal(t, "\a\a", out.String())
	require.NoError(t, b.Off())
	assert.False(t, b.on)
}
