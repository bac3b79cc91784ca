package main

import (
	"fmt"
	"time"
)

// Config holds the daemon settings. Firmware builds use newConfig as is.
type Config struct {
	DeviceName string `toml:"device_name"`
	Debug      bool   `toml:"debug"`
	MaxAlarms  int    `toml:"max_alarms"` // 0 means unlimited

	Log struct {
		Filename string `toml:"filename"`
	} `toml:"log"`

	Storage struct {
		AlarmsFile        string `toml:"alarms_file"`
		WifiFile          string `toml:"wifi_file"`
		SaveEveryFragment bool   `toml:"save_every_fragment"`
	} `toml:"storage"`

	Clock struct {
		Tick              duration `toml:"tick"`
		OncePerMinute     bool     `toml:"once_per_minute"`
		Timezone          string   `toml:"timezone"`   // IANA name, empty for local time
		UTCOffset         duration `toml:"utc_offset"` // fixed zone used when Timezone is empty
	} `toml:"clock"`

	BLE struct {
		Adapter           string   `toml:"adapter"`
		FrameSize         int      `toml:"frame_size"`
		FrameDelay        duration `toml:"frame_delay"`
		AdvertiseInterval duration `toml:"advertise_interval"`
	} `toml:"ble"`

	Indicator struct {
		LED    string   `toml:"led"` // sysfs LED name, host only
		Period duration `toml:"period"`
		Offset duration `toml:"offset"`
	} `toml:"indicator"`

	Display struct {
		Enabled bool   `toml:"enabled"`
		Listen  string `toml:"listen"`
	} `toml:"display"`
}

func newConfig() *Config {
	cfg := &Config{
		DeviceName: "ESP32",
	}
	cfg.Storage.AlarmsFile = "alarms.json"
	cfg.Storage.WifiFile = "wifi.json"
	cfg.Storage.SaveEveryFragment = true
	cfg.Clock.Tick = duration{time.Second}
	cfg.BLE.Adapter = "hci0"
	cfg.BLE.FrameSize = defaultFrameSize
	cfg.BLE.FrameDelay = duration{20 * time.Millisecond}
	cfg.BLE.AdvertiseInterval = duration{100 * time.Millisecond}
	cfg.Indicator.Period = duration{time.Second}
	cfg.Indicator.Offset = duration{200 * time.Millisecond}
	cfg.Display.Listen = "localhost:8080"
	return cfg
}

func (c *Config) validate() error {
	if c.DeviceName == "" {
		return fmt.Errorf("device_name is empty")
	}
	if c.Clock.Tick.Duration <= 0 {
		return fmt.Errorf("clock.tick must be positive, got %s", c.Clock.Tick)
	}
	if c.Indicator.Period.Duration <= 0 {
		return fmt.Errorf("indicator.period must be positive, got %s", c.Indicator.Period)
	}
	if c.BLE.FrameSize <= 0 {
		return fmt.Errorf("ble.frame_size must be positive, got %d", c.BLE.FrameSize)
	}
	if c.MaxAlarms < 0 {
		return fmt.Errorf("max_alarms must not be negative, got %d", c.MaxAlarms)
	}
	return nil
}

// location resolves the zone alarms are matched in.
func (c *Config) location() (*time.Location, error) {
	if c.Clock.Timezone != "" {
		loc, err := time.LoadLocation(c.Clock.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone: %w", err)
		}
		return loc, nil
	}
	if off := c.Clock.UTCOffset.Duration; off != 0 {
		return time.FixedZone(fmt.Sprintf("UTC%+g", off.Hours()), int(off/time.Second)), nil
	}
	return time.Local, nil
}

// duration reads Go duration strings such as "1s" or "-3h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
