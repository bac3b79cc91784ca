//go:build tinygo

package main

import (
	"context"
	"log"
	"machine"
	"os"
	"sync/atomic"
	"time"

	"tinygo.org/x/bluetooth"
	"tinygo.org/x/drivers/buzzer"
	"tinygo.org/x/drivers/tm1637"
)

var adapter = bluetooth.DefaultAdapter

// Board wiring.
var (
	ledPin     = machine.LED
	buzzerPin  = machine.D5
	buttonPin  = machine.D6
	displayCLK = machine.D2
	displayDIO = machine.D3
)

const displayBrightness = 3

// buttonPressed is set from the pin interrupt and polled by a goroutine;
// interrupt handlers may not touch channels.
var buttonPressed atomic.Bool

func main() {
	logger := log.New(os.Stdout, "", 0)
	cfg := newConfig()

	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	buzzerPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	buttonPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	disp := tm1637.New(displayCLK, displayDIO, displayBrightness)
	disp.Configure()
	disp.ClearDisplay()

	radio := &nusRadio{
		adv:        adapter.DefaultAdvertisement(),
		frameSize:  cfg.BLE.FrameSize,
		frameDelay: cfg.BLE.FrameDelay.Duration,
	}

	var clock *alarmClock
	adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			clock.post(eventConnected, nil)
		} else {
			clock.post(eventDisconnected, nil)
		}
	})
	must("enable BLE stack", adapter.Enable())
	must("config adv", radio.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    cfg.DeviceName,
		ServiceUUIDs: []bluetooth.UUID{bluetooth.ServiceUUIDNordicUART},
	}))
	must("add service", adapter.AddService(&bluetooth.Service{
		UUID: bluetooth.ServiceUUIDNordicUART,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				UUID:  bluetooth.CharacteristicUUIDUARTRX,
				Flags: bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					clock.post(eventDataWritten, value)
				},
			},
			{
				Handle: &radio.tx,
				UUID:   bluetooth.CharacteristicUUIDUARTTX,
				Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
			},
		},
	}))

	bz := buzzer.New(buzzerPin)
	clock = newAlarmClock(cfg, logger, clockDeps{
		store:     newFlashStore(logger),
		transport: radio,
		led:       pinLED{ledPin},
		display:   tm1637Display{&disp},
		buzzer:    &bz,
		clock:     wallClock{},
	})

	buttonPin.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		buttonPressed.Store(true)
	})
	go func() {
		for {
			time.Sleep(20 * time.Millisecond)
			if buttonPressed.Swap(false) {
				clock.postLogged(eventButtonPressed, nil)
			}
		}
	}()

	logger.Println("advertising as", cfg.DeviceName)
	clock.run(context.Background())
}

// nusRadio is the transport on boards with a tinygo bluetooth stack.
type nusRadio struct {
	adv        *bluetooth.Advertisement
	tx         bluetooth.Characteristic
	frameSize  int
	frameDelay time.Duration
}

func (r *nusRadio) Advertise() error {
	return r.adv.Start()
}

func (r *nusRadio) Notify(data []byte) error {
	return sendFrames(data, r.frameSize, r.frameDelay, func(frame []byte) error {
		// Write also sends the notification.
		_, err := r.tx.Write(frame)
		return err
	})
}

type pinLED struct {
	pin machine.Pin
}

func (l pinLED) Set(on bool) {
	l.pin.Set(on)
}

type tm1637Display struct {
	dev *tm1637.Device
}

func (d tm1637Display) ShowTime(hour, minute int) error {
	d.dev.DisplayClock(int8(hour), int8(minute), true)
	return nil
}

func must(action string, err error) {
	if err != nil {
		panic("failed to " + action + ": " + err.Error())
	}
}
