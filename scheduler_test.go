package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestScheduler(clk clockSource, bz buzzer, alarms AlarmList) *scheduler {
	return &scheduler{
		clock:  clk,
		buzzer: bz,
		alarms: newAlarmState(alarms),
		log:    discardLogger(),
	}
}

func TestSchedulerMatching(t *testing.T) {
	tests := []struct {
		name    string
		alarm   Alarm
		now     time.Time
		ringing bool
	}{
		{"enabled match", Alarm{Time: AlarmTime{7, 30}, Enabled: true}, at(7, 30, 0), true},
		{"disabled", Alarm{Time: AlarmTime{7, 30}, Enabled: false}, at(7, 30, 0), false},
		{"next minute", Alarm{Time: AlarmTime{7, 30}, Enabled: true}, at(7, 31, 0), false},
		{"later in the minute", Alarm{Time: AlarmTime{7, 30}, Enabled: true}, at(7, 30, 42), true},
		{"other hour", Alarm{Time: AlarmTime{7, 30}, Enabled: true}, at(19, 30, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bz := &fakeBuzzer{}
			s := newTestScheduler(&fakeClock{now: tt.now}, bz, AlarmList{tt.alarm})
			assert.Equal(t, tt.ringing, s.tick())
			assert.Equal(t, tt.ringing, bz.isOn())
		})
	}
}

func TestSchedulerAnyEnabledAlarm(t *testing.T) {
	bz := &fakeBuzzer{}
	s := newTestScheduler(&fakeClock{now: at(6, 0, 0)}, bz, AlarmList{
		{Time: AlarmTime{6, 0}, Enabled: false},
		{Time: AlarmTime{5, 0}, Enabled: true},
		{Time: AlarmTime{6, 0}, Enabled: true},
	})
	assert.True(t, s.tick())
	assert.Equal(t, 1, bz.ons)
}

func TestSchedulerOncePerMinute(t *testing.T) {
	// A coarse tick never lands on second zero; the alarm still fires once.
	clk := &fakeClock{now: at(7, 29, 37)}
	bz := &fakeBuzzer{}
	s := newTestScheduler(clk, bz, AlarmList{{Time: AlarmTime{7, 30}, Enabled: true}})
	s.oncePerMinute = true

	assert.False(t, s.tick())
	clk.set(at(7, 30, 37))
	assert.True(t, s.tick())
	assert.Equal(t, 1, bz.ons)

	// The stop button holds for the rest of the minute.
	s.silence()
	clk.set(at(7, 30, 38))
	assert.False(t, s.tick())
	assert.False(t, bz.isOn())
	assert.Equal(t, 1, bz.ons)

	// The same time the next day fires again.
	clk.set(at(7, 30, 37).Add(24 * time.Hour))
	assert.True(t, s.tick())
	assert.Equal(t, 2, bz.ons)
}

func TestSchedulerRetriggersWithinMinute(t *testing.T) {
	clk := &fakeClock{now: at(7, 30, 0)}
	bz := &fakeBuzzer{}
	s := newTestScheduler(clk, bz, AlarmList{{Time: AlarmTime{7, 30}, Enabled: true}})

	for sec := 0; sec < 3; sec++ {
		clk.set(at(7, 30, sec))
		s.tick()
	}
	assert.Equal(t, 3, bz.ons)

	// The stop button silences until the next tick re-fires it.
	s.silence()
	assert.False(t, bz.isOn())
	assert.False(t, s.ringing.Load())
	s.tick()
	assert.True(t, bz.isOn())

	// Once the minute rolls over nothing re-fires.
	s.silence()
	clk.set(at(7, 31, 0))
	assert.False(t, s.tick())
	assert.False(t, bz.isOn())
}

func TestSchedulerSilenceWhenQuiet(t *testing.T) {
	bz := &fakeBuzzer{}
	s := newTestScheduler(&fakeClock{now: at(1, 0, 0)}, bz, nil)
	s.silence()
	s.silence()
	assert.Equal(t, 2, bz.offs)
	assert.False(t, bz.isOn())
}

func TestSchedulerUpdatesDisplay(t *testing.T) {
	disp := &fakeDisplay{err: errRadio}
	s := newTestScheduler(&fakeClock{now: at(9, 5, 59)}, &fakeBuzzer{}, nil)
	s.display = disp

	s.tick()
	assert.Equal(t, []string{"09:05"}, disp.shown)
}

func TestSchedulerBuzzerFailure(t *testing.T) {
	bz := &fakeBuzzer{onErr: errRadio}
	s := newTestScheduler(&fakeClock{now: at(7, 30, 0)}, bz, AlarmList{{Time: AlarmTime{7, 30}, Enabled: true}})
	assert.False(t, s.tick())
	assert.False(t, s.ringing.Load())
}

func TestWallClockLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	_, off := wallClock{loc: loc}.Now().Zone()
	assert.Equal(t, -3*60*60, off)
}
