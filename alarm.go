package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/exp/slices"
)

// ErrInvalidTime is returned when an alarm time is not H:MM/HH:MM or is out
// of range.
var ErrInvalidTime = errors.New("invalid alarm time")

// AlarmTime is a time of day with minute resolution. It travels as "HH:MM".
type AlarmTime struct {
	Hour   int
	Minute int
}

func parseAlarmTime(s string) (AlarmTime, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return AlarmTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return AlarmTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return AlarmTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	t := AlarmTime{Hour: hour, Minute: minute}
	if !t.valid() {
		return AlarmTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return t, nil
}

func (t AlarmTime) valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t AlarmTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t AlarmTime) MarshalJSON() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("%w: %d:%d", ErrInvalidTime, t.Hour, t.Minute)
	}
	return json.Marshal(t.String())
}

func (t *AlarmTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTime, data)
	}
	parsed, err := parseAlarmTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Alarm is one entry of the list the mobile app edits. Its identity is its
// position in the list; ID is whatever the app attached and is only carried
// through.
type Alarm struct {
	ID      int64     `json:"id,omitempty"`
	Time    AlarmTime `json:"time"`
	Enabled bool      `json:"enabled"`
}

// Matches reports whether the alarm should ring at hour:minute.
func (a Alarm) Matches(hour, minute int) bool {
	return a.Enabled && a.Time.Hour == hour && a.Time.Minute == minute
}

// AlarmList is ordered; order is preserved across storage and replies.
type AlarmList []Alarm

func decodeAlarmList(data []byte) (AlarmList, error) {
	var list AlarmList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = AlarmList{}
	}
	return list, nil
}

func encodeAlarmList(list AlarmList) ([]byte, error) {
	if list == nil {
		list = AlarmList{}
	}
	return json.Marshal(list)
}

// alarmState holds the single live AlarmList. Writers replace it wholesale;
// readers get a copy.
type alarmState struct {
	mu     sync.RWMutex
	alarms AlarmList
}

func newAlarmState(initial AlarmList) *alarmState {
	return &alarmState{alarms: slices.Clone(initial)}
}

func (s *alarmState) get() AlarmList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.alarms)
}

func (s *alarmState) replace(list AlarmList) {
	list = slices.Clone(list)
	s.mu.Lock()
	s.alarms = list
	s.mu.Unlock()
}

func (s *alarmState) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alarms)
}
