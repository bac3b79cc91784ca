package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlarmTime(t *testing.T) {
	tests := []struct {
		in      string
		want    AlarmTime
		wantErr bool
	}{
		{in: "07:30", want: AlarmTime{7, 30}},
		{in: "7:30", want: AlarmTime{7, 30}},
		{in: "00:00", want: AlarmTime{0, 0}},
		{in: "23:59", want: AlarmTime{23, 59}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:5", wantErr: true},
		{in: "1230", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAlarmTime(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlarmJSON(t *testing.T) {
	// Shape written by the mobile app, including its id.
	in := `[{"id":1700000000000,"time":"6:05","enabled":true},{"time":"22:15","enabled":false}]`
	list, err := decodeAlarmList([]byte(in))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, Alarm{ID: 1700000000000, Time: AlarmTime{6, 5}, Enabled: true}, list[0])
	assert.Equal(t, Alarm{Time: AlarmTime{22, 15}}, list[1])

	out, err := encodeAlarmList(list)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1700000000000,"time":"06:05","enabled":true},{"time":"22:15","enabled":false}]`, string(out))
}

func TestAlarmJSONRejectsBadTime(t *testing.T) {
	_, err := decodeAlarmList([]byte(`[{"time":"25:00","enabled":true}]`))
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = decodeAlarmList([]byte(`[{"time":730,"enabled":true}]`))
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = json.Marshal(Alarm{Time: AlarmTime{Hour: 30}})
	assert.Error(t, err)
}

func TestEncodeEmptyList(t *testing.T) {
	out, err := encodeAlarmList(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))

	list, err := decodeAlarmList([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestAlarmMatches(t *testing.T) {
	a := Alarm{Time: AlarmTime{7, 30}, Enabled: true}
	assert.True(t, a.Matches(7, 30))
	assert.False(t, a.Matches(7, 31))
	assert.False(t, a.Matches(19, 30))

	a.Enabled = false
	assert.False(t, a.Matches(7, 30))
}

func TestAlarmStateReturnsCopies(t *testing.T) {
	s := newAlarmState(AlarmList{{Time: AlarmTime{1, 0}, Enabled: true}})
	got := s.get()
	got[0].Enabled = false
	assert.True(t, s.get()[0].Enabled)

	s.replace(AlarmList{})
	assert.Equal(t, 0, s.len())
}
