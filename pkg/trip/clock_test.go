package trip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	valid := map[string]int{
		"00:00": 0,
		"09:00": 540,
		"12:30": 750,
		"23:59": 1439,
	}
	for in, want := range valid {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "9:00", "24:00", "09:60", "ab:cd", "09-00", "09:000", " 09:00", "-1:00"} {
		_, err := ParseClock(in)
		assert.ErrorIs(t, err, ErrInvalidTime, "%q", in)
	}
}

func TestArrivalTime(t *testing.T) {
	tests := []struct {
		departure string
		minutes   int
		want      string
	}{
		{"09:00", 44, "09:44"},
		{"09:00", 262, "13:22"},
		{"23:50", 20, "00:10"},
		{"23:59", 1, "00:00"},
		{"09:00", 1500, "10:00"},
		{"00:00", 0, "00:00"},
	}

	for _, tt := range tests {
		got, err := ArrivalTime(tt.departure, tt.minutes)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s + %d", tt.departure, tt.minutes)
	}

	_, err := ArrivalTime("25:00", 10)
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "23:50", FormatClock(-10))
	assert.Equal(t, "00:10", FormatClock(1450))
	assert.Equal(t, "07:05", FormatClock(425))
}

func TestFormatClock12(t *testing.T) {
	tests := map[string]string{
		"00:00": "12:00 AM",
		"09:00": "9:00 AM",
		"11:59": "11:59 AM",
		"12:00": "12:00 PM",
		"12:30": "12:30 PM",
		"23:05": "11:05 PM",
	}
	for in, want := range tests {
		got, err := FormatClock12(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := FormatClock12("noon")
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestDepartureSlots(t *testing.T) {
	slots := DepartureSlots(30)
	require.Len(t, slots, 48)
	assert.Equal(t, "00:00", slots[0])
	assert.Equal(t, "00:30", slots[1])
	assert.Equal(t, "23:30", slots[47])

	assert.Len(t, DepartureSlots(60), 24)
	assert.Equal(t, []string{"00:00"}, DepartureSlots(1440))
	assert.Nil(t, DepartureSlots(0))
	assert.Nil(t, DepartureSlots(-15))
}
