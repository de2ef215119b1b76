package shared

import (
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestSignalDirection(t *testing.T) {
	tests := []struct {
		name   string
		signal Signal
		want   Direction
	}{
		{
			name:   "long signal",
			signal: SignalLong,
			want:   Long,
		},
		{
			name:   "short signal",
			signal: SignalShort,
			want:   Short,
		},
		{
			name:   "flat signal",
			signal: SignalFlat,
			want:   Flat,
		},
	}

	for _, test := range tests {
		direction := test.signal.Direction()
		if direction != test.want {
			t.Errorf("%s: expected %s direction, got %s",
				test.name, test.want.String(), direction.String())
		}
	}
}

func TestParseTimeframe(t *testing.T) {
	timeframe, err := ParseTimeframe("5m")
	assert.Nil(t, err)
	assert.Equal(t, FiveMinute, timeframe)

	timeframe, err = ParseTimeframe("1H")
	assert.Nil(t, err)
	assert.Equal(t, OneHour, timeframe)

	_, err = ParseTimeframe("3w")
	assert.Error(t, err)
}
