package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Reading
		wantErr bool
	}{
		{
			name: "valid line",
			line: "1234567890123,0,512",
			want: Reading{Timestamp: time.UnixMicro(1234567890123), Channel: 0, Value: 512},
		},
		{
			name: "valid line - max reading",
			line: "1234567890123,2,1023",
			want: Reading{Timestamp: time.UnixMicro(1234567890123), Channel: 2, Value: 1023},
		},
		{
			name: "valid line - zero reading",
			line: "1,1,0",
			want: Reading{Timestamp: time.UnixMicro(1), Channel: 1, Value: 0},
		},
		{
			name:    "invalid - wrong number of fields",
			line:    "1234567890123,0",
			wantErr: true,
		},
		{
			name:    "invalid - too many fields",
			line:    "1234567890123,0,512,extra",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric timestamp",
			line:    "abc,0,512",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric channel",
			line:    "1234567890123,A0,512",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric reading",
			line:    "1234567890123,0,abc",
			wantErr: true,
		},
		{
			name:    "invalid - reading out of range",
			line:    "1234567890123,0,1024",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Timestamp.UnixNano(), got.Timestamp.UnixNano())
			assert.Equal(t, tt.want.Channel, got.Channel)
			assert.Equal(t, tt.want.Value, got.Value)
		})
	}
}

func TestParseReady(t *testing.T) {
	name, ok := parseReady("READY,racer-xiao")
	assert.True(t, ok)
	assert.Equal(t, "racer-xiao", name)

	_, ok = parseReady("1234,0,12")
	assert.False(t, ok)
}

func TestCommandFormat(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"digital high", digitalCommand(9, true), "D9,1\n"},
		{"digital low", digitalCommand(10, false), "D10,0\n"},
		{"blink", blinkCommand(11, 125*time.Millisecond), "B11,125\n"},
		{"blink stop", blinkCommand(11, 0), "B11,0\n"},
		{"tone", toneCommand(3, 3900, time.Second), "T3,3900,1000\n"},
		{"no tone", noToneCommand(3), "N3\n"},
		{"report", reportCommand(2, time.Millisecond), "A2,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
