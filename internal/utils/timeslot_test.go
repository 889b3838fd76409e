package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeSlot(t *testing.T) {
	parsed, err := ParseTimeSlot("MW 11:30 - 12:45pm")
	require.NoError(t, err)

	assert.Equal(t, "MW", parsed.Days)
	assert.Equal(t, "11:30", parsed.Start)
	assert.Equal(t, "12:45", parsed.End)
	assert.Equal(t, []string{"MW1130", "MW1145", "MW1200", "MW1215", "MW1230", "MW1245"}, parsed.Codes)
	assert.Equal(t, "MW1130\nMW1145\nMW1200\nMW1215\nMW1230\nMW1245", parsed.String())
}

func TestParseTimeSlot_Formats(t *testing.T) {
	tests := []struct {
		description string
		start       string
		end         string
		codes       int
	}{
		{"MWF 9:00-9:50am", "09:00", "09:50", 4},
		{"TR 2:00-3:15pm", "14:00", "15:15", 6},
		{"MW 6:00-7:15pm Evening", "18:00", "19:15", 6},
		{"MW 1 - 2:15", "13:00", "14:15", 6},
		{"TR 9am - 10:15am", "09:00", "10:15", 6},
		{"F 12:00 - 12:50PM", "12:00", "12:50", 4},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			parsed, err := ParseTimeSlot(tt.description)
			require.NoError(t, err)
			assert.Equal(t, tt.start, parsed.Start)
			assert.Equal(t, tt.end, parsed.End)
			assert.Len(t, parsed.Codes, tt.codes)
		})
	}
}

func TestParseTimeSlot_Invalid(t *testing.T) {
	for _, description := range []string{
		"",
		"MWF",
		"MWF 9:00",
		"MWF abc - def",
		"TR 3:00pm - 2:00pm",
	} {
		_, err := ParseTimeSlot(description)
		assert.ErrorIs(t, err, ErrInvalidTimeSlot, description)
	}
}
