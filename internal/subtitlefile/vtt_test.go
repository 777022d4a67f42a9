package subtitlefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVTTTimestampBothForms(t *testing.T) {
	ms, ok := parseVTTTimestamp("01:02.500")
	require.True(t, ok)
	assert.Equal(t, int64(62500), ms)

	ms, ok = parseVTTTimestamp("00:01:02.500")
	require.True(t, ok)
	assert.Equal(t, int64(62500), ms)
}

func TestParseVTTBasic(t *testing.T) {
	content := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHello\n\n00:00:03.000 --> 00:00:04.000 align:start\nSecond\n"
	cues, err := ParseVTT(content)
	require.NoError(t, err)
	require.Len(t, cues, 2)
	assert.Equal(t, "Hello", cues[0].Text)
	assert.Equal(t, int64(4000), cues[1].EndMs)
}
