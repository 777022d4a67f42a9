package subtitlefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSRTTimestamp(t *testing.T) {
	ms, ok := parseSRTTimestamp("00:01:30,500")
	require.True(t, ok)
	assert.Equal(t, int64(90500), ms)

	ms, ok = parseSRTTimestamp("01:23:45,123")
	require.True(t, ok)
	assert.Equal(t, int64(5025123), ms)
}

func TestParseSRTBasic(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,500\nHello\nWorld\n\n2\n00:00:03,000 --> 00:00:04,000\nSecond cue\n"
	cues, err := ParseSRT(content)
	require.NoError(t, err)
	require.Len(t, cues, 2)
	assert.Equal(t, int64(1000), cues[0].StartMs)
	assert.Equal(t, int64(2500), cues[0].EndMs)
	assert.Equal(t, "Hello\nWorld", cues[0].Text)
	assert.Equal(t, "Second cue", cues[1].Text)
}

func TestParseSRTSkipsEmptyTrailingCue(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\n   \n"
	cues, err := ParseSRT(content)
	require.NoError(t, err)
	assert.Empty(t, cues)
}
