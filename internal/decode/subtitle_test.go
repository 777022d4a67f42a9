package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avplay/engine/internal/media"
	"github.com/avplay/engine/internal/mediaqueue"
)

func TestStripSubtitleMarkupRemovesASSOverrides(t *testing.T) {
	got := stripSubtitleMarkup(`{\an8}Hello\Nworld`)
	assert.Equal(t, "Hello\nworld", got)
}

func TestStripSubtitleMarkupRemovesHTMLTags(t *testing.T) {
	got := stripSubtitleMarkup(`<i>italic</i> and <font color="red">red</font>`)
	assert.Equal(t, "italic and red", got)
}

func TestStripSubtitleMarkupEmptyForBitmapOnlyPayload(t *testing.T) {
	assert.Equal(t, "", stripSubtitleMarkup("   "))
	assert.Equal(t, "", stripSubtitleMarkup(`{\an8}`))
}

func TestSubtitleDecoderDropsEmptyCuesAndKeepsText(t *testing.T) {
	in := mediaqueue.NewPacketQueue(4)
	store := NewSubtitleStore()
	d := NewSubtitleDecoder(in, store, nopLogger{})

	go d.Run()

	in.Send(&media.Packet{Type: media.PacketSubtitle, PTSMs: 1000, DurationMs: 2000, Payload: []byte("hello")}, nil)
	in.Send(&media.Packet{Type: media.PacketSubtitle, PTSMs: 5000, DurationMs: 1000, Payload: []byte("   ")}, nil)
	in.Send(&media.Packet{Type: media.PacketVideo, PTSMs: 6000}, nil)

	require.Eventually(t, func() bool { return len(store.Snapshot()) == 1 }, time.Second, time.Millisecond)

	cues := store.Snapshot()
	require.Len(t, cues, 1)
	assert.Equal(t, "hello", cues[0].Text)
	assert.Equal(t, int64(1000), cues[0].StartMs)
	assert.Equal(t, int64(3000), cues[0].EndMs)

	in.Close()
}

func TestSubtitleStoreDrain(t *testing.T) {
	store := NewSubtitleStore()
	store.Add(media.SubtitleCue{StartMs: 0, EndMs: 1000, Text: "a"})
	require.Len(t, store.Snapshot(), 1)
	store.Drain()
	assert.Empty(t, store.Snapshot())
}
