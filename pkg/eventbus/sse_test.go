package eventbus

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrameFormat(t *testing.T) {
	ev := Event{ID: "42", Type: EventContentDelta, Data: []byte(`{"text":"hi"}`)}
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, ev))

	assert.Equal(t, "id: 42\nevent: content-delta\ndata: {\"text\":\"hi\"}\n\n", buf.String())
}

func TestWriteHeartbeatIsACommentLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHeartbeat(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(":")))
}
