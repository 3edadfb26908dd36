package kafka

import (
	"bytes"
	"testing"

	chlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

func TestClientLogger(t *testing.T) {
	prev := utils.Logger
	t.Cleanup(func() { utils.Logger = prev })

	utils.Logger = nil
	l := newClientLogger("source")
	assert.Equal(t, kgo.LogLevelNone, l.Level())
	l.Log(kgo.LogLevelError, "ignored")

	var buf bytes.Buffer
	utils.Logger = chlog.New(&buf)

	utils.Logger.SetLevel(chlog.DebugLevel)
	assert.Equal(t, kgo.LogLevelInfo, l.Level())
	utils.Logger.SetLevel(chlog.InfoLevel)
	assert.Equal(t, kgo.LogLevelWarn, l.Level())
	utils.Logger.SetLevel(chlog.ErrorLevel)
	assert.Equal(t, kgo.LogLevelError, l.Level())

	l.Log(kgo.LogLevelError, "metadata request failed", "broker", 1)
	assert.Contains(t, buf.String(), "metadata request failed")
	assert.Contains(t, buf.String(), "cluster=source")
	assert.Contains(t, buf.String(), "broker=1")
}
