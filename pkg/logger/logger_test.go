package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskingHandler_MasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil)))

	log.Info("configured bot", slog.String("token", "7810689974:secret"), slog.Int64("admin_chat_id", 6498632307))

	out := buf.String()
	assert.Contains(t, out, "token=***")
	assert.NotContains(t, out, "7810689974:secret")
	assert.Contains(t, out, "admin_chat_id=6498632307")
}

func TestFanout_DeliversToEveryEnabledHandler(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	h := newFanout(
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h)

	log.Info("order created")
	log.Error("redis unavailable")

	assert.Contains(t, infoBuf.String(), "order created")
	assert.Contains(t, infoBuf.String(), "redis unavailable")
	assert.NotContains(t, errBuf.String(), "order created")
	assert.Contains(t, errBuf.String(), "redis unavailable")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))

	ctx := WithCorrelationID(context.Background())
	id := CorrelationIDFromContext(ctx)
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, CorrelationIDFromContext(WithCorrelationID(context.Background())))
}

func TestMaskingHandler_MasksNestedGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil)))

	log.Info("payment", slog.Group("payment", slog.String("card_number", "9860 1266"), slog.Int("price", 160)))

	out := buf.String()
	assert.Contains(t, out, "payment.card_number=***")
	assert.Contains(t, out, "payment.price=160")
}
