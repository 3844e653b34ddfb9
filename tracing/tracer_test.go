package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerProvider(t *testing.T) {
	var buf bytes.Buffer
	tp, err := InitTracerProvider("esign-test", &buf)
	require.NoError(t, err)

	_, span := Tracer.Start(context.Background(), "envelope.create")
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "envelope.create")
	assert.Contains(t, buf.String(), "esign-test")
}
