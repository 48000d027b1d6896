package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"fatal":   FatalLevel,
		"ERROR":   ErrorLevel,
		"warn":    WarnLevel,
		"warning": WarnLevel,
		"info":    InfoLevel,
		"debug":   DebugLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestLogger_FieldsAndPrefix(t *testing.T) {
	buf := &bytes.Buffer{}
	lo := NewLogger(buf)
	lo.SetPrefix("scheduler")

	lo.WithFields(Fields{TableField: "public.metrics"}).Info("maintained")

	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "scheduler", entry["source"])
	require.Equal(t, "public.metrics", entry[TableField])
	require.Equal(t, "maintained", entry["msg"])
}

func TestLogger_LevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	lo := NewLogger(buf)
	lo.SetLevel(ErrorLevel)

	lo.Info("dropped")
	require.Zero(t, buf.Len())

	lo.Error("kept")
	require.Contains(t, buf.String(), "kept")
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	lo := NewLogger(buf)

	ctx := NewContext(context.Background(), lo, Fields{PassField: "01J"})
	FromContext(ctx).Info("pass started")
	require.Contains(t, buf.String(), `"pass_id":"01J"`)

	require.NotNil(t, FromContext(context.Background()))
}

func TestLogger_WithPrefixSharesLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	lo := NewLogger(buf)
	child := lo.WithPrefix("lifecycle")

	lo.SetLevel(ErrorLevel)
	child.Info("dropped")
	require.Empty(t, buf.String())

	child.Error("kept")
	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "lifecycle", entry["source"])
}
