package logger

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func quietColor(t *testing.T) {
	t.Helper()
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })
}

func TestLogger_Levels(t *testing.T) {
	quietColor(t)

	var out, errOut bytes.Buffer
	l := Logger{Out: &out, Err: &errOut}

	l.Infof("hidden %d", 1)
	l.Warnf("hidden warn")
	l.Debugf("hidden debug")
	l.WarnfAlways("shown %s", "always")
	l.Errorf("broken %s", "thing")

	assert.Empty(t, out.String())
	assert.NotContains(t, errOut.String(), "hidden")
	assert.Contains(t, errOut.String(), "[warn] shown always")
	assert.Contains(t, errOut.String(), "[error] broken thing")
}

func TestLogger_Verbose(t *testing.T) {
	quietColor(t)

	var out, errOut bytes.Buffer
	l := Logger{Verbose: true, Out: &out, Err: &errOut}

	l.Infof("processing %d files", 3)
	l.Warnf("slow")

	assert.Contains(t, out.String(), "[info] processing 3 files")
	assert.Contains(t, errOut.String(), "[warn] slow")
}

func TestLogger_DebugStructured(t *testing.T) {
	quietColor(t)

	var errOut bytes.Buffer
	l := Logger{Debug: true, Err: &errOut}

	l.Debugw("staleness", map[string]any{"path": "a.txt", "decision": "skip"})

	assert.Contains(t, errOut.String(), "staleness")
	assert.Contains(t, errOut.String(), "path=a.txt")
	assert.Contains(t, errOut.String(), "decision=skip")
}

func TestLogger_ErrorfAndReturn(t *testing.T) {
	quietColor(t)

	var errOut bytes.Buffer
	l := Logger{Err: &errOut}

	err := l.ErrorfAndReturn("failed on %s", "x")
	assert.EqualError(t, err, "failed on x")
	assert.Contains(t, errOut.String(), "failed on x")
}
