package console_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/diceroll/internal/config"
	"github.com/cory-johannsen/diceroll/internal/console"
	"github.com/cory-johannsen/diceroll/internal/dice"
	"github.com/cory-johannsen/diceroll/internal/macro"
	"github.com/cory-johannsen/diceroll/internal/scripting"
)

type fixture struct {
	console *console.Console
	out     *bytes.Buffer
	logs    *observer.ObservedLogs
	roller  *dice.LoggedRoller
	logger  *zap.Logger
}

func newFixture(t *testing.T, in io.Reader, macros *macro.Registry, scripts *scripting.Manager, faces ...int) *fixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewSequenceSource(faces...), logger)
	out := &bytes.Buffer{}
	cfg := config.ConsoleConfig{Prompt: "roll> ", Color: false}
	return &fixture{
		console: console.NewConsole(cfg, in, out, roller, macros, scripts, logger),
		out:     out,
		logs:    logs,
		roller:  roller,
		logger:  logger,
	}
}

func testMacros(t *testing.T) *macro.Registry {
	t.Helper()
	reg := macro.NewRegistry()
	require.NoError(t, reg.Register(&macro.Macro{Name: "attack", Expression: "1d20 + 5 : attack", Description: "sword swing"}))
	require.NoError(t, reg.Register(&macro.Macro{Name: "dmg", Expression: "2d6"}))
	return reg
}

func testScripts(t *testing.T, roller *dice.LoggedRoller, logger *zap.Logger) *scripting.Manager {
	t.Helper()
	mgr := scripting.NewManager(roller, logger, 0)
	t.Cleanup(mgr.Close)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.lua"), []byte(`
		function double(r) return r.total * 2 end
		function quiet(r) end
		function broken(r) error("boom") end
	`), 0644))
	require.NoError(t, mgr.LoadDir(dir))
	return mgr
}

func TestConsole_Start_RollsUntilQuit(t *testing.T) {
	f := newFixture(t, strings.NewReader("2d6 + 1\n\nquit\n2d6\n"), nil, nil, 3, 4)
	require.NoError(t, f.console.Start())
	assert.Equal(t, "roll> [3, 4] + 1 = 8\nroll> roll> ", f.out.String())
}

func TestConsole_Start_EndsAtEOF(t *testing.T) {
	f := newFixture(t, strings.NewReader("1d6"), nil, nil, 5)
	require.NoError(t, f.console.Start())
	assert.Equal(t, "roll> [5] = 5\nroll> \n", f.out.String())
	assert.Equal(t, 1, f.logs.FilterMessage("dice roll").Len())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestConsole_Start_ReturnsReadError(t *testing.T) {
	f := newFixture(t, failingReader{}, nil, nil)
	err := f.console.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read failed")
}

func TestConsole_Stop_UnblocksStart(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	f := newFixture(t, pr, nil, nil)

	done := make(chan error, 1)
	go func() { done <- f.console.Start() }()
	time.Sleep(20 * time.Millisecond)
	f.console.Stop()
	f.console.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestConsole_Handle_Commands(t *testing.T) {
	f := newFixture(t, strings.NewReader(""), nil, nil)

	out, done := f.console.Handle("  ")
	assert.Empty(t, out)
	assert.False(t, done)

	out, done = f.console.Handle("HELP")
	assert.Contains(t, out, "@<macro>")
	assert.False(t, done)

	_, done = f.console.Handle("exit")
	assert.True(t, done)

	out, _ = f.console.Handle("macros")
	assert.Equal(t, "no macros loaded", out)

	out, _ = f.console.Handle("functions")
	assert.Equal(t, "no interpretation scripts loaded", out)
}

func TestConsole_Handle_ParseErrorShowsCaret(t *testing.T) {
	f := newFixture(t, strings.NewReader(""), nil, nil)
	out, done := f.console.Handle("2d6 + %")
	assert.False(t, done)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2d6 + %", lines[0])
	assert.Equal(t, "      ^", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "error: "))
	assert.Equal(t, 1, f.logs.FilterMessage("dice expression rejected").Len())
}

func TestConsole_Handle_ValidationError(t *testing.T) {
	f := newFixture(t, strings.NewReader(""), nil, nil)
	out, _ := f.console.Handle("3d6 t[]")
	assert.True(t, strings.HasPrefix(out, "error: "), out)
}

func TestConsole_Handle_Macros(t *testing.T) {
	f := newFixture(t, strings.NewReader(""), testMacros(t), nil, 12, 3, 4)

	out, _ := f.console.Handle("macros")
	assert.Equal(t, "@attack  1d20 + 5 : attack  sword swing\n@dmg  2d6", out)

	out, _ = f.console.Handle("@attack")
	assert.Equal(t, "[12] + 5 = 17, reason: attack", out)

	out, _ = f.console.Handle("@dmg + 2")
	assert.Equal(t, "[3, 4] + 2 = 9", out)

	out, _ = f.console.Handle("@nope")
	assert.Contains(t, out, "unknown macro")
}

func TestConsole_Handle_MacroWithoutRegistry(t *testing.T) {
	f := newFixture(t, strings.NewReader(""), nil, nil)
	out, _ := f.console.Handle("@attack")
	assert.Contains(t, out, console.ErrNoMacros.Error())
}

func TestConsole_Handle_Pipe(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewSequenceSource(2, 5, 1, 1, 6), logger)
	scripts := testScripts(t, roller, logger)
	c := console.NewConsole(config.ConsoleConfig{}, strings.NewReader(""), io.Discard, roller, nil, scripts, logger)

	out, _ := c.Handle("2d6 | double")
	assert.Equal(t, "[2, 5] = 7\n=> 14", out)

	out, _ = c.Handle("1d6|quiet")
	assert.Equal(t, "[1] = 1", out)

	out, _ = c.Handle("1d6 | broken")
	assert.Contains(t, out, "[1] = 1\nerror: ")
	assert.Contains(t, out, "boom")

	out, _ = c.Handle("1d6 | missing")
	assert.Contains(t, out, "error: ")

	out, _ = c.Handle("functions")
	assert.Equal(t, "broken\ndouble\nquiet", out)
}

func TestConsole_Handle_PipeWithoutScripts(t *testing.T) {
	f := newFixture(t, strings.NewReader(""), nil, nil, 4)
	out, _ := f.console.Handle("1d6 | double")
	assert.Equal(t, "[4] = 4\nerror: "+console.ErrNoScripts.Error(), out)
}

func TestConsole_Handle_ColorEnabled(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewSequenceSource(6, 1), logger)
	c := console.NewConsole(config.ConsoleConfig{Color: true}, strings.NewReader(""), io.Discard, roller, nil, nil, logger)

	out, _ := c.Handle("2d6")
	assert.Contains(t, out, console.BrightGreen+"6"+console.Reset)
	assert.Contains(t, out, console.BrightRed+"1"+console.Reset)
	assert.Equal(t, "[6, 1] = 7", console.StripANSI(out))
}

func TestConsole_Eval_ReportsErrors(t *testing.T) {
	f := newFixture(t, strings.NewReader(""), testMacros(t), nil, 2)

	out, err := f.console.Eval("1d6")
	require.NoError(t, err)
	assert.Equal(t, "[2] = 2", out)

	out, err = f.console.Eval("@missing")
	assert.True(t, errors.Is(err, macro.ErrUnknownMacro))
	assert.Contains(t, out, "error: ")

	_, err = f.console.Eval("1d0")
	var ve *dice.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = f.console.Eval("@dmg | fn")
	assert.True(t, errors.Is(err, console.ErrNoScripts))
}
