package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/diceroll/internal/config"
	"github.com/cory-johannsen/diceroll/internal/dice"
	"github.com/cory-johannsen/diceroll/internal/macro"
	"github.com/cory-johannsen/diceroll/internal/scripting"
)

// ErrNoMacros is reported for an "@name" line when no macros are loaded.
var ErrNoMacros = errors.New("no macros loaded")

// ErrNoScripts is reported for a "| fn" pipe when scripting is disabled.
var ErrNoScripts = errors.New("no interpretation scripts loaded")

const helpText = `commands:
  <expression>          roll a dice expression, e.g. 4d6 K3 : strength
  <expression> | <fn>   roll and pass the result to a Lua function
  @<macro> [more]       roll a macro, optionally extending it
  macros                list loaded macros
  functions             list interpretation functions
  help                  show this help
  quit                  leave the console`

// Console is a line-oriented REPL over an input and output stream. It
// implements server.Service.
type Console struct {
	cfg     config.ConsoleConfig
	in      io.Reader
	out     io.Writer
	roller  *dice.LoggedRoller
	macros  *macro.Registry
	scripts *scripting.Manager
	logger  *zap.Logger
	painter Painter

	quit     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	running  bool
}

// NewConsole creates a console reading commands from in and writing results
// to out. macros and scripts may be nil.
//
// Precondition: in, out, roller, and logger must be non-nil.
func NewConsole(cfg config.ConsoleConfig, in io.Reader, out io.Writer, roller *dice.LoggedRoller, macros *macro.Registry, scripts *scripting.Manager, logger *zap.Logger) *Console {
	return &Console{
		cfg:     cfg,
		in:      in,
		out:     out,
		roller:  roller,
		macros:  macros,
		scripts: scripts,
		logger:  logger,
		painter: Painter{Enabled: cfg.Color},
		quit:    make(chan struct{}),
	}
}

// Start runs the read-eval-print loop until the input ends, the user quits,
// or Stop is called.
//
// Postcondition: Returns nil on a clean finish, or the input's read error.
func (c *Console) Start() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("console already running")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()
	defer c.Stop()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go c.readLines(lines, readErr)

	c.logger.Debug("console started")
	c.prompt()
	for {
		select {
		case <-c.quit:
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				c.logger.Debug("console input closed")
				return <-readErr
			}
			out, done := c.Handle(line)
			if out != "" {
				fmt.Fprintln(c.out, out)
			}
			if done {
				c.logger.Debug("console quit")
				return nil
			}
			c.prompt()
		}
	}
}

// Stop makes Start return. Safe to call more than once; a stopped console
// cannot be restarted.
func (c *Console) Stop() {
	c.stopOnce.Do(func() { close(c.quit) })
}

func (c *Console) readLines(lines chan<- string, readErr chan<- error) {
	defer close(lines)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-c.quit:
			readErr <- nil
			return
		}
	}
	readErr <- scanner.Err()
}

func (c *Console) prompt() {
	if c.cfg.Prompt != "" {
		fmt.Fprint(c.out, c.cfg.Prompt)
	}
}

// Handle evaluates one input line and returns the text to print. done is
// true when the line asks the console to exit.
func (c *Console) Handle(line string) (out string, done bool) {
	trimmed := strings.TrimSpace(line)
	switch strings.ToLower(trimmed) {
	case "":
		return "", false
	case "help", "?":
		return helpText, false
	case "quit", "exit":
		return "", true
	case "macros":
		return c.listMacros(), false
	case "functions":
		return c.listFunctions(), false
	}
	out, _ = c.Eval(trimmed)
	return out, false
}

// splitPipe separates "expr | fn" at the last pipe.
func splitPipe(line string) (expr, fn string) {
	i := strings.LastIndex(line, "|")
	if i < 0 {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:])
}

// Eval rolls one expression line, expanding a leading "@macro" and piping the
// result through "| fn" when present.
//
// Postcondition: out always holds the text to print, including a rendered
// error; err is the first failure, or nil.
func (c *Console) Eval(line string) (out string, err error) {
	expr, fn := splitPipe(line)
	if strings.HasPrefix(expr, "@") {
		if c.macros == nil {
			return RenderError(c.painter, expr, ErrNoMacros), ErrNoMacros
		}
		expanded, err := c.macros.Expand(expr)
		if err != nil {
			return RenderError(c.painter, expr, err), err
		}
		expr = expanded
	}

	res, err := c.roller.RollExpr(expr)
	if err != nil {
		return RenderError(c.painter, expr, err), err
	}
	out = RenderResult(c.painter, res)
	if fn == "" {
		return out, nil
	}

	if c.scripts == nil {
		return out + "\n" + RenderError(c.painter, line, ErrNoScripts), ErrNoScripts
	}
	text, err := c.scripts.Interpret(fn, res)
	if err != nil {
		return out + "\n" + RenderError(c.painter, line, err), err
	}
	if text == "" {
		return out, nil
	}
	return out + "\n" + c.painter.Paint(Cyan, "=> "+text), nil
}

func (c *Console) listMacros() string {
	if c.macros == nil || c.macros.Len() == 0 {
		return "no macros loaded"
	}
	var b strings.Builder
	for i, m := range c.macros.All() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.painter.Paintf(Bold, "@%s", m.Name))
		b.WriteString("  " + m.Expression)
		if m.Description != "" {
			b.WriteString("  " + c.painter.Paint(Dim, m.Description))
		}
	}
	return b.String()
}

func (c *Console) listFunctions() string {
	if c.scripts == nil {
		return "no interpretation scripts loaded"
	}
	fns := c.scripts.Functions()
	if len(fns) == 0 {
		return "no interpretation functions defined"
	}
	return strings.Join(fns, "\n")
}
