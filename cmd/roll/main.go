// Package main provides the roll command: a one-shot dice roller and an
// interactive roll console. It wires together configuration, logging, the
// randomness source, macros, and Lua interpretation scripts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/diceroll/internal/config"
	"github.com/cory-johannsen/diceroll/internal/console"
	"github.com/cory-johannsen/diceroll/internal/dice"
	"github.com/cory-johannsen/diceroll/internal/macro"
	"github.com/cory-johannsen/diceroll/internal/observability"
	"github.com/cory-johannsen/diceroll/internal/scripting"
	"github.com/cory-johannsen/diceroll/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults only when empty)")
	seed := flag.Uint64("seed", 0, "roll with a deterministic seeded source")
	repl := flag.Bool("repl", false, "start the interactive console")
	interpret := flag.String("interpret", "", "Lua function that interprets the result")
	macrosPath := flag.String("macros", "", "macro YAML file or directory (overrides config)")
	scriptsDir := flag.String("scripts", "", "Lua scripts directory (overrides config)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [expression...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Roller.Source = "seeded"
			cfg.Roller.Seed = *seed
		case "macros":
			cfg.Macros.Path = *macrosPath
		case "scripts":
			cfg.Scripting.Dir = *scriptsDir
		}
	})

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	roller := dice.NewLoggedRoller(newSource(cfg.Roller), logger, dice.WithMaxRepeat(cfg.Roller.MaxRepeat))

	var macros *macro.Registry
	if cfg.Macros.Path != "" {
		macros, err = macro.Load(cfg.Macros.Path, dice.WithMaxRepeat(cfg.Roller.MaxRepeat))
		if err != nil {
			logger.Fatal("loading macros", zap.Error(err))
		}
		logger.Debug("macros loaded", zap.String("path", cfg.Macros.Path), zap.Int("count", macros.Len()))
	}

	var scripts *scripting.Manager
	if cfg.Scripting.Dir != "" {
		scripts = scripting.NewManager(roller, logger, cfg.Scripting.InstructionLimit)
		defer scripts.Close()
		if err := scripts.LoadDir(cfg.Scripting.Dir); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		logger.Debug("scripts loaded", zap.String("dir", cfg.Scripting.Dir), zap.Strings("functions", scripts.Functions()))
	}

	con := console.NewConsole(cfg.Console, os.Stdin, os.Stdout, roller, macros, scripts, logger)

	args := flag.Args()
	if *repl || len(args) == 0 {
		lifecycle := server.NewLifecycle(logger)
		lifecycle.Add("console", con)
		if err := lifecycle.Run(context.Background()); err != nil {
			logger.Fatal("console error", zap.Error(err))
		}
		return
	}

	line := strings.Join(args, " ")
	if *interpret != "" {
		line += " | " + *interpret
	}
	out, err := con.Eval(line)
	fmt.Println(out)
	if err != nil {
		logger.Sync()
		os.Exit(1)
	}
}

func newSource(cfg config.RollerConfig) dice.Source {
	if cfg.Source == "seeded" {
		return dice.NewSeededSource(cfg.Seed)
	}
	return dice.NewCryptoSource()
}
