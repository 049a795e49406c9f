package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btclog/v2"
	"github.com/urfave/cli"

	"github.com/VeriBlock/nodecore-sub002/node"
)

// env is what every command needs once global flags are resolved.
type env struct {
	cfg node.Config
	log btclog.Logger
	out io.Writer
}

// loadEnv resolves the config file, then global flags on top of it, and
// points the package loggers at the app's error writer.
func loadEnv(ctx *cli.Context) (*env, error) {
	cfg := node.DefaultConfig()
	if path := ctx.GlobalString("config"); path != "" {
		loaded, err := node.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if ctx.GlobalIsSet("network") {
		cfg.Network = ctx.GlobalString("network")
	}
	if ctx.GlobalIsSet("datadir") {
		cfg.DataDir = ctx.GlobalString("datadir")
	}
	if ctx.GlobalIsSet("loglevel") {
		cfg.LogLevel = ctx.GlobalString("loglevel")
	}
	if err := node.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	errw := ctx.App.ErrWriter
	if errw == nil {
		errw = os.Stderr
	}
	logger, err := node.SetupLoggers(errw, cfg.LogLevel, "CMD")
	if err != nil {
		return nil, err
	}
	out := ctx.App.Writer
	if out == nil {
		out = os.Stdout
	}
	return &env{cfg: cfg, log: logger, out: out}, nil
}

func (e *env) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "%s\n", b)
	return err
}

// hexInput returns the bytes named by --file, or else the first argument,
// decoded from hex.
func hexInput(ctx *cli.Context) ([]byte, error) {
	var text string
	if path := ctx.String("file"); path != "" {
		raw, err := node.ReadInputFile(path)
		if err != nil {
			return nil, err
		}
		text = string(raw)
	} else {
		if ctx.NArg() != 1 {
			return nil, errors.New("expected one hex argument or --file")
		}
		text = ctx.Args().First()
	}
	text = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(text)), "0x")
	b, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("bad hex input: %w", err)
	}
	return b, nil
}

var (
	fileFlag = cli.StringFlag{
		Name:  "file",
		Usage: "read hex input from this file instead of the argument",
	}
	kindFlag = cli.StringFlag{
		Name:  "kind",
		Value: "atv",
		Usage: "publication kind: vtb or atv",
	}
)
