package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/urfave/cli"

	"github.com/VeriBlock/nodecore-sub002/consensus"
	"github.com/VeriBlock/nodecore-sub002/node"
	"github.com/VeriBlock/nodecore-sub002/node/store"
)

var blockHashCommand = cli.Command{
	Name:      "blockhash",
	Usage:     "Hash a raw block header.",
	ArgsUsage: "header-hex",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "chain",
			Value: "vbk",
			Usage: "header chain: vbk (64 bytes) or btc (80 bytes)",
		},
		fileFlag,
	},
	Action: blockHash,
}

func blockHash(ctx *cli.Context) error {
	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}
	raw, err := hexInput(ctx)
	if err != nil {
		return err
	}
	switch ctx.String("chain") {
	case "vbk":
		b, err := consensus.ParseVbkBlockHeader(raw)
		if err != nil {
			return err
		}
		return e.printJSON(map[string]any{"hash": b.Hash().String(), "height": b.Height})
	case "btc":
		b, err := consensus.ParseBtcBlockHeader(raw)
		if err != nil {
			return err
		}
		return e.printJSON(map[string]any{"hash": b.Hash().BtcString()})
	}
	return fmt.Errorf("unknown chain %q", ctx.String("chain"))
}

var decodeCommand = cli.Command{
	Name:      "decode",
	Usage:     "Decode a serialized VTB or ATV.",
	ArgsUsage: "publication-hex",
	Flags: []cli.Flag{
		kindFlag,
		fileFlag,
		cli.BoolFlag{
			Name:  "spew",
			Usage: "dump every decoded field instead of a summary",
		},
	},
	Action: decode,
}

func decode(ctx *cli.Context) error {
	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}
	raw, err := hexInput(ctx)
	if err != nil {
		return err
	}
	p, err := decodePublication(ctx.String("kind"), raw)
	if err != nil {
		return err
	}
	if ctx.Bool("spew") {
		spew.Fdump(e.out, p.value())
		return nil
	}
	return e.printJSON(p.summary())
}

var validateCommand = cli.Command{
	Name:  "validate",
	Usage: "Validate a serialized VTB or ATV and record the outcome.",
	Description: `
	Runs every check for the publication against the configured network.
	Unless --dry-run is given the publication, its VeriBlock blocks and
	the outcome are written to the store.`,
	ArgsUsage: "publication-hex",
	Flags: []cli.Flag{
		kindFlag,
		fileFlag,
		cli.Int64Flag{
			Name:  "now",
			Usage: "unix time to validate at instead of the wall clock",
		},
		cli.BoolFlag{
			Name:  "dry-run",
			Usage: "do not write to the store",
		},
	},
	Action: validate,
}

type validateResult struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
	Stored bool   `json:"stored"`
}

func validate(ctx *cli.Context) error {
	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}
	raw, err := hexInput(ctx)
	if err != nil {
		return err
	}
	p, err := decodePublication(ctx.String("kind"), raw)
	if err != nil {
		return err
	}

	var clk clock.Clock = clock.NewDefaultClock()
	if ctx.IsSet("now") {
		clk = clock.NewTestClock(time.Unix(ctx.Int64("now"), 0))
	}
	v, err := node.NewValidator(e.cfg, clk)
	if err != nil {
		return err
	}

	res := validateResult{ID: p.id().String(), Kind: p.kind(), Valid: true}
	entry := store.StatusEntry{Status: store.StatusValid, CheckedAt: clk.Now()}
	if verr := p.validate(v); verr != nil {
		reason, ok := consensus.ReasonOf(verr)
		if !ok {
			return verr
		}
		res.Valid = false
		res.Reason = string(reason)
		res.Detail = verr.Error()
		entry = store.StatusEntry{Status: store.StatusInvalid, Reason: string(reason), CheckedAt: clk.Now()}
	}
	e.log.Infof("%s %s valid=%v %s", res.Kind, res.ID, res.Valid, res.Reason)

	if !ctx.Bool("dry-run") {
		if err := recordOutcome(e, p, entry); err != nil {
			return err
		}
		res.Stored = true
	}
	return e.printJSON(res)
}

func recordOutcome(e *env, p *publication, entry store.StatusEntry) error {
	db, err := store.Open(e.cfg.DataDir, e.cfg.Network)
	if err != nil {
		return err
	}
	defer db.Close()
	id, err := p.put(db)
	if err != nil {
		return err
	}
	if id != p.id() {
		return errors.New("store returned a different publication id")
	}
	return db.PutStatus(id, entry)
}
