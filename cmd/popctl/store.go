package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/VeriBlock/nodecore-sub002/consensus"
	"github.com/VeriBlock/nodecore-sub002/node/store"
)

var storeCommand = cli.Command{
	Name:  "store",
	Usage: "Read and write the publication store.",
	Subcommands: []cli.Command{
		{
			Name:      "put",
			Usage:     "Store a publication without validating it.",
			ArgsUsage: "publication-hex",
			Flags:     []cli.Flag{kindFlag, fileFlag},
			Action:    storePut,
		},
		{
			Name:      "get",
			Usage:     "Show a stored publication and its last validation outcome.",
			ArgsUsage: "id",
			Flags:     []cli.Flag{kindFlag},
			Action:    storeGet,
		},
		{
			Name:   "list",
			Usage:  "List stored publication ids.",
			Action: storeList,
		},
		{
			Name:   "info",
			Usage:  "Show the store manifest.",
			Action: storeInfo,
		},
	},
}

func openStore(ctx *cli.Context) (*env, *store.DB, error) {
	e, err := loadEnv(ctx)
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(e.cfg.DataDir, e.cfg.Network)
	if err != nil {
		return nil, nil, err
	}
	return e, db, nil
}

func parseID(s string) (consensus.Sha256Hash, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return consensus.Sha256Hash{}, fmt.Errorf("bad id: %w", err)
	}
	return consensus.NewSha256Hash(b)
}

func storePut(ctx *cli.Context) error {
	raw, err := hexInput(ctx)
	if err != nil {
		return err
	}
	p, err := decodePublication(ctx.String("kind"), raw)
	if err != nil {
		return err
	}
	e, db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	id, err := p.put(db)
	if err != nil {
		return err
	}
	return e.printJSON(map[string]string{"id": id.String(), "kind": p.kind()})
}

type storedPublication struct {
	publicationSummary
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	CheckedAt int64  `json:"checked_at,omitempty"`
}

func storeGet(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected one publication id")
	}
	id, err := parseID(ctx.Args().First())
	if err != nil {
		return err
	}
	e, db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	p, ok, err := getPublication(db, ctx.String("kind"), id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s not found", ctx.String("kind"), id)
	}
	out := storedPublication{publicationSummary: p.summary(), Status: store.StatusUnknown.String()}
	entry, ok, err := db.GetStatus(id)
	if err != nil {
		return err
	}
	if ok {
		out.Status = entry.Status.String()
		out.Reason = entry.Reason
		out.CheckedAt = entry.CheckedAt.Unix()
	}
	return e.printJSON(out)
}

type listEntry struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

func storeList(ctx *cli.Context) error {
	e, db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// Collect first so status reads do not nest inside the iteration.
	var entries []listEntry
	err = db.ForEachVtb(func(id consensus.Sha256Hash, _ *consensus.VbkPublication) error {
		entries = append(entries, listEntry{Kind: kindVtb, ID: id.String()})
		return nil
	})
	if err != nil {
		return err
	}
	err = db.ForEachAtv(func(id consensus.Sha256Hash, _ *consensus.AltPublication) error {
		entries = append(entries, listEntry{Kind: kindAtv, ID: id.String()})
		return nil
	})
	if err != nil {
		return err
	}
	for i := range entries {
		id, err := parseID(entries[i].ID)
		if err != nil {
			return err
		}
		status := store.StatusUnknown
		entry, ok, err := db.GetStatus(id)
		if err != nil {
			return err
		}
		if ok {
			status = entry.Status
		}
		entries[i].Status = status.String()
	}
	if entries == nil {
		entries = []listEntry{}
	}
	return e.printJSON(entries)
}

func storeInfo(ctx *cli.Context) error {
	e, db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	m := db.Manifest()
	return e.printJSON(map[string]any{
		"dir":          db.Dir(),
		"network":      m.Network,
		"schema":       m.SchemaVersion,
		"vbk_tip":      m.VbkTipHashHex,
		"vbk_height":   m.VbkTipHeight,
		"publications": m.Publications,
	})
}
