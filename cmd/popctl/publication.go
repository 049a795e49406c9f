package main

import (
	"fmt"

	"github.com/VeriBlock/nodecore-sub002/consensus"
	"github.com/VeriBlock/nodecore-sub002/node/store"
)

const (
	kindVtb = "vtb"
	kindAtv = "atv"
)

// publication holds exactly one decoded VTB or ATV.
type publication struct {
	vtb *consensus.VbkPublication
	atv *consensus.AltPublication
}

type publicationSummary struct {
	Kind             string `json:"kind"`
	ID               string `json:"id"`
	TxID             string `json:"txid"`
	TxNetwork        string `json:"tx_network,omitempty"`
	SourceAddress    string `json:"source_address"`
	ContainingBlock  string `json:"containing_block"`
	ContainingHeight int32  `json:"containing_height"`
	ContextLen       int    `json:"context_len"`
	PublishedBlock   string `json:"published_block,omitempty"`
	BlockOfProof     string `json:"block_of_proof,omitempty"`
	Identifier       *int64 `json:"identifier,omitempty"`
}

func decodePublication(kind string, raw []byte) (*publication, error) {
	switch kind {
	case kindVtb:
		p, err := consensus.DecodeVbkPublication(raw)
		if err != nil {
			return nil, err
		}
		return &publication{vtb: p}, nil
	case kindAtv:
		p, err := consensus.DecodeAltPublication(raw)
		if err != nil {
			return nil, err
		}
		return &publication{atv: p}, nil
	}
	return nil, fmt.Errorf("unknown publication kind %q", kind)
}

func (p *publication) kind() string {
	if p.vtb != nil {
		return kindVtb
	}
	return kindAtv
}

func (p *publication) id() consensus.Sha256Hash {
	if p.vtb != nil {
		return p.vtb.ID()
	}
	return p.atv.ID()
}

// value is the decoded publication itself, for dumping.
func (p *publication) value() any {
	if p.vtb != nil {
		return p.vtb
	}
	return p.atv
}

func (p *publication) summary() publicationSummary {
	s := publicationSummary{Kind: p.kind(), ID: p.id().String()}
	fill := func(txID consensus.Sha256Hash, network string, src consensus.Address, containing *consensus.VbkBlock, contextLen int) {
		s.TxID = txID.String()
		s.TxNetwork = network
		s.SourceAddress = src.String()
		s.ContainingBlock = containing.Hash().String()
		s.ContainingHeight = containing.Height
		s.ContextLen = contextLen
	}
	if p.vtb != nil {
		tx := p.vtb.Transaction
		fill(tx.ID(), networkText(tx.Network.UnwrapOr(0), tx.Network.IsSome()), tx.SourceAddress, p.vtb.ContainingBlock, len(p.vtb.Context))
		s.PublishedBlock = tx.PublishedBlock.Hash().String()
		s.BlockOfProof = tx.BlockOfProof.Hash().BtcString()
		return s
	}
	tx := p.atv.Transaction
	fill(tx.ID(), networkText(tx.Network.UnwrapOr(0), tx.Network.IsSome()), tx.SourceAddress, p.atv.ContainingBlock, len(p.atv.Context))
	if data, err := consensus.DecodePublicationData(tx.Data); err == nil {
		s.Identifier = &data.Identifier
	}
	return s
}

func networkText(magic byte, present bool) string {
	if !present {
		return ""
	}
	return fmt.Sprintf("%02x", magic)
}

func (p *publication) validate(v *consensus.Validator) error {
	if p.vtb != nil {
		return v.ValidateVbkPublication(p.vtb)
	}
	return v.ValidateAltPublication(p.atv)
}

func (p *publication) put(db *store.DB) (consensus.Sha256Hash, error) {
	if p.vtb != nil {
		return db.PutVtb(p.vtb)
	}
	return db.PutAtv(p.atv)
}

// getPublication loads a stored publication of the given kind.
func getPublication(db *store.DB, kind string, id consensus.Sha256Hash) (*publication, bool, error) {
	switch kind {
	case kindVtb:
		p, ok, err := db.GetVtb(id)
		if err != nil || !ok {
			return nil, ok, err
		}
		return &publication{vtb: p}, true, nil
	case kindAtv:
		p, ok, err := db.GetAtv(id)
		if err != nil || !ok {
			return nil, ok, err
		}
		return &publication{atv: p}, true, nil
	}
	return nil, false, fmt.Errorf("unknown publication kind %q", kind)
}
