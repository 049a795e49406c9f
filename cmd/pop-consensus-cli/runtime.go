package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/VeriBlock/nodecore-sub002/consensus"
	"github.com/VeriBlock/nodecore-sub002/crypto"
)

type Request struct {
	Op string `json:"op"`

	HeaderHex string `json:"header_hex,omitempty"`

	// Merkle paths come either in text form (index:subject:layers...) or
	// in their binary stream form.
	Path    string `json:"path,omitempty"`
	PathHex string `json:"path_hex,omitempty"`

	TxHex      string `json:"tx_hex,omitempty"`
	PayloadHex string `json:"payload_hex,omitempty"`

	Bits   uint32 `json:"bits,omitempty"`
	Target string `json:"target,omitempty"`

	PublicationHex string `json:"publication_hex,omitempty"`
	Network        string `json:"network,omitempty"`
	Now            int64  `json:"now,omitempty"`
}

type Response struct {
	Ok     bool   `json:"ok"`
	Err    string `json:"err,omitempty"`
	Reason string `json:"reason,omitempty"`

	HashHex   string `json:"hash,omitempty"`
	RootHex   string `json:"merkle_root,omitempty"`
	Contains  *bool  `json:"contains,omitempty"`
	TargetHex string `json:"target,omitempty"`
	Bits      uint32 `json:"bits,omitempty"`
	Valid     *bool  `json:"valid,omitempty"`

	ID             string `json:"id,omitempty"`
	TxID           string `json:"txid,omitempty"`
	TxNetwork      string `json:"tx_network,omitempty"`
	SourceAddress  string `json:"source_address,omitempty"`
	ContainingHash string `json:"containing_hash,omitempty"`
	ContextLen     int    `json:"context_len,omitempty"`
	PublishedHash  string `json:"published_hash,omitempty"`
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

// writeConsensusErr reports codec failures by code. Anything else is
// passed through as text.
func writeConsensusErr(w io.Writer, err error) {
	if code, ok := consensus.CodeOf(err); ok {
		writeResp(w, Response{Ok: false, Err: string(code)})
		return
	}
	writeResp(w, Response{Ok: false, Err: err.Error()})
}

func boolPtr(v bool) *bool {
	return &v
}

func decodeHexField(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(s)), "0x")
	return hex.DecodeString(s)
}

func parseTarget(s string) (*big.Int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(s)), "0x")
	if s == "" {
		return nil, fmt.Errorf("empty target")
	}
	t, ok := new(big.Int).SetString(s, 16)
	if !ok || t.Sign() < 0 {
		return nil, fmt.Errorf("bad target %q", s)
	}
	return t, nil
}

func validatorFor(req Request) (*consensus.Validator, error) {
	network := req.Network
	if network == "" {
		network = consensus.MainNetParams.Name
	}
	params, err := consensus.ParamsForNetwork(network)
	if err != nil {
		return nil, err
	}
	var clk clock.Clock
	if req.Now != 0 {
		clk = clock.NewTestClock(time.Unix(req.Now, 0))
	}
	return consensus.NewValidator(params, crypto.Secp256k1Provider{}, clk), nil
}

func networkText(n fn.Option[byte]) string {
	if n.IsNone() {
		return ""
	}
	return fmt.Sprintf("%02x", n.UnwrapOr(0))
}

func writeValidation(w io.Writer, err error) {
	if err == nil {
		writeResp(w, Response{Ok: true, Valid: boolPtr(true)})
		return
	}
	if reason, ok := consensus.ReasonOf(err); ok {
		writeResp(w, Response{Ok: true, Valid: boolPtr(false), Reason: string(reason)})
		return
	}
	writeConsensusErr(w, err)
}

func run(r io.Reader, w io.Writer) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		writeResp(w, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return
	}

	switch req.Op {
	case "vbk_block_hash":
		raw, err := decodeHexField(req.HeaderHex)
		if err != nil {
			writeResp(w, Response{Ok: false, Err: "bad hex"})
			return
		}
		b, err := consensus.ParseVbkBlockHeader(raw)
		if err != nil {
			writeConsensusErr(w, err)
			return
		}
		writeResp(w, Response{Ok: true, HashHex: b.Hash().String()})

	case "btc_block_hash":
		raw, err := decodeHexField(req.HeaderHex)
		if err != nil {
			writeResp(w, Response{Ok: false, Err: "bad hex"})
			return
		}
		b, err := consensus.ParseBtcBlockHeader(raw)
		if err != nil {
			writeConsensusErr(w, err)
			return
		}
		writeResp(w, Response{Ok: true, HashHex: b.Hash().BtcString()})

	case "merkle_root":
		var (
			p   *consensus.MerklePath
			err error
		)
		if req.PathHex != "" {
			raw, herr := decodeHexField(req.PathHex)
			if herr != nil {
				writeResp(w, Response{Ok: false, Err: "bad hex"})
				return
			}
			p, err = consensus.DecodeMerklePath(raw)
		} else {
			p, err = consensus.ParseMerklePath(req.Path)
		}
		if err != nil {
			writeConsensusErr(w, err)
			return
		}
		root := p.Root()
		writeResp(w, Response{Ok: true, RootHex: root.String()})

	case "vbk_merkle_root":
		var (
			p   *consensus.VbkMerklePath
			err error
		)
		if req.PathHex != "" {
			raw, herr := decodeHexField(req.PathHex)
			if herr != nil {
				writeResp(w, Response{Ok: false, Err: "bad hex"})
				return
			}
			p, err = consensus.DecodeVbkMerklePath(raw)
		} else {
			p, err = consensus.ParseVbkMerklePath(req.Path)
		}
		if err != nil {
			writeConsensusErr(w, err)
			return
		}
		root := p.Root()
		writeResp(w, Response{Ok: true, RootHex: root.String()})

	case "contains":
		tx, err := decodeHexField(req.TxHex)
		if err != nil {
			writeResp(w, Response{Ok: false, Err: "bad tx hex"})
			return
		}
		payload, err := decodeHexField(req.PayloadHex)
		if err != nil {
			writeResp(w, Response{Ok: false, Err: "bad payload hex"})
			return
		}
		writeResp(w, Response{Ok: true, Contains: boolPtr(consensus.Contains(tx, payload))})

	case "compact_decode":
		t, err := consensus.DecodeCompact(req.Bits)
		if err != nil {
			writeConsensusErr(w, err)
			return
		}
		writeResp(w, Response{Ok: true, TargetHex: "0x" + t.Text(16)})

	case "compact_encode":
		t, err := parseTarget(req.Target)
		if err != nil {
			writeResp(w, Response{Ok: false, Err: "bad target"})
			return
		}
		writeResp(w, Response{Ok: true, Bits: consensus.EncodeCompact(t)})

	case "decode_vtb", "validate_vtb":
		raw, err := decodeHexField(req.PublicationHex)
		if err != nil {
			writeResp(w, Response{Ok: false, Err: "bad hex"})
			return
		}
		p, err := consensus.DecodeVbkPublication(raw)
		if err != nil {
			writeConsensusErr(w, err)
			return
		}
		if req.Op == "validate_vtb" {
			v, err := validatorFor(req)
			if err != nil {
				writeResp(w, Response{Ok: false, Err: err.Error()})
				return
			}
			writeValidation(w, v.ValidateVbkPublication(p))
			return
		}
		tx := p.Transaction
		writeResp(w, Response{
			Ok:             true,
			ID:             p.ID().String(),
			TxID:           tx.ID().String(),
			TxNetwork:      networkText(tx.Network),
			SourceAddress:  tx.SourceAddress.String(),
			ContainingHash: p.ContainingBlock.Hash().String(),
			ContextLen:     len(p.Context),
			PublishedHash:  tx.PublishedBlock.Hash().String(),
		})

	case "decode_atv", "validate_atv":
		raw, err := decodeHexField(req.PublicationHex)
		if err != nil {
			writeResp(w, Response{Ok: false, Err: "bad hex"})
			return
		}
		p, err := consensus.DecodeAltPublication(raw)
		if err != nil {
			writeConsensusErr(w, err)
			return
		}
		if req.Op == "validate_atv" {
			v, err := validatorFor(req)
			if err != nil {
				writeResp(w, Response{Ok: false, Err: err.Error()})
				return
			}
			writeValidation(w, v.ValidateAltPublication(p))
			return
		}
		tx := p.Transaction
		writeResp(w, Response{
			Ok:             true,
			ID:             p.ID().String(),
			TxID:           tx.ID().String(),
			TxNetwork:      networkText(tx.Network),
			SourceAddress:  tx.SourceAddress.String(),
			ContainingHash: p.ContainingBlock.Hash().String(),
			ContextLen:     len(p.Context),
		})

	default:
		writeResp(w, Response{Ok: false, Err: "unknown op"})
	}
}
