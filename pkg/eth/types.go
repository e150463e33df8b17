// Package eth provides Ethereum node client functionality.
package eth

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/holiman/uint256"
)

// Block represents an Ethereum block with fee-relevant fields.
type Block struct {
	Number     uint64
	Hash       string
	ParentHash string
	Timestamp  time.Time
	BaseFee    *uint256.Int // nil for pre-EIP-1559 blocks
	GasUsed    uint64
	GasLimit   uint64
}

// GasUtilization returns the ratio of gas used to gas limit (0.0 to 1.0).
func (b *Block) GasUtilization() float64 {
	if b.GasLimit == 0 {
		return 0
	}
	return float64(b.GasUsed) / float64(b.GasLimit)
}

// FeeHistory is the result of an eth_feeHistory call: base fees and
// utilization for a range of recent blocks, oldest first.
type FeeHistory struct {
	OldestBlock  uint64
	BaseFees     []*uint256.Int
	GasUsedRatio []float64
}

// rpcBlock is the JSON-RPC representation of a block header.
type rpcBlock struct {
	Number     hexUint64 `json:"number"`
	Hash       string    `json:"hash"`
	ParentHash string    `json:"parentHash"`
	Timestamp  hexUint64 `json:"timestamp"`
	BaseFee    *hexBig   `json:"baseFeePerGas"`
	GasUsed    hexUint64 `json:"gasUsed"`
	GasLimit   hexUint64 `json:"gasLimit"`
}

func (r *rpcBlock) toBlock() *Block {
	block := &Block{
		Number:     uint64(r.Number),
		Hash:       r.Hash,
		ParentHash: r.ParentHash,
		Timestamp:  time.Unix(int64(r.Timestamp), 0),
		GasUsed:    uint64(r.GasUsed),
		GasLimit:   uint64(r.GasLimit),
	}

	if r.BaseFee != nil {
		block.BaseFee = r.BaseFee.Int()
	}

	return block
}

// rpcFeeHistory is the JSON-RPC representation of eth_feeHistory.
type rpcFeeHistory struct {
	OldestBlock  hexUint64 `json:"oldestBlock"`
	BaseFees     []*hexBig `json:"baseFeePerGas"`
	GasUsedRatio []float64 `json:"gasUsedRatio"`
}

func (r *rpcFeeHistory) toFeeHistory() *FeeHistory {
	fh := &FeeHistory{
		OldestBlock:  uint64(r.OldestBlock),
		BaseFees:     make([]*uint256.Int, len(r.BaseFees)),
		GasUsedRatio: r.GasUsedRatio,
	}
	for i, bf := range r.BaseFees {
		if bf != nil {
			fh.BaseFees[i] = bf.Int()
		}
	}
	return fh
}

// hexUint64 handles hex-encoded uint64 values in JSON-RPC responses.
type hexUint64 uint64

func (h *hexUint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	val, err := uint256.FromHex(s)
	if err != nil {
		return fmt.Errorf("invalid hex uint64: %s", s)
	}
	*h = hexUint64(val.Uint64())
	return nil
}

// hexBig handles hex-encoded big integer values in JSON-RPC responses.
type hexBig uint256.Int

func (h *hexBig) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	val, err := uint256.FromHex(s)
	if err != nil {
		return fmt.Errorf("invalid hex big int: %s", s)
	}
	*h = hexBig(*val)
	return nil
}

func (h *hexBig) Int() *uint256.Int {
	return (*uint256.Int)(h)
}
