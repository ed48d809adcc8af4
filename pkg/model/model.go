package model

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ZeroAddress is the 20-byte zero address used as the counterparty of mint and
// burn transfer events, following NEP-11 conventions.
var ZeroAddress = common.Address{}

// Token is a non-fungible compute-capacity token. The identifier and metadata
// are fixed at mint time; only the owner changes over the token's lifetime.
type Token struct {
	// ID is the unique token identifier.
	ID common.Hash `json:"id"`
	// Owner is the account currently holding the token.
	Owner common.Address `json:"owner"`
	// Metadata carries the immutable mint-time attributes.
	Metadata TokenMetadata `json:"metadata"`
}

// TokenMetadata is set at mint time and never mutated afterwards.
type TokenMetadata struct {
	// ModelID is the hash of the model identifier whose capacity the token
	// represents.
	ModelID common.Hash `json:"model_id"`
	// Quality is the composite quality score (0..100) the token was minted at.
	Quality int `json:"quality"`
	// ComputeUnits is the amount of compute capacity the token entitles to.
	ComputeUnits *big.Int `json:"compute_units"`
}

// HashModelID maps a human-readable model identifier to its on-ledger hash,
// using sha256.
func HashModelID(modelID string) common.Hash {
	return common.Hash(sha256.Sum256([]byte(modelID)))
}

// DeriveTokenID produces a fresh token identifier from the model hash and the
// ledger's mint sequence number: sha256(modelHash || seq). The sequence makes
// identifiers unique across repeated mints for the same model.
func DeriveTokenID(modelHash common.Hash, seq uint64) common.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	h := sha256.New()
	h.Write(modelHash[:])
	h.Write(buf[:])
	return common.BytesToHash(h.Sum(nil))
}

// Recommendation is the action suggested by the quality scorer for a model.
type Recommendation string

const (
	// RecommendMint indicates the composite score clears the mint threshold.
	RecommendMint Recommendation = "mint"
	// RecommendImprove indicates the model is below the mint threshold.
	RecommendImprove Recommendation = "improve"
)

// QualityResult is the outcome of scoring a model's metrics.
type QualityResult struct {
	// ModelID is the model identifier the result belongs to.
	ModelID string `json:"model_id"`
	// Composite is the clamped weighted score in [0, 100], rounded down.
	Composite int `json:"composite"`
	// Contributions maps each weighted component to weight * value.
	Contributions map[string]decimal.Decimal `json:"contributions"`
	// Recommendation is "mint" when Composite clears the threshold,
	// "improve" otherwise.
	Recommendation Recommendation `json:"recommendation"`
}
