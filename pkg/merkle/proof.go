package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// InclusionProof ties a single leaf to a tree root.
type InclusionProof struct {
	LeafIndex int         `json:"leaf_index"`
	LeafHash  string      `json:"leaf_hash"`
	Root      string      `json:"root"`
	Path      []ProofStep `json:"path"`
}

// ProofStep is one sibling on the path from leaf to root.
type ProofStep struct {
	Side        string `json:"side"` // "L" or "R"
	SiblingHash string `json:"sibling_hash"`
}

// Verify walks the proof path and checks the reconstructed root against
// expectedRoot (and the proof's own embedded root).
func Verify(proof *InclusionProof, expectedRoot string) bool {
	if proof == nil {
		return false
	}
	if expectedRoot != "" && proof.Root != expectedRoot {
		return false
	}

	current := proof.LeafHash
	for _, step := range proof.Path {
		var buf bytes.Buffer
		buf.WriteString(nodePrefix)
		buf.WriteByte(0)
		if step.Side == "L" {
			buf.Write(hexToBytes(step.SiblingHash))
			buf.Write(hexToBytes(current))
		} else {
			buf.Write(hexToBytes(current))
			buf.Write(hexToBytes(step.SiblingHash))
		}
		h := sha256.Sum256(buf.Bytes())
		current = hex.EncodeToString(h[:])
	}
	return current == proof.Root
}

// VerifyLeafData checks that raw leaf data at the given index hashes to the
// proof's leaf hash before walking the path.
func VerifyLeafData(proof *InclusionProof, data []byte, expectedRoot string) bool {
	if proof == nil {
		return false
	}
	if sha256Hex(leafBytes(proof.LeafIndex, data)) != proof.LeafHash {
		return false
	}
	return Verify(proof, expectedRoot)
}
