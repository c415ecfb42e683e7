// Package merkle builds an order-preserving hash tree over a session's
// serialized chaos events. The root is a compact commitment to the full
// event sequence; inclusion proofs let an auditor check that a single
// event belongs to a session without holding the whole event list.
//
// Leaves are ordered, not sorted: event position is significant, so
// swapping two events changes the root.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	leafPrefix = "isl:chaos:leaf:v1"
	nodePrefix = "isl:chaos:node:v1"
)

// Leaf is one hashed entry of the tree.
type Leaf struct {
	Index    int    `json:"index"`
	LeafHash string `json:"leaf_hash"`
}

// Tree is a binary hash tree over ordered byte leaves.
type Tree struct {
	Leaves []Leaf     `json:"leaves"`
	Root   string     `json:"root"`
	levels [][]string // levels[0] = leaf hashes, last = [root]
}

// Build constructs a tree over the given entries in order. An empty input
// yields a tree with an empty root.
func Build(entries [][]byte) *Tree {
	if len(entries) == 0 {
		return &Tree{Root: ""}
	}

	leaves := make([]Leaf, len(entries))
	hashes := make([]string, len(entries))
	for i, data := range entries {
		h := sha256Hex(leafBytes(i, data))
		leaves[i] = Leaf{Index: i, LeafHash: h}
		hashes[i] = h
	}

	tree := &Tree{Leaves: leaves}
	level := hashes
	tree.levels = append(tree.levels, level)
	for len(level) > 1 {
		level = nextLevel(level)
		tree.levels = append(tree.levels, level)
	}
	tree.Root = level[0]
	return tree
}

func leafBytes(index int, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(leafPrefix)
	buf.WriteByte(0)
	fmt.Fprintf(&buf, "%d", index)
	buf.WriteByte(0)
	buf.Write(data)
	return buf.Bytes()
}

func nextLevel(hashes []string) []string {
	count := len(hashes)
	if count%2 != 0 {
		hashes = append(hashes, hashes[count-1]) // duplicate last
		count++
	}
	out := make([]string, count/2)
	for i := 0; i < count; i += 2 {
		out[i/2] = nodeHash(hashes[i], hashes[i+1])
	}
	return out
}

func nodeHash(left, right string) string {
	var buf bytes.Buffer
	buf.WriteString(nodePrefix)
	buf.WriteByte(0)
	buf.Write(hexToBytes(left))
	buf.Write(hexToBytes(right))
	return sha256Hex(buf.Bytes())
}

// Prove returns the inclusion proof for the leaf at index.
func (t *Tree) Prove(index int) (*InclusionProof, error) {
	if index < 0 || index >= len(t.Leaves) {
		return nil, errors.New("merkle: leaf index out of range")
	}

	proof := &InclusionProof{
		LeafIndex: index,
		LeafHash:  t.Leaves[index].LeafHash,
		Root:      t.Root,
	}

	pos := index
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		hash := ""
		if sibling < len(level) {
			hash = level[sibling]
		} else {
			hash = level[pos] // odd tail duplicates itself
		}
		side := "R"
		if sibling < pos {
			side = "L"
		}
		proof.Path = append(proof.Path, ProofStep{Side: side, SiblingHash: hash})
		pos /= 2
	}
	return proof, nil
}

func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func hexToBytes(s string) []byte {
	b, _ := hex.DecodeString(s)
	return b
}
