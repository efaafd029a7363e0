package simulation

import (
	"sort"

	"github.com/ethereum/go-ethereum/crypto"
)

func keccakMerge(left, right []byte) []byte {
	return crypto.Keccak256(left, right)
}

// merkleLayers returns the layers of the binary keccak merkle tree of leaves,
// from the leaves up to the root. An unpaired node is promoted to the next
// layer unchanged.
func merkleLayers(leaves [][]byte) [][][]byte {
	layers := [][][]byte{leaves}
	for current := leaves; len(current) > 1; {
		next := make([][]byte, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			if i+1 == len(current) {
				next = append(next, current[i])
				continue
			}
			next = append(next, keccakMerge(current[i], current[i+1]))
		}
		layers = append(layers, next)
		current = next
	}
	return layers
}

// MerkleRoot returns the root of the binary keccak merkle tree of leaves.
func MerkleRoot(leaves [][]byte) [32]byte {
	var root [32]byte
	if len(leaves) == 0 {
		return root
	}
	layers := merkleLayers(leaves)
	copy(root[:], layers[len(layers)-1][0])
	return root
}

// MerkleProof returns the sibling hashes proving the leaf at index, from the
// bottom layer up.
func MerkleProof(leaves [][]byte, index int) [][]byte {
	var proof [][]byte
	for _, layer := range merkleLayers(leaves) {
		if len(layer) == 1 {
			break
		}
		if sibling := index ^ 1; sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		index /= 2
	}
	return proof
}

// multiMerkleProof returns the sibling hashes proving the first count leaves
// together, layer by layer in ascending index order.
func multiMerkleProof(leaves [][]byte, count int) [][]byte {
	known := make([]int, count)
	for i := range known {
		known[i] = i
	}

	var proof [][]byte
	for _, layer := range merkleLayers(leaves) {
		if len(layer) == 1 {
			break
		}
		isKnown := make(map[int]bool, len(known))
		for _, index := range known {
			isKnown[index] = true
		}

		var siblings []int
		for _, index := range known {
			if sibling := index ^ 1; sibling < len(layer) && !isKnown[sibling] {
				siblings = append(siblings, sibling)
			}
		}
		sort.Ints(siblings)
		for _, sibling := range siblings {
			proof = append(proof, layer[sibling])
		}

		parents := make([]int, 0, len(known))
		for _, index := range known {
			if len(parents) == 0 || parents[len(parents)-1] != index/2 {
				parents = append(parents, index/2)
			}
		}
		known = parents
	}
	return proof
}
