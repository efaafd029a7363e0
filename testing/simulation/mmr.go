package simulation

import (
	"math/bits"
	"sort"

	"github.com/ComposableFi/go-merkle-trees/mmr"
	"github.com/pkg/errors"
)

// MMR is an append only keccak merkle mountain range. Nodes are stored in
// insertion (post-order) position.
type MMR struct {
	nodes [][]byte
}

// Size returns the number of nodes of the range.
func (m *MMR) Size() uint64 {
	return uint64(len(m.nodes))
}

// Push appends the leaf hash and the parents it completes, and returns the
// leaf position.
func (m *MMR) Push(leaf []byte) uint64 {
	position := m.Size()
	m.nodes = append(m.nodes, leaf)

	pos, height := position, uint32(0)
	for posHeightInTree(pos+1) > height {
		pos++
		left := pos - parentOffset(height)
		right := left + siblingOffset(height)
		m.nodes = append(m.nodes, keccakMerge(m.nodes[left], m.nodes[right]))
		height++
	}
	return position
}

// Root returns the root of the range truncated to size nodes, bagging the
// peaks from right to left.
func (m *MMR) Root(size uint64) ([]byte, error) {
	if size == 0 || size > m.Size() {
		return nil, errors.Errorf("invalid mmr size %d of %d", size, m.Size())
	}
	peaks := make([][]byte, 0)
	for _, pos := range getPeaks(size) {
		peaks = append(peaks, m.nodes[pos])
	}
	return bagPeaks(peaks), nil
}

// Proof returns the proof of the leaves at leafIndices in the range truncated
// to size nodes.
func (m *MMR) Proof(size uint64, leafIndices []uint64) ([][]byte, error) {
	if size == 0 || size > m.Size() {
		return nil, errors.Errorf("invalid mmr size %d of %d", size, m.Size())
	}
	if len(leafIndices) == 0 {
		return nil, errors.New("no leaves to prove")
	}

	positions := make([]uint64, len(leafIndices))
	for i, index := range leafIndices {
		positions[i] = LeafIndexToPos(index)
		if positions[i] >= size {
			return nil, errors.Errorf("leaf %d is not in an mmr of size %d", index, size)
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	if size == 1 {
		return [][]byte{}, nil
	}

	proof := make([][]byte, 0)
	baggingTrack := 0
	for _, peak := range getPeaks(size) {
		n := 0
		for n < len(positions) && positions[n] <= peak {
			n++
		}
		peakPositions := positions[:n]
		positions = positions[n:]

		if len(peakPositions) == 0 {
			baggingTrack++
		} else {
			baggingTrack = 0
		}
		proof = m.proveInPeak(proof, peakPositions, peak)
	}

	// peaks right of the last proven leaf are bagged into one item
	if baggingTrack > 1 {
		rhs := proof[len(proof)-baggingTrack:]
		proof = append(proof[:len(proof)-baggingTrack:len(proof)-baggingTrack], bagPeaks(rhs))
	}
	return proof, nil
}

func (m *MMR) proveInPeak(proof [][]byte, positions []uint64, peak uint64) [][]byte {
	if len(positions) == 1 && positions[0] == peak {
		return proof
	}
	if len(positions) == 0 {
		return append(proof, m.nodes[peak])
	}

	type queued struct {
		pos    uint64
		height uint32
	}
	queue := make([]queued, len(positions))
	for i, pos := range positions {
		queue[i] = queued{pos: pos}
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.pos == peak {
			break
		}

		var sibling, parent uint64
		if posHeightInTree(item.pos+1) > item.height {
			// right sibling
			sibling, parent = item.pos-siblingOffset(item.height), item.pos+1
		} else {
			sibling, parent = item.pos+siblingOffset(item.height), item.pos+parentOffset(item.height)
		}

		if len(queue) > 0 && queue[0].pos == sibling {
			queue = queue[1:]
		} else {
			proof = append(proof, m.nodes[sibling])
		}
		if parent < peak {
			queue = append(queue, queued{pos: parent, height: item.height + 1})
		}
	}
	return proof
}

// LeafIndexToPos returns the node position of the leaf at index.
func LeafIndexToPos(index uint64) uint64 {
	return mmr.LeafIndexToMMRSize(index) - uint64(bits.TrailingZeros64(index+1)) - 1
}

func bagPeaks(peaks [][]byte) []byte {
	for len(peaks) > 1 {
		right, left := peaks[len(peaks)-1], peaks[len(peaks)-2]
		peaks = append(peaks[:len(peaks)-2:len(peaks)-2], keccakMerge(right, left))
	}
	return peaks[0]
}

func parentOffset(height uint32) uint64 {
	return 2 << height
}

func siblingOffset(height uint32) uint64 {
	return (2 << height) - 1
}

// posHeightInTree returns the height of the node at the 0 based position.
func posHeightInTree(pos uint64) uint32 {
	pos++
	allOnes := func(n uint64) bool {
		return n != 0 && bits.OnesCount64(n) == 64-bits.LeadingZeros64(n)
	}
	for !allOnes(pos) {
		bitLength := 64 - bits.LeadingZeros64(pos)
		pos -= (uint64(1) << (bitLength - 1)) - 1
	}
	return uint32(64-bits.LeadingZeros64(pos)) - 1
}

func getPeaks(size uint64) []uint64 {
	height, pos := leftPeakHeightPos(size)
	peaks := []uint64{pos}
	for height > 0 {
		var ok bool
		height, pos, ok = rightPeak(height, pos, size)
		if !ok {
			break
		}
		peaks = append(peaks, pos)
	}
	return peaks
}

func rightPeak(height uint32, pos, size uint64) (uint32, uint64, bool) {
	pos += siblingOffset(height)
	for pos > size-1 {
		if height == 0 {
			return 0, 0, false
		}
		pos -= parentOffset(height - 1)
		height--
	}
	return height, pos, true
}

func leftPeakHeightPos(size uint64) (uint32, uint64) {
	peakPos := func(height uint32) uint64 { return (uint64(1) << (height + 1)) - 2 }
	height, prev := uint32(1), uint64(0)
	pos := peakPos(height)
	for pos < size {
		height++
		prev = pos
		pos = peakPos(height)
	}
	return height - 1, prev
}
