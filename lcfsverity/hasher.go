// Package lcfsverity implements the streaming Merkle digest engine
// described in the composefs image format: SHA-256 over fixed-size 4 KiB
// blocks, reduced bottom-up into a single 32-byte root, compatible with
// the Linux fs-verity construction used by the original C implementation
// this package is based on (libcomposefs's FsVerityContext).
package lcfsverity

import "crypto/sha256"

// BlockSize is the fixed block size the Merkle tree is built over.
const BlockSize = 4096

// DigestSize is the length, in bytes, of the root digest.
const DigestSize = sha256.Size

// Hasher implements hash.Hash, accumulating arbitrary-sized writes into
// BlockSize leaves and computing their Merkle root on Sum. Unlike the C
// contract's "finalize may be called at most once", Sum here follows the
// conventional Go hash.Hash contract: it does not mutate the
// accumulation, so it is safe to call Sum, Write more data, and Sum again.
// Two Hashers fed the same bytes in different chunk sizes produce the
// same root.
type Hasher struct {
	pending []byte
	leaves  [][DigestSize]byte
}

// New returns a ready-to-use Hasher.
func New() *Hasher {
	return &Hasher{}
}

func (h *Hasher) Write(p []byte) (int, error) {
	n := len(p)
	h.pending = append(h.pending, p...)

	for len(h.pending) >= BlockSize {
		var leaf [DigestSize]byte
		leaf = sha256.Sum256(h.pending[:BlockSize])
		h.leaves = append(h.leaves, leaf)
		h.pending = h.pending[BlockSize:]
	}

	return n, nil
}

// Sum appends the Merkle root digest to b and returns the resulting
// slice, without altering the Hasher's accumulated state.
func (h *Hasher) Sum(b []byte) []byte {
	root := h.sum()
	return append(b, root[:]...)
}

func (h *Hasher) sum() [DigestSize]byte {
	leaves := h.leaves
	if len(h.pending) > 0 {
		block := make([]byte, BlockSize)
		copy(block, h.pending)
		leaves = append(append([][DigestSize]byte(nil), leaves...), sha256.Sum256(block))
	}
	if len(leaves) == 0 {
		leaves = [][DigestSize]byte{sha256.Sum256(make([]byte, BlockSize))}
	}

	return merkleRoot(leaves)
}

// merkleRoot reduces a level of block hashes into a single root hash by
// repeatedly grouping hashesPerBlock siblings into one BlockSize buffer,
// zero-padding the final short group, and hashing it into the next level
// up, until one hash remains.
func merkleRoot(level [][DigestSize]byte) [DigestSize]byte {
	const hashesPerBlock = BlockSize / DigestSize

	for len(level) > 1 {
		next := make([][DigestSize]byte, 0, (len(level)+hashesPerBlock-1)/hashesPerBlock)

		for i := 0; i < len(level); i += hashesPerBlock {
			end := i + hashesPerBlock
			if end > len(level) {
				end = len(level)
			}

			block := make([]byte, BlockSize)
			for j, h := range level[i:end] {
				copy(block[j*DigestSize:], h[:])
			}

			next = append(next, sha256.Sum256(block))
		}

		level = next
	}

	return level[0]
}

// Reset clears all accumulated state, allowing the Hasher to be reused.
func (h *Hasher) Reset() {
	h.pending = h.pending[:0]
	h.leaves = h.leaves[:0]
}

// Size returns the number of bytes Sum will append: DigestSize.
func (h *Hasher) Size() int { return DigestSize }

// BlockSize returns the Merkle tree's natural block size.
func (h *Hasher) BlockSize() int { return BlockSize }
