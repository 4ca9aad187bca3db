package lcfs

import (
	"hash"
	"io"
)

// align4 rounds n up to the next multiple of 4.
func align4(n int) int {
	return (n + 3) &^ 3
}

// WriteTo canonicalizes root, computes its variable-data layout, and
// streams the resulting image (superblock, inode table, padding, arena)
// to w. Every byte handed to w is also fed to digest, if non-nil, so that
// after a successful call the caller can obtain the image's fs-verity
// digest via digest.Sum(nil) (see package lcfsverity for a compatible
// hash.Hash implementation).
//
// root must not be mutated for the duration of the call; WriteTo is not
// safe to call concurrently with itself or with mutation of the tree.
func WriteTo(root *Node, w io.Writer, digest hash.Hash) error {
	order, err := canonicalize(root)
	if err != nil {
		return err
	}

	a := newArena()
	if err := computeVariableData(a, order); err != nil {
		return err
	}
	if err := computeXattrs(a, order); err != nil {
		return err
	}

	inodeTableSize := len(order) * inodeRecordSize
	dataOffset := align4(superblockSize + inodeTableSize)

	sink := &emitter{w: w, digest: digest}

	sb := make([]byte, superblockSize)
	marshalSuperblock(sb, uint64(dataOffset))
	if err := sink.write(sb); err != nil {
		return err
	}

	inoBuf := make([]byte, inodeRecordSize)
	for _, n := range order {
		marshalInode(inoBuf, n)
		if err := sink.write(inoBuf); err != nil {
			return err
		}
	}

	if pad := dataOffset - (superblockSize + inodeTableSize); pad > 0 {
		if err := sink.writeZero(pad); err != nil {
			return err
		}
	}

	if a.len() > 0 {
		if err := sink.write(a.bytes()); err != nil {
			return err
		}
	}

	return nil
}

// emitter is the single emission point every byte of the image passes
// through: it retries short writes, feeds the digest engine, and tracks
// total bytes emitted, mirroring the C writer's lcfs_write.
type emitter struct {
	w         io.Writer
	digest    hash.Hash
	bytesSent int64
}

func (e *emitter) write(data []byte) error {
	if e.digest != nil {
		e.digest.Write(data)
	}

	for len(data) > 0 {
		n, err := e.w.Write(data)
		if n <= 0 && err == nil {
			return ErrIO
		}
		if err != nil {
			return err
		}
		data = data[n:]
		e.bytesSent += int64(n)
	}

	return nil
}

const zeroBufSize = 4096

func (e *emitter) writeZero(n int) error {
	buf := make([]byte, zeroBufSize)
	for n > 0 {
		chunk := n
		if chunk > len(buf) {
			chunk = len(buf)
		}
		if err := e.write(buf[:chunk]); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
