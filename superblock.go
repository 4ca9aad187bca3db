package lcfs

import "encoding/binary"

// Version is the on-disk format version written into every superblock.
const Version uint32 = 1

// Magic identifies an lcfs image; it is the ASCII bytes "lcfs" read as a
// little-endian uint32, analogous to LCFS_MAGIC in the original C
// implementation (whose exact value is not part of the retrieved source
// and so is not reproduced bit-for-bit here; see DESIGN.md).
var Magic = binary.LittleEndian.Uint32([]byte("lcfs"))

// superblockSize is the fixed, packed on-disk size of the superblock:
// magic (u32), version (u32), vdata_offset (u64).
const superblockSize = 4 + 4 + 8

// marshalSuperblock writes the superblock into buf, which must be at
// least superblockSize bytes.
func marshalSuperblock(buf []byte, vdataOffset uint64) {
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], Magic)
	le.PutUint32(buf[4:8], Version)
	le.PutUint64(buf[8:16], vdataOffset)
}
