package lcfs

import "encoding/binary"

// inodeRecordSize is the fixed, packed, little-endian on-disk size of one
// inode record (spec §4.6): mode, nlink, uid, gid, rdev (u32 each), size
// (u64), mtime (u64+u32), ctime (u64+u32), and three (off u64, len u32)
// vdata references (variable_data, xattrs, digest).
const inodeRecordSize = 4*5 + 8 + (8 + 4) + (8 + 4) + (8+4)*3

// marshalInode writes one node's fixed-size inode record into buf, which
// must be at least inodeRecordSize bytes. Byte order is little-endian
// throughout, matching the on-disk layout contract.
func marshalInode(buf []byte, n *Node) {
	le := binary.LittleEndian

	le.PutUint32(buf[0:4], n.mode)
	le.PutUint32(buf[4:8], n.nlink)
	le.PutUint32(buf[8:12], n.uid)
	le.PutUint32(buf[12:16], n.gid)
	le.PutUint32(buf[16:20], n.rdev)
	le.PutUint64(buf[20:28], n.size)

	le.PutUint64(buf[28:36], uint64(n.mtime.Sec))
	le.PutUint32(buf[36:40], n.mtime.Nsec)
	le.PutUint64(buf[40:48], uint64(n.ctime.Sec))
	le.PutUint32(buf[48:52], n.ctime.Nsec)

	le.PutUint64(buf[52:60], n.variable.Off)
	le.PutUint32(buf[60:64], n.variable.Len)

	le.PutUint64(buf[64:72], n.xattrData.Off)
	le.PutUint32(buf[72:76], n.xattrData.Len)

	le.PutUint64(buf[76:84], n.digestRef.Off)
	le.PutUint32(buf[84:88], n.digestRef.Len)
}
