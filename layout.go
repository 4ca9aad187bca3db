package lcfs

import "encoding/binary"

// On-disk sizes for the directory-entry records described in spec §4.4.
// A dirent is: inode_num (u32), d_type (u8), name_len (u8), name_offset
// (u32), and one reserved padding byte.
const (
	dirHeaderSize = 4  // n_dirents, u32
	direntSize    = 11 // inode_num(4) + d_type(1) + name_len(1) + name_offset(4) + pad(1)
)

// xattr block layout (spec §4.5): a u16 entry count, followed by
// per-entry (key_len u16, value_len u16) records, followed by the
// concatenation of keys and values in sorted order.
const (
	xattrHeaderSize = 2
	xattrEntrySize  = 4
)

// computeVariableData walks nodes in BFS order and fills in each node's
// variable-data references (directory block / payload / digest / xattr
// block), appending the actual bytes to a.
func computeVariableData(a *arena, nodes []*Node) error {
	for _, n := range nodes {
		switch {
		case n.IsDir():
			if len(n.children) > 0 {
				data, err := buildDirentBlock(n)
				if err != nil {
					return err
				}
				vd, err := a.append(data, AppendAlign)
				if err != nil {
					return err
				}
				n.variable = vd
			}
		case n.mode&S_IFMT == S_IFREG:
			// Empty files never get a payload reference, even if one
			// was set (invariant 8).
			if n.size != 0 && len(n.payload) > 0 {
				vd, err := a.append(n.payload, AppendDedup)
				if err != nil {
					return err
				}
				n.variable = vd
			}
		case n.mode&S_IFMT == S_IFLNK:
			if len(n.payload) > 0 {
				vd, err := a.append(n.payload, AppendDedup)
				if err != nil {
					return err
				}
				n.variable = vd
			}
		}

		if n.digestSet {
			vd, err := a.append(n.digest[:], AppendDedup)
			if err != nil {
				return err
			}
			n.digestRef = vd
		}
	}

	return nil
}

// buildDirentBlock serializes a directory's children into a header +
// fixed-size dirent records + packed name area, per spec §4.4.
func buildDirentBlock(dir *Node) ([]byte, error) {
	namesSize := 0
	for _, c := range dir.children {
		if len(c.name) > MaxNameLength {
			return nil, ErrNameTooLong
		}
		namesSize += len(c.name)
	}

	total := dirHeaderSize + direntSize*len(dir.children) + namesSize
	buf := make([]byte, total)

	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(dir.children)))

	direntsStart := dirHeaderSize
	namesStart := direntsStart + direntSize*len(dir.children)
	nameOff := uint32(0)

	for i, c := range dir.children {
		target := followLinks(c)
		rec := buf[direntsStart+i*direntSize : direntsStart+(i+1)*direntSize]

		binary.LittleEndian.PutUint32(rec[0:4], target.inodeNum)
		rec[4] = dtypeFromMode(target.mode)
		rec[5] = byte(len(c.name))
		binary.LittleEndian.PutUint32(rec[6:10], nameOff)
		rec[10] = 0 // reserved padding

		copy(buf[namesStart+int(nameOff):], c.name)
		nameOff += uint32(len(c.name))
	}

	return buf, nil
}

// computeXattrs builds and appends the xattr block for every node that has
// at least one xattr, per spec §4.5. Must run after canonicalize has
// sorted each node's xattrs by key.
func computeXattrs(a *arena, nodes []*Node) error {
	for _, n := range nodes {
		if len(n.xattrs) == 0 {
			continue
		}

		dataLen := 0
		for _, x := range n.xattrs {
			dataLen += len(x.key) + len(x.value)
		}

		headerLen := xattrHeaderSize + xattrEntrySize*len(n.xattrs)
		buf := make([]byte, headerLen+dataLen)

		binary.LittleEndian.PutUint16(buf[0:2], uint16(len(n.xattrs)))

		entryOff := xattrHeaderSize
		dataOff := headerLen
		for _, x := range n.xattrs {
			rec := buf[entryOff : entryOff+xattrEntrySize]
			binary.LittleEndian.PutUint16(rec[0:2], uint16(len(x.key)))
			binary.LittleEndian.PutUint16(rec[2:4], uint16(len(x.value)))
			entryOff += xattrEntrySize

			dataOff += copy(buf[dataOff:], x.key)
			dataOff += copy(buf[dataOff:], x.value)
		}

		vd, err := a.append(buf, AppendDedup|AppendAlign)
		if err != nil {
			return err
		}
		n.xattrData = vd
	}

	return nil
}
