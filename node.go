package lcfs

// MaxNameLength is the largest number of bytes a child name may occupy;
// AddChild rejects longer names with ErrNameTooLong. Xattr keys are not
// checked against it.
const MaxNameLength = 255

// DigestSize is the length, in bytes, of an fs-verity content digest.
const DigestSize = 32

// Timespec is a (seconds, nanoseconds) timestamp pair, matching the
// on-disk mtime/ctime encoding.
type Timespec struct {
	Sec  int64
	Nsec uint32
}

type xattr struct {
	key   string
	value []byte
}

// Node represents one inode of the tree being built: a directory, regular
// file, symlink, device node, or hardlink alias. Nodes are created
// detached (Ref==1) and are linked into a tree with AddChild or
// MakeHardlink.
type Node struct {
	refcnt int

	parent   *Node
	children []*Node

	// linkTo is set when this node is a hardlink alias: it still occupies
	// an inode index and a record slot of its own, but its directory entry
	// follows linkTo to the terminal node for inode_num/d_type.
	linkTo *Node

	name    string
	payload []byte

	mode  uint32
	uid   uint32
	gid   uint32
	rdev  uint32
	size  uint64
	nlink uint32
	mtime Timespec
	ctime Timespec

	xattrs []xattr

	digestSet bool
	digest    [DigestSize]byte

	// transient, used only during WriteTo
	inodeNum  uint32
	queued    bool
	variable  Vdata // directory entries / symlink target / file payload
	xattrData Vdata // xattr block, if any
	digestRef Vdata // digest bytes stored in the arena, if digestSet
}

// NewNode creates a detached node with reference count 1 and nlink 1,
// matching lcfs_node_new.
func NewNode() *Node {
	return &Node{
		refcnt: 1,
		nlink:  1,
	}
}

// Ref increments the node's reference count and returns it, for callers
// that want to hold their own handle alongside the tree's.
func (n *Node) Ref() *Node {
	n.refcnt++
	return n
}

// Unref decrements the reference count, recursively releasing children and
// the hardlink target once it reaches zero. A node must not be in any
// parent's child list (or still be a hardlink target with outstanding
// aliases) when its count drops to zero; lcfs_node_unref asserts
// parent==nil for the same reason.
func (n *Node) Unref() {
	n.refcnt--
	if n.refcnt > 0 {
		return
	}

	for _, c := range n.children {
		c.parent = nil
		c.Unref()
	}
	n.children = nil

	if n.linkTo != nil {
		n.linkTo.Unref()
		n.linkTo = nil
	}
}

// IsDir reports whether the node's mode bits mark it as a directory.
func (n *Node) IsDir() bool {
	return n.mode&S_IFMT == S_IFDIR
}

// Name returns the node's name within its parent, or "" if detached.
func (n *Node) Name() string { return n.name }

// Parent returns the node's parent, or nil if detached or root.
func (n *Node) Parent() *Node { return n.parent }

// Mode/Uid/Gid/Rdev/Size/Nlink getters and setters.

func (n *Node) Mode() uint32     { return n.mode }
func (n *Node) SetMode(m uint32) { n.mode = m }

func (n *Node) Uid() uint32      { return n.uid }
func (n *Node) SetUid(uid uint32) { n.uid = uid }

func (n *Node) Gid() uint32      { return n.gid }
func (n *Node) SetGid(gid uint32) { n.gid = gid }

func (n *Node) Rdev() uint32       { return n.rdev }
func (n *Node) SetRdev(rdev uint32) { n.rdev = rdev }

func (n *Node) Size() uint64       { return n.size }
func (n *Node) SetSize(size uint64) { n.size = size }

func (n *Node) Nlink() uint32        { return n.nlink }
func (n *Node) SetNlink(nlink uint32) { n.nlink = nlink }

func (n *Node) Mtime() Timespec        { return n.mtime }
func (n *Node) SetMtime(t Timespec)    { n.mtime = t }
func (n *Node) Ctime() Timespec        { return n.ctime }
func (n *Node) SetCtime(t Timespec)    { n.ctime = t }

// Payload returns the symlink target or backing-file reference, or nil if
// unset.
func (n *Node) Payload() []byte { return n.payload }

// SetPayload sets the symlink target (for symlinks) or backing-file
// reference (for regular files). An empty string clears it.
func (n *Node) SetPayload(payload string) {
	if payload == "" {
		n.payload = nil
		return
	}
	n.payload = []byte(payload)
}

// FsverityDigest returns the node's fs-verity content digest and whether
// one has been set.
func (n *Node) FsverityDigest() ([DigestSize]byte, bool) {
	return n.digest, n.digestSet
}

// SetFsverityDigest attaches a 32-byte fs-verity digest to the node,
// computed externally from the file's actual content.
func (n *Node) SetFsverityDigest(digest [DigestSize]byte) {
	n.digestSet = true
	n.digest = digest
}

// NumChildren returns the number of children (meaningful for directories).
func (n *Node) NumChildren() int { return len(n.children) }

// Child returns the i'th child in current (insertion or, post-canonicalization,
// sorted) order, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// LookupChild performs a linear, case-sensitive, byte-exact scan for a
// child named name, returning the first match or nil.
func (n *Node) LookupChild(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// AddChild attaches child to parent under name. child must not already be
// attached elsewhere, and parent must be a directory with no existing
// child by that name.
func (parent *Node) AddChild(child *Node, name string) error {
	if !parent.IsDir() {
		return ErrNotDir
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if child.name != "" || child.parent != nil {
		return ErrAlreadyAttached
	}
	if parent.LookupChild(name) != nil {
		return ErrExists
	}

	parent.children = append(parent.children, child)
	child.parent = parent
	child.name = name
	return nil
}

// RemoveChild detaches the child named name from parent, preserving the
// order of the remaining children, and drops one reference on it. The
// caller may still hold other references and reinsert the node elsewhere.
func (parent *Node) RemoveChild(name string) error {
	if !parent.IsDir() {
		return ErrNotDir
	}
	for i, c := range parent.children {
		if c.name != name {
			continue
		}
		parent.children = append(parent.children[:i], parent.children[i+1:]...)
		c.name = ""
		c.parent = nil
		c.Unref()
		return nil
	}
	return ErrNotFound
}

// followLinks returns the terminal node at the end of a hardlink chain.
func followLinks(n *Node) *Node {
	for n.linkTo != nil {
		n = n.linkTo
	}
	return n
}

// MakeHardlink turns node into a hardlink alias of target: once attached,
// node's directory entry carries target's inode index and type instead of
// its own (node still occupies an inode index in BFS order). Following an existing chain before assigning
// prevents cycles.
func (node *Node) MakeHardlink(target *Node) {
	terminal := followLinks(target)
	node.linkTo = terminal.Ref()
	terminal.nlink++
}

// GetXattr returns the value stored under name, and whether it was found.
func (n *Node) GetXattr(name string) ([]byte, bool) {
	for _, x := range n.xattrs {
		if x.key == name {
			return x.value, true
		}
	}
	return nil, false
}

// SetXattr replaces the value for an existing key in place, or appends a
// new entry. Keys must be unique within a node.
func (n *Node) SetXattr(name string, value []byte) {
	for i := range n.xattrs {
		if n.xattrs[i].key == name {
			v := make([]byte, len(value))
			copy(v, value)
			n.xattrs[i].value = v
			return
		}
	}
	v := make([]byte, len(value))
	copy(v, value)
	n.xattrs = append(n.xattrs, xattr{key: name, value: v})
}

// UnsetXattr removes the entry for name, if present. Unlike the original C
// implementation (which unconditionally returns a negative code, even on
// success — treated here as a bug, see DESIGN.md), this returns nil on
// successful removal and ErrNotFound otherwise.
func (n *Node) UnsetXattr(name string) error {
	for i, x := range n.xattrs {
		if x.key != name {
			continue
		}
		n.xattrs = append(n.xattrs[:i], n.xattrs[i+1:]...)
		return nil
	}
	return ErrNotFound
}

// NumXattrs returns the number of xattrs set on the node.
func (n *Node) NumXattrs() int { return len(n.xattrs) }

// XattrName returns the key of the i'th xattr in current order.
func (n *Node) XattrName(i int) string {
	if i < 0 || i >= len(n.xattrs) {
		return ""
	}
	return n.xattrs[i].key
}
