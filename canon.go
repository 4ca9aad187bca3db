package lcfs

import "sort"

// canonicalize performs the breadth-first walk described in spec §4.3: it
// assigns inode indices starting at 0 for root, sorts each directory's
// children by name and every node's xattrs by key, fixes up directory
// nlink counts, and
// validates that only directories have children. It returns the full node
// list in BFS order (the same order inode records are emitted in).
func canonicalize(root *Node) ([]*Node, error) {
	queue := []*Node{root}
	order := make([]*Node, 0, 16)

	for head := 0; head < len(queue); head++ {
		node := queue[head]
		order = append(order, node)

		if !node.IsDir() && len(node.children) != 0 {
			return nil, ErrInvalidTree
		}

		sort.Slice(node.xattrs, func(i, j int) bool {
			return node.xattrs[i].key < node.xattrs[j].key
		})

		if node.IsDir() {
			sort.Slice(node.children, func(i, j int) bool {
				return node.children[i].name < node.children[j].name
			})

			nlink := uint32(2)
			for _, c := range node.children {
				if c.IsDir() {
					nlink++
				}
			}
			node.nlink = nlink
		}

		node.inodeNum = uint32(head)

		// Hardlink aliases don't own their children for traversal
		// purposes, so only non-alias nodes queue their children; a
		// child reached twice marks a malformed tree.
		if node.linkTo == nil {
			for _, c := range node.children {
				if c.queued {
					return nil, ErrInvalidTree
				}
				c.queued = true
				queue = append(queue, c)
			}
		}
	}

	return order, nil
}
