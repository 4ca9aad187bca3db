//go:build linux

package lcfsbuild

import (
	"github.com/go-composefs/lcfs"
	"golang.org/x/sys/unix"
)

// readXattrs lists and reads every extended attribute set on path (without
// following a trailing symlink) and attaches them to n, the Go equivalent
// of the original C read_xattrs helper.
func readXattrs(n *lcfs.Node, path string) error {
	size, err := unix.Llistxattr(path, nil)
	if err != nil {
		if err == unix.ENOTSUP || err == unix.EOPNOTSUPP {
			return nil
		}
		return err
	}
	if size == 0 {
		return nil
	}

	list := make([]byte, size)
	n2, err := unix.Llistxattr(path, list)
	if err != nil {
		return err
	}
	list = list[:n2]

	for _, name := range splitNames(list) {
		vsize, err := unix.Lgetxattr(path, name, nil)
		if err != nil {
			return err
		}

		value := make([]byte, vsize)
		if vsize > 0 {
			vn, err := unix.Lgetxattr(path, name, value)
			if err != nil {
				return err
			}
			value = value[:vn]
		}

		n.SetXattr(name, value)
	}

	return nil
}

// splitNames splits the NUL-separated name list returned by Llistxattr
// into individual strings.
func splitNames(list []byte) []string {
	var names []string
	start := 0
	for i, b := range list {
		if b == 0 {
			if i > start {
				names = append(names, string(list[start:i]))
			}
			start = i + 1
		}
	}
	return names
}
