//go:build unix

package pci

import "golang.org/x/sys/unix"

func canOpen(node string) bool {
	return unix.Access(node, unix.R_OK|unix.W_OK) == nil
}
