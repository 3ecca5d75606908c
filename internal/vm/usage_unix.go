//go:build darwin || linux

package vm

import (
	"os"
	"syscall"
)

// allocatedBytes returns the bytes actually backing a possibly sparse file.
func allocatedBytes(info os.FileInfo) int64 {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.Size()
	}
	return int64(st.Blocks) * 512
}
