//go:build unix

package fileutil

import "syscall"

// FreeMB reports the free space on the volume holding dir, in megabytes.
func FreeMB(dir string) (int64, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(dir, &st); err != nil {
		return -1, err
	}
	return int64(st.Bavail) * int64(st.Bsize) / (1024 * 1024), nil
}
