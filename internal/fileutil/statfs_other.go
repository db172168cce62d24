//go:build !unix

package fileutil

// FreeMB reports -1 on platforms without statfs; callers treat that as
// "unknown, do not purge".
func FreeMB(dir string) (int64, error) {
	return -1, nil
}
