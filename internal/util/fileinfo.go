package util

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// FileInfo carries the file identity fields incremental parsing needs: size
// for growth/shrink detection, mtime for cheap change checks, inode to tell
// a rotated replacement apart from in-place truncation.
type FileInfo struct {
	Size    int64
	ModTime int64
	Inode   uint64
}

// GetFileInfo stats a file including its inode number.
// Supported on Linux and macOS.
func GetFileInfo(path string) (*FileInfo, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	return &FileInfo{
		Size:    st.Size,
		ModTime: st.Mtim.Sec,
		Inode:   st.Ino,
	}, nil
}
