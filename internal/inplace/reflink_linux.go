//go:build linux

package inplace

import (
	"os"

	"golang.org/x/sys/unix"
)

// tryReflink attempts a copy-on-write clone of src to dst via the FICLONE
// ioctl (btrfs, XFS 4.x+). Returns false, nil when the filesystem does not
// support it — that is not an error, just a degrade signal to the caller.
func tryReflink(src, dst string) (bool, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return false, err
	}
	defer dstFile.Close()

	if err := unix.IoctlFileClone(int(dstFile.Fd()), int(srcFile.Fd())); err != nil {
		os.Remove(dst)
		return false, nil
	}
	return true, nil
}

func (w *Writer) tryCreateReflinkSnapshot() (bool, error) {
	ok, err := tryReflink(w.dest, reflinkSnapshotPath(w.dest))
	if err != nil {
		return false, err
	}
	return ok, nil
}
