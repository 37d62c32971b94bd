package archive

import (
	"archive/tar"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dsnet/compress/bzip2"
)

// Writer writes a bzip2 compressed tarball.
type Writer struct {
	zw    *bzip2.Writer
	tw    *tar.Writer
	mtime time.Time
}

// NewWriter starts a tarball on w. Every entry is stamped with mtime.
func NewWriter(w io.Writer, mtime time.Time) (*Writer, error) {
	zw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return nil, err
	}
	return &Writer{zw: zw, tw: tar.NewWriter(zw), mtime: mtime}, nil
}

// AddFile stores root/rel under the slash separated name rel.
// Symlinks are stored as links.
func (w *Writer) AddFile(root, rel string) error {
	return w.AddFileAs(filepath.Join(root, rel), filepath.ToSlash(rel))
}

// AddFileAs stores the file at full under name.
func (w *Writer) AddFileAs(full, name string) error {
	info, err := os.Lstat(full)
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(full); err != nil {
			return err
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	hdr.ModTime = w.mtime
	hdr.Uid, hdr.Gid, hdr.Uname, hdr.Gname = 0, 0, "", ""

	if err := w.tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	// #nosec G304 -- full is inside the build prefix
	f, err := os.Open(full)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w.tw, f)
	return err
}

// AddBytes stores data as a regular file named name.
func (w *Writer) AddBytes(name string, data []byte) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  w.mtime,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := w.tw.Write(data)
	return err
}

// Close flushes the tar stream and the compressor.
func (w *Writer) Close() error {
	return errors.Join(w.tw.Close(), w.zw.Close())
}
