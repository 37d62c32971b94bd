// Package archive reads and writes the tarballs kiln deals with: recipe
// archives, source downloads and built packages.
package archive

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
)

// Extensions are the file name suffixes recognized as tarballs.
var Extensions = []string{".tar", ".tar.gz", ".tgz", ".tar.bz2"}

// HasExtension reports whether name ends in one of Extensions.
func HasExtension(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Extract unpacks the tarball at src into dst, which is created if needed.
// The compression is detected from the content, not the name.
func Extract(src, dst string) error {
	// #nosec G304 -- src is a recipe or download chosen by the user
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := ExtractReader(f, dst); err != nil {
		return fmt.Errorf("extract %s: %w", src, err)
	}
	return nil
}

// ExtractReader unpacks a plain, gzip or bzip2 compressed tar stream into dst.
// Entries may not escape dst.
func ExtractReader(r io.Reader, dst string) error {
	br := bufio.NewReader(r)
	header, err := br.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	var stream io.Reader = br
	switch {
	case hasBzip2Magic(header):
		zr, err := bzip2.NewReader(br, nil)
		if err != nil {
			return err
		}
		defer zr.Close()
		stream = zr
	case hasGzipMagic(header):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return err
		}
		defer zr.Close()
		stream = zr
	}

	if err := os.MkdirAll(dst, 0o750); err != nil {
		return err
	}
	root, err := os.OpenRoot(dst)
	if err != nil {
		return err
	}
	defer root.Close()

	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := extractEntry(root, tr, hdr); err != nil {
			return fmt.Errorf("%s: %w", hdr.Name, err)
		}
	}
}

func extractEntry(root *os.Root, r io.Reader, hdr *tar.Header) error {
	if hdr.Typeflag == tar.TypeXGlobalHeader {
		return nil
	}

	name, err := filepath.Localize(path.Clean(strings.TrimPrefix(hdr.Name, "./")))
	if err != nil {
		return err
	}
	if name == "." {
		return nil
	}
	if dir := filepath.Dir(name); dir != "." {
		if err := root.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}

	mode := hdr.FileInfo().Mode()
	switch hdr.Typeflag {
	case tar.TypeDir:
		err := root.Mkdir(name, 0o750)
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return err
	case tar.TypeReg:
		perm := os.FileMode(0o644)
		if mode&0o111 != 0 {
			perm |= 0o111
		}
		w, err := root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
		if err != nil {
			return err
		}
		// #nosec G110 -- archives are user supplied build inputs
		_, err1 := io.Copy(w, r)
		err2 := w.Close()
		return errors.Join(err1, err2)
	case tar.TypeSymlink:
		target := hdr.Linkname
		if filepath.IsAbs(target) || !filepath.IsLocal(filepath.Join(filepath.Dir(name), target)) {
			return fmt.Errorf("symlink target %q escapes the archive", target)
		}
		return root.Symlink(target, name)
	case tar.TypeLink:
		target, err := filepath.Localize(path.Clean(strings.TrimPrefix(hdr.Linkname, "./")))
		if err != nil {
			return err
		}
		return root.Link(target, name)
	default:
		return fmt.Errorf("unsupported tar entry type %q", hdr.Typeflag)
	}
}

// SingleTopDir returns the only entry of dir when it is a directory.
func SingleTopDir(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return "", false
	}
	return filepath.Join(dir, entries[0].Name()), true
}

func hasBzip2Magic(header []byte) bool {
	return len(header) >= 3 && header[0] == 'B' && header[1] == 'Z' && header[2] == 'h'
}

func hasGzipMagic(header []byte) bool {
	return len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b
}
