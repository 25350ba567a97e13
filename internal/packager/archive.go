package packager

import (
	"archive/zip"
	"bytes"
	"errors"
	"hash/crc32"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/flate"
)

const (
	mimetypeName    = "mimetype"
	mimetypeContent = "application/epub+zip"
	containerName   = "META-INF/container.xml"
)

// compression selects how one entry is stored.
type compression struct {
	method uint16
	level  int
}

func stored() compression { return compression{method: zip.Store} }

func deflated(level int) compression {
	return compression{method: zip.Deflate, level: level}
}

func (c compression) String() string {
	if c.method == zip.Store {
		return "store"
	}
	return "deflate"
}

// archiveWriter appends entries to a zip stream one at a time. It owns the
// caller streams that have not been copied yet, in the order they will be
// written, so a failed write can release them.
type archiveWriter struct {
	zw       *zip.Writer
	modified time.Time
	logger   *slog.Logger
	pending  []io.ReadCloser
	entries  int
}

func newArchiveWriter(w io.Writer, modified time.Time, streams []io.ReadCloser, logger *slog.Logger) *archiveWriter {
	return &archiveWriter{
		zw:       zip.NewWriter(w),
		modified: modified,
		logger:   logger,
		pending:  streams,
	}
}

// writeMimetype writes the mimetype entry stored, with no data descriptor
// and no extra field, so it can be sniffed at a fixed offset.
func (a *archiveWriter) writeMimetype() error {
	data := []byte(mimetypeContent)
	fh := &zip.FileHeader{
		Name:               mimetypeName,
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE(data),
		CompressedSize64:   uint64(len(data)),
		UncompressedSize64: uint64(len(data)),
	}
	w, err := a.zw.CreateRaw(fh)
	if err != nil {
		return &ArchiveError{Entry: mimetypeName, Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &ArchiveError{Entry: mimetypeName, Err: err}
	}
	a.logEntry(mimetypeName, stored(), int64(len(data)))
	return nil
}

// writeBytes writes a generated entry.
func (a *archiveWriter) writeBytes(name string, data []byte, c compression) error {
	w, err := a.create(name, c)
	if err != nil {
		return &ArchiveError{Entry: name, Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &ArchiveError{Entry: name, Err: err}
	}
	a.logEntry(name, c, int64(len(data)))
	return nil
}

// copyStream copies a caller stream into a new entry and closes it, on
// success and on failure alike. A nil stream yields an empty entry.
func (a *archiveWriter) copyStream(name string, src io.ReadCloser, c compression) error {
	if src == nil {
		return a.writeBytes(name, nil, c)
	}
	a.take()

	w, err := a.create(name, c)
	if err != nil {
		_ = src.Close()
		return &ArchiveError{Entry: name, Err: err}
	}

	tr := &trackingReader{r: src}
	n, err := io.Copy(w, tr)
	closeErr := src.Close()
	if err != nil {
		if tr.err != nil {
			return &StreamError{Entry: name, Err: tr.err}
		}
		return &ArchiveError{Entry: name, Err: err}
	}
	if closeErr != nil {
		return &StreamError{Entry: name, Err: closeErr}
	}
	a.logEntry(name, c, n)
	return nil
}

// readStream reads a caller stream to the end and closes it.
func (a *archiveWriter) readStream(name string, src io.ReadCloser) ([]byte, error) {
	if src == nil {
		return nil, nil
	}
	a.take()

	var buf bytes.Buffer
	_, err := buf.ReadFrom(src)
	closeErr := src.Close()
	if err != nil {
		return nil, &StreamError{Entry: name, Err: err}
	}
	if closeErr != nil {
		return nil, &StreamError{Entry: name, Err: closeErr}
	}
	return buf.Bytes(), nil
}

// take marks the next pending stream as owned by the entry being written.
func (a *archiveWriter) take() {
	if len(a.pending) > 0 {
		a.pending = a.pending[1:]
	}
}

// release closes every stream that was never copied.
func (a *archiveWriter) release() {
	for _, r := range a.pending {
		_ = r.Close()
	}
	a.pending = nil
}

func (a *archiveWriter) close() error {
	if err := a.zw.Close(); err != nil {
		return &ArchiveError{Err: err}
	}
	return nil
}

// create opens an entry. The deflate compressor is registered per entry
// because the level differs between textual and binary entries.
func (a *archiveWriter) create(name string, c compression) (io.Writer, error) {
	if c.method == zip.Deflate {
		level := c.level
		a.zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, level)
		})
	}
	fh := &zip.FileHeader{
		Name:     name,
		Method:   c.method,
		Modified: a.modified,
	}
	fh.SetMode(0o644)
	return a.zw.CreateHeader(fh)
}

func (a *archiveWriter) logEntry(name string, c compression, n int64) {
	a.entries++
	a.logger.Debug("wrote entry", "name", name, "method", c.String(), "bytes", n)
}

// trackingReader remembers the first read error so copy failures can be
// attributed to the input stream or to the archive sink.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && t.err == nil {
		t.err = err
	}
	return n, err
}
