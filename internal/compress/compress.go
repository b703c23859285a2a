// Package compress unwraps single-file compression around structure files
// and archives. Codecs are chosen from the file suffix (".gz", ".bz2",
// ".xz", ".zst", ".lz4") or, when the suffix says nothing, from magic bytes.
package compress

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/teranos/structix/errors"
)

// Codec names a compression wrapper. The zero value means uncompressed.
type Codec string

const (
	None  Codec = ""
	Gzip  Codec = "gzip"
	Bzip2 Codec = "bzip2"
	XZ    Codec = "xz"
	Zstd  Codec = "zstd"
	LZ4   Codec = "lz4"
)

// markers maps compression suffixes to codecs.
var markers = map[string]Codec{
	".gz":  Gzip,
	".bz2": Bzip2,
	".xz":  XZ,
	".zst": Zstd,
	".lz4": LZ4,
}

var magics = []struct {
	prefix []byte
	codec  Codec
}{
	{[]byte{0x1f, 0x8b}, Gzip},
	{[]byte("BZh"), Bzip2},
	{[]byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, XZ},
	{[]byte{0x28, 0xb5, 0x2f, 0xfd}, Zstd},
	{[]byte{0x04, 0x22, 0x4d, 0x18}, LZ4},
}

// MagicLen is the number of leading bytes Sniff needs.
const MagicLen = 6

// String returns the codec name, "none" for None.
func (c Codec) String() string {
	if c == None {
		return "none"
	}
	return string(c)
}

// Marker returns the file suffix of the codec (".gz"), "" for None.
func (c Codec) Marker() string {
	for ext, codec := range markers {
		if codec == c {
			return ext
		}
	}
	return ""
}

// FromSuffix returns the codec for a suffix such as ".GZ", or None.
func FromSuffix(ext string) Codec {
	return markers[strings.ToLower(ext)]
}

// IsMarker reports whether ext is a compression suffix.
func IsMarker(ext string) bool {
	return FromSuffix(ext) != None
}

// Markers lists the compression suffixes.
func Markers() []string {
	return []string{".gz", ".bz2", ".xz", ".zst", ".lz4"}
}

// SplitSuffix peels one compression marker off name:
// "water.xyz.gz" -> ("water.xyz", Gzip); "water.xyz" -> ("water.xyz", None).
func SplitSuffix(name string) (string, Codec) {
	ext := filepath.Ext(name)
	codec := FromSuffix(ext)
	if codec == None {
		return name, None
	}
	return strings.TrimSuffix(name, ext), codec
}

// Sniff identifies a codec from the first bytes of a stream.
func Sniff(head []byte) Codec {
	for _, m := range magics {
		if bytes.HasPrefix(head, m.prefix) {
			return m.codec
		}
	}
	return None
}

// NewReader wraps r with the decoder for codec. The returned closer releases
// the decoder only; closing r stays with the caller.
func NewReader(r io.Reader, codec Codec) (io.ReadCloser, error) {
	switch codec {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		return zr, nil
	case Bzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "open xz stream")
		}
		return io.NopCloser(xr), nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "open zstd stream")
		}
		return zr.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	}
	return nil, errors.Newf("unsupported compression %q", string(codec))
}

// Detect returns a reader positioned at the start of r together with the
// codec its magic bytes announce.
func Detect(r io.Reader) (io.Reader, Codec, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(MagicLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, None, errors.Wrap(err, "peek stream header")
	}
	return br, Sniff(head), nil
}

// Open opens path and transparently decompresses it. The suffix names the
// codec; without a marker suffix the magic bytes decide. Closing the result
// closes the file.
func Open(path string) (io.ReadCloser, Codec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, None, errors.Wrapf(err, "open %s", path)
	}
	var src io.Reader = f
	_, codec := SplitSuffix(path)
	if codec == None {
		if src, codec, err = Detect(f); err != nil {
			f.Close()
			return nil, None, errors.Wrapf(err, "open %s", path)
		}
	}
	dec, err := NewReader(src, codec)
	if err != nil {
		f.Close()
		return nil, codec, errors.Wrapf(err, "decompress %s", path)
	}
	return &fileReader{ReadCloser: dec, file: f}, codec, nil
}

// OpenAs opens path and decompresses it with codec regardless of its name.
func OpenAs(path string, codec Codec) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	dec, err := NewReader(f, codec)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "decompress %s", path)
	}
	return &fileReader{ReadCloser: dec, file: f}, nil
}

type fileReader struct {
	io.ReadCloser
	file *os.File
}

func (r *fileReader) Close() error {
	decErr := r.ReadCloser.Close()
	if err := r.file.Close(); err != nil {
		return err
	}
	return decErr
}

// ReadHead reads at most n bytes of the decompressed content of path and
// reports the codec that was unwrapped. A truncated stream yields the bytes
// decoded before the damage.
func ReadHead(path string, n int) ([]byte, Codec, error) {
	rc, codec, err := Open(path)
	if err != nil {
		return nil, codec, err
	}
	defer rc.Close()
	buf, err := io.ReadAll(io.LimitReader(rc, int64(n)))
	if err != nil && len(buf) == 0 {
		return nil, codec, errors.Wrapf(err, "read %s", path)
	}
	return buf, codec, nil
}
