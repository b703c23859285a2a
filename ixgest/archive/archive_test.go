package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/structix/assemble"
	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/format"
	"github.com/teranos/structix/formats"
	"github.com/teranos/structix/internal/compress"
	"github.com/teranos/structix/ixgest/progress"
	"github.com/teranos/structix/structure"
)

const water = "3\nwater\nO 0.0 0.0 0.0\nH 0.757 0.586 0.0\nH -0.757 0.586 0.0\n"

type member struct {
	name string
	body []byte
	kind byte
}

func file(name, body string) member { return member{name: name, body: []byte(body), kind: tar.TypeReg} }

func tarBytes(t *testing.T, members ...member) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Mode: 0o644, Size: int64(len(m.body)), Typeflag: m.kind}
		switch m.kind {
		case tar.TypeDir:
			hdr.Mode, hdr.Size = 0o755, 0
		case tar.TypeSymlink:
			hdr.Linkname, hdr.Size = "target.xyz", 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Size > 0 {
			_, err := tw.Write(m.body)
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeArchive(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "testdata", name))
	require.NoError(t, err)
	return string(data)
}

func newIngestor(t *testing.T, opts ...Option) *Ingestor {
	t.Helper()
	reg, err := formats.NewRegistry("1.0.0", formats.Options{})
	require.NoError(t, err)
	return NewIngestor(format.NewDispatcher(reg, nil, nil), nil, nil, opts...)
}

func TestIngestIsolatesCorruptMember(t *testing.T) {
	path := writeArchive(t, "batch.tar", tarBytes(t,
		file("good.xyz", water),
		file("corrupt.xyz", "3\nbroken\nO 0.0 0.0\n"),
	))

	result, err := newIngestor(t).Ingest(context.Background(), path, Options{Policy: assemble.DefaultPolicy()})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Succeeded)

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "corrupt.xyz", failures[0].Member)
	assert.True(t, errors.Is(failures[0], errors.ErrArchiveMember))
	assert.True(t, errors.Is(failures[0], errors.ErrReaderFailure))

	require.True(t, result.Outcomes[0].OK())
	assert.Equal(t, ".xyz", result.Outcomes[0].Format)
	assert.Equal(t, "good.xyz", result.Outcomes[0].Records[0].Metadata.Source)
}

func TestIngestIsolatesOversizedAtomCount(t *testing.T) {
	path := writeArchive(t, "batch.tar", tarBytes(t,
		file("good.xyz", water),
		file("bomb.xyz", "100000000000\nbomb\nO 0 0 0\n"),
		file("after.xyz", water),
	))

	result, err := newIngestor(t).Ingest(context.Background(), path, Options{Policy: assemble.DefaultPolicy()})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 2, result.Succeeded)

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "bomb.xyz", failures[0].Member)
	assert.Contains(t, failures[0].Error(), "atom count 100000000000 exceeds")
	assert.True(t, result.Outcomes[2].OK())
}

// hydrogenAdder completes structures, failing on call failAt or canceling
// the run on call cancelAt.
type hydrogenAdder struct {
	calls    int
	failAt   int
	cancelAt int
	cancel   context.CancelFunc
}

func (h *hydrogenAdder) AddHydrogens(ctx context.Context, rec *structure.Record) (*structure.Record, error) {
	h.calls++
	switch h.calls {
	case h.failAt:
		return nil, errors.New("converter crashed")
	case h.cancelAt:
		h.cancel()
		return nil, ctx.Err()
	}
	return rec.Clone(), nil
}

func TestIngestFailedMemberPlacesNothing(t *testing.T) {
	path := writeArchive(t, "batch.tar", tarBytes(t,
		file("ten_frames.xyz", fixture(t, "ten_frames.xyz")),
		file("water.xyz", water),
	))
	reg, err := formats.NewRegistry("1.0.0", formats.Options{})
	require.NoError(t, err)
	asm := assemble.NewAssembler(&hydrogenAdder{failAt: 3}, nil)
	ing := NewIngestor(format.NewDispatcher(reg, nil, nil), asm, nil)

	db := assemble.NewSystemDB()
	target := assemble.NewTarget(db)
	policy := assemble.DefaultPolicy()
	policy.AddHydrogens = true

	result, err := ing.Ingest(context.Background(), path, Options{Policy: policy, Target: target})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Succeeded)

	require.False(t, result.Outcomes[0].OK())
	assert.Empty(t, result.Outcomes[0].Placements)
	assert.Contains(t, result.Outcomes[0].Err.Error(), "add hydrogens to structure 3")

	require.Len(t, result.Outcomes[1].Placements, 1)
	p := result.Outcomes[1].Placements[0]
	assert.True(t, p.NewSystem)
	assert.Equal(t, "water", p.SystemName)
	assert.Equal(t, []string{"water"}, db.Names())
	assert.Equal(t, 1, target.Placed())
	assert.Equal(t, p.SystemID, target.SystemID())
}

func TestIngestCanceledDuringMember(t *testing.T) {
	path := writeArchive(t, "batch.tar", tarBytes(t,
		file("first.xyz", water),
		file("second.xyz", water),
	))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg, err := formats.NewRegistry("1.0.0", formats.Options{})
	require.NoError(t, err)
	asm := assemble.NewAssembler(&hydrogenAdder{cancelAt: 2, cancel: cancel}, nil)
	ing := NewIngestor(format.NewDispatcher(reg, nil, nil), asm, nil)
	policy := assemble.DefaultPolicy()
	policy.AddHydrogens = true

	result, err := ing.Ingest(ctx, path, Options{Policy: policy})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Scanned)
	assert.Len(t, result.Outcomes, 1)
	assert.Equal(t, result.Scanned, len(result.Outcomes))
}

func TestIngestEveryMemberFails(t *testing.T) {
	path := writeArchive(t, "batch.tar", tarBytes(t,
		file("a.xyz", "not xyz"),
		file("b.unknown", "plain words"),
	))

	result, err := newIngestor(t).Ingest(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 0, result.Succeeded)
	require.Len(t, result.Failures(), 2)
	assert.True(t, errors.Is(result.Failures()[1], errors.ErrFormatResolution))
}

func TestIngestSkipsHiddenAndSpecialMembers(t *testing.T) {
	path := writeArchive(t, "batch.tgz", gzipBytes(t, tarBytes(t,
		member{name: "frames/", kind: tar.TypeDir},
		file("frames/3TR_model.pdb", fixture(t, "3TR_model.pdb")),
		file("frames/.3TR_model.pdb.swp", "junk"),
		file("__MACOSX/frames/._3TR_model.pdb", "resource fork"),
		file(".git/config", "[core]"),
		member{name: "frames/link.xyz", kind: tar.TypeSymlink},
	)))

	result, err := newIngestor(t).Ingest(context.Background(), path, Options{})
	require.NoError(t, err)

	assert.Equal(t, compress.Gzip, result.Compression)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Succeeded)
	assert.Len(t, result.Skipped, 4)
	assert.Equal(t, 10, result.Atoms())
}

func TestIngestExplicitFormatFilters(t *testing.T) {
	path := writeArchive(t, "batch.tar.zst", zstdBytes(t, tarBytes(t,
		file("one.xyz", water),
		file("two.pdb", fixture(t, "3TR_model.pdb")),
		member{name: "three.xyz.gz", body: gzipBytes(t, []byte(water)), kind: tar.TypeReg},
	)))

	result, err := newIngestor(t).Ingest(context.Background(), path, Options{ExplicitFormat: "xyz"})
	require.NoError(t, err)

	assert.Equal(t, compress.Zstd, result.Compression)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 2, result.Succeeded)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "two.pdb", result.Skipped[0].Member)
	for _, o := range result.Outcomes {
		assert.Equal(t, format.ProvenanceExplicit, o.Provenance)
	}
}

func TestIngestSniffsMembersWithoutSuffix(t *testing.T) {
	path := writeArchive(t, "batch.tar", tarBytes(t,
		file("structure", fixture(t, "3TR_model.mol2")),
	))

	result, err := newIngestor(t).Ingest(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Succeeded)
	assert.Equal(t, ".mol2", result.Outcomes[0].Format)
	assert.Equal(t, format.ProvenanceContent, result.Outcomes[0].Provenance)
}

func TestIngestPlacesSubsequentMembers(t *testing.T) {
	path := writeArchive(t, "batch.tar", tarBytes(t,
		file("first.xyz", water),
		file("second.xyz", water),
		file("third.xyz", water),
	))
	db := assemble.NewSystemDB()
	policy := assemble.DefaultPolicy()
	policy.Subsequent = assemble.SubsequentNewConfiguration

	result, err := newIngestor(t).Ingest(context.Background(), path, Options{
		Policy: policy,
		Target: assemble.NewTarget(db),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Succeeded)

	systems := db.Systems()
	require.Len(t, systems, 1)
	assert.Len(t, db.Configurations(systems[0].ID), 3)
}

func TestIngestIndexRangePerMember(t *testing.T) {
	path := writeArchive(t, "batch.tar", tarBytes(t,
		file("ten_frames.xyz", fixture(t, "ten_frames.xyz")),
		file("single.xyz", water),
	))
	policy := assemble.DefaultPolicy()
	policy.Indices = "3:4"

	result, err := newIngestor(t).Ingest(context.Background(), path, Options{Policy: policy})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Len(t, result.Outcomes[0].Records, 2)
	require.Len(t, result.Failures(), 1)
	assert.True(t, errors.Is(result.Failures()[0], errors.ErrIndexRange))
}

func TestIngestRemovesWorkspace(t *testing.T) {
	parent := t.TempDir()
	path := writeArchive(t, "batch.tar", tarBytes(t, file("good.xyz", water), file("bad.xyz", "x")))

	_, err := newIngestor(t, WithTempDir(parent)).Ingest(context.Background(), path, Options{})
	require.NoError(t, err)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIngestTruncatedStream(t *testing.T) {
	data := tarBytes(t, file("good.xyz", water), file("next.xyz", water))
	// keep the first member and part of the second header
	path := writeArchive(t, "batch.tar", data[:1024+100])
	parent := t.TempDir()

	result, err := newIngestor(t, WithTempDir(parent)).Ingest(context.Background(), path, Options{})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Succeeded)

	entries, _ := os.ReadDir(parent)
	assert.Empty(t, entries)
}

func TestIngestMissingArchive(t *testing.T) {
	result, err := newIngestor(t).Ingest(context.Background(), filepath.Join(t.TempDir(), "absent.tar"), Options{})
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestIngestCanceled(t *testing.T) {
	path := writeArchive(t, "batch.tar", tarBytes(t, file("good.xyz", water)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newIngestor(t).Ingest(ctx, path, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Scanned)
}

func TestIngestReportsProgress(t *testing.T) {
	rec := &progress.Recorder{}
	path := writeArchive(t, "batch.tar", tarBytes(t, file("good.xyz", water), file("bad.xyz", "x")))

	_, err := newIngestor(t, WithProgress(rec)).Ingest(context.Background(), path, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, rec.Count("stage"))
	assert.Equal(t, 1, rec.Count("structures"))
	assert.Equal(t, 1, rec.Count("error"))
	assert.Equal(t, 1, rec.Count("progress"))
}

func TestIsArchive(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"batch.tar", true},
		{"batch.tar.gz", true},
		{"batch.TAR.XZ", true},
		{"/data/batch.tgz", true},
		{"batch.tbz2", true},
		{"batch.txz", true},
		{"structure.xyz.gz", false},
		{"structure.pdb", false},
		{"tar", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsArchive(tt.path))
		})
	}
}

func TestMemberErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&MemberError{Member: "a.xyz", Cause: cause})

	assert.True(t, errors.Is(err, errors.ErrArchiveMember))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "archive member a.xyz: disk full", err.Error())
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = io.Copy(zw, bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
