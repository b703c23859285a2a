// Package source turns a structure file argument into a local path.
// Uses hashicorp/go-getter for remote inputs:
//   - HTTP(S) URLs: https://example.com/ligands/aspirin.sdf
//   - Forced getters: s3::https://bucket.s3.amazonaws.com/frames.xyz.gz
//   - Git: git::https://github.com/user/structures//water.pdb
//
// Local paths and file:// URLs pass through without copying.
package source

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/logger"
)

// Source is a resolved input.
type Source struct {
	// LocalPath is the file to read, either the input itself or the fetched copy
	LocalPath string
	// Input is the argument as given
	Input string
	// Remote is true when the file was fetched
	Remote bool
	// TempDir holds the fetched copy (empty for local inputs)
	TempDir string

	cleanup func()
}

// Cleanup removes the fetched copy. Safe to call multiple times.
func (s *Source) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// Fetcher resolves inputs, fetching remote ones into temporary directories.
type Fetcher struct {
	tempDir string
	getters map[string]getter.Getter
	log     *zap.SugaredLogger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTempDir sets the parent directory of fetched copies.
func WithTempDir(dir string) Option {
	return func(f *Fetcher) { f.tempDir = dir }
}

// WithGetters replaces go-getter's default protocol table.
func WithGetters(getters map[string]getter.Getter) Option {
	return func(f *Fetcher) { f.getters = getters }
}

// WithHTTPClient downloads http and https sources through c. Other getters
// are kept.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		getters := make(map[string]getter.Getter, len(f.getters))
		for k, v := range f.getters {
			getters[k] = v
		}
		hg := &getter.HttpGetter{Client: c, Netrc: true}
		getters["http"] = hg
		getters["https"] = hg
		f.getters = getters
	}
}

// NewFetcher creates a fetcher using go-getter's default getters.
func NewFetcher(log *zap.SugaredLogger, opts ...Option) *Fetcher {
	f := &Fetcher{getters: getter.Getters, log: logger.OrNop(log)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolve returns a local path for input. Remote inputs are downloaded as
// single files; compressed files and archives are kept as they are so the
// reader and the archive ingestor see the original bytes.
func (f *Fetcher) Resolve(ctx context.Context, input string) (*Source, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.NewInvalidRequestError("no input file given")
	}
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	detected, err := getter.Detect(input, pwd, getter.Detectors)
	if err != nil {
		return nil, errors.Wrapf(err, "detect source type of %s", input)
	}
	if local, ok := localPath(input, detected); ok {
		expanded, err := expandHome(local)
		if err != nil {
			return nil, err
		}
		return &Source{LocalPath: expanded, Input: input}, nil
	}

	return f.fetch(ctx, input, detected)
}

func (f *Fetcher) fetch(ctx context.Context, input, detected string) (*Source, error) {
	log := logger.FromContext(ctx, f.log)

	dir, err := os.MkdirTemp(f.tempDir, "structix-source-*")
	if err != nil {
		return nil, errors.Wrap(err, "create download directory")
	}
	dst := filepath.Join(dir, FileName(input))

	log.Infow("Fetching structure file",
		logger.FieldSource, input,
		logger.FieldPath, dst,
	)

	client := &getter.Client{
		Ctx:  ctx,
		Src:  detected,
		Dst:  dst,
		Pwd:  dir,
		Mode: getter.ClientModeFile,
		// keep archives and compressed files intact
		Decompressors: map[string]getter.Decompressor{},
		Getters:       f.getters,
	}
	if err := client.Get(); err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrapf(err, "fetch %s", input)
	}

	return &Source{
		LocalPath: dst,
		Input:     input,
		Remote:    true,
		TempDir:   dir,
		cleanup: func() {
			log.Debugw("Removing fetched structure file", logger.FieldPath, dir)
			os.RemoveAll(dir)
		},
	}, nil
}

// IsRemote reports whether input would be fetched rather than read in place.
func IsRemote(input string) bool {
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	detected, err := getter.Detect(input, pwd, getter.Detectors)
	if err != nil {
		return false
	}
	_, local := localPath(input, detected)
	return !local
}

// FileName derives the name of the fetched copy from the last path element
// of input, so its suffix still identifies the format.
func FileName(input string) string {
	s := input
	if i := strings.Index(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		s = u.Path
	}
	// go-getter subdirectory syntax: repo//sub/file.pdb
	name := path.Base(strings.TrimSuffix(s, "/"))
	if name == "." || name == "/" || name == "" {
		return "download"
	}
	return name
}

func localPath(input, detected string) (string, bool) {
	u, err := url.Parse(detected)
	if err != nil {
		return input, true
	}
	switch u.Scheme {
	case "":
		return input, true
	case "file":
		if strings.HasPrefix(input, "file://") {
			return u.Path, true
		}
		return input, true
	}
	return "", false
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "expand home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(p[1:], "/")), nil
}
