// Package obabel reads extra formats by converting them to SD text with
// Open Babel (or any converter with a compatible command line), and adds
// hydrogens through the same tool.
package obabel

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/structix/errors"
	"github.com/teranos/structix/formats/sdf"
	"github.com/teranos/structix/structure"
)

// failureMarkers in the converter's stderr mean nothing was converted even
// when the exit status is zero.
var failureMarkers = []string{"0 molecules converted"}

// ErrConversion reports a converter run that produced no structures.
var ErrConversion = errors.New("conversion failed")

// Runner executes a command. The default runs the process directly.
type Runner interface {
	Run(ctx context.Context, argv []string, stdin io.Reader) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, argv []string, stdin io.Reader) ([]byte, []byte, error) {
	if len(argv) == 0 {
		return nil, nil, errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var out, errOut bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err := cmd.Run()
	return out.Bytes(), errOut.Bytes(), err
}

// Reader converts one extra format.
type Reader struct {
	exe       string
	converter Converter
	runner    Runner
}

// NewReader creates a converter reader. A nil runner uses ExecRunner.
func NewReader(exe string, c Converter, runner Runner) *Reader {
	if runner == nil {
		runner = ExecRunner{}
	}
	if c.Command == "" {
		c.Command = DefaultCommand
	}
	return &Reader{exe: exe, converter: c, runner: runner}
}

// Command expands the command template for path.
func (r *Reader) Command(path string) ([]string, error) {
	return expand(r.converter.Command, map[string]string{
		"{exe}":    r.exe,
		"{format}": strings.TrimPrefix(strings.ToLower(r.converter.ID), "."),
		"{input}":  path,
	})
}

// Read runs the converter on path and decodes its SD output.
func (r *Reader) Read(ctx context.Context, path string) ([]*structure.Record, error) {
	argv, err := r.Command(path)
	if err != nil {
		return nil, err
	}
	stdout, stderr, err := r.runner.Run(ctx, argv, nil)
	if err := checkRun(argv, stderr, err); err != nil {
		return nil, err
	}
	return sdf.Decode(ctx, splitLines(stdout))
}

// HydrogenAdder adds hydrogens by piping SD text through the converter.
type HydrogenAdder struct {
	exe    string
	runner Runner
}

// NewHydrogenAdder creates an adder running exe. A nil runner uses
// ExecRunner.
func NewHydrogenAdder(exe string, runner Runner) *HydrogenAdder {
	if runner == nil {
		runner = ExecRunner{}
	}
	if exe == "" {
		exe = "obabel"
	}
	return &HydrogenAdder{exe: exe, runner: runner}
}

// AddHydrogens returns a copy of rec with hydrogens added. Metadata is
// carried over from rec.
func (h *HydrogenAdder) AddHydrogens(ctx context.Context, rec *structure.Record) (*structure.Record, error) {
	var in bytes.Buffer
	if err := sdf.Write(&in, []*structure.Record{rec}); err != nil {
		return nil, err
	}
	argv := []string{h.exe, "-isdf", "-osdf", "-h"}
	stdout, stderr, err := h.runner.Run(ctx, argv, &in)
	if err := checkRun(argv, stderr, err); err != nil {
		return nil, err
	}
	recs, err := sdf.Decode(ctx, splitLines(stdout))
	if err != nil {
		return nil, errors.Wrap(err, "decode converter output")
	}
	if len(recs) != 1 {
		return nil, errors.Wrapf(ErrConversion, "expected 1 structure from %s, got %d", h.exe, len(recs))
	}
	orig := rec.Clone()
	out := recs[0]
	out.Metadata = orig.Metadata
	out.Cell = orig.Cell
	return out, nil
}

func checkRun(argv []string, stderr []byte, runErr error) error {
	msg := strings.TrimSpace(string(stderr))
	if runErr != nil {
		err := errors.Wrapf(runErr, "run %s", shellquote.Join(argv...))
		if msg != "" {
			err = errors.WithDetail(err, msg)
		}
		return err
	}
	for _, marker := range failureMarkers {
		if strings.Contains(msg, marker) {
			return errors.Wrapf(ErrConversion, "%s: %s", shellquote.Join(argv...), msg)
		}
	}
	return nil
}

// expand splits template like a shell would and substitutes placeholders
// inside each word, so paths with spaces stay one argument.
func expand(template string, values map[string]string) ([]string, error) {
	words, err := shellquote.Split(template)
	if err != nil {
		return nil, errors.Wrapf(err, "parse command %q", template)
	}
	if len(words) == 0 {
		return nil, errors.Newf("empty command %q", template)
	}
	for i, w := range words {
		for k, v := range values {
			w = strings.ReplaceAll(w, k, v)
		}
		words[i] = w
	}
	return words, nil
}

func splitLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(text, "\n")
}
