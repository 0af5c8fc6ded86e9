// Package collect merges many small simulation result files into one JSON
// file per group.
//
// Inputs named qcmPov.<type><id>.json are grouped by <type> and written to
// qcmPov.<type>.json as {"<id>": <content>, ...}. Inputs named
// qcmTrace.<tx>-<rx>.json are grouped by <tx> and written to
// qcmTrace.<tx>.json as {"<rx>": <content>, ...}.
package collect

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

// ProcessedDir is where the simple variant writes merged files.
const ProcessedDir = "processed"

// Options tune how merged files are produced.
type Options struct {
	// Pretty indents the merged documents. Default output is compact.
	Pretty bool
	// Processed names the output subdirectory of the simple variant.
	// Empty means ProcessedDir.
	Processed string
	Logger    *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Glob returns the names of regular files directly in dir that match
// pattern, in lexical order.
func Glob(dir, pattern string) ([]string, error) {
	fis, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, fi := range fis {
		if !fi.Type().IsRegular() {
			continue
		}
		if match.Match(fi.Name(), pattern) {
			names = append(names, fi.Name())
		}
	}
	return names, nil
}

// Gather reads every file of family f in dir into a new aggregate.
func Gather(dir string, f Family, opts Options) (Aggregate, error) {
	log := opts.logger()
	names, err := Glob(dir, f.Pattern())
	if err != nil {
		return nil, fmt.Errorf("collect: scan %s: %w", dir, err)
	}
	agg := Aggregate{}
	for _, name := range names {
		e, err := f.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("collect: read %s: %w", path, err)
		}
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("collect: %s: %w", path, ErrInvalidJSON)
		}
		agg.Add(e, pretty.Ugly(data))
		log.Debug("read",
			zap.String("path", path),
			zap.String("group", e.Key.Group),
			zap.String("member", e.Member))
	}
	return agg, nil
}

// Flush writes one file per group of agg into outDir, which must exist.
// It returns the written paths in key order.
func Flush(agg Aggregate, outDir string, opts Options) ([]string, error) {
	log := opts.logger()
	var paths []string
	for _, k := range agg.Keys() {
		path := filepath.Join(outDir, k.Filename())
		data, err := agg.Encode(k, opts.Pretty)
		if err != nil {
			return paths, fmt.Errorf("collect: encode %s: %w", k, err)
		}
		if err := os.WriteFile(path, data, 0666); err != nil {
			return paths, fmt.Errorf("collect: write %s: %w", path, err)
		}
		log.Info("merged",
			zap.Stringer("family", k.Family),
			zap.String("group", k.Group),
			zap.Int("members", len(agg[k])),
			zap.String("path", path))
		paths = append(paths, path)
	}
	return paths, nil
}

// Run merges the family f files found in inDir into outDir.
func Run(inDir, outDir string, f Family, opts Options) ([]string, error) {
	agg, err := Gather(inDir, f, opts)
	if err != nil {
		return nil, err
	}
	return Flush(agg, outDir, opts)
}

// ProcessAll is the simple variant: it creates dir/processed, which must
// not exist yet, and writes the merged pov and trace files into it.
func ProcessAll(dir string, opts Options) error {
	sub := opts.Processed
	if sub == "" {
		sub = ProcessedDir
	}
	out := filepath.Join(dir, sub)
	if err := os.Mkdir(out, 0777); err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	for _, f := range Families {
		if _, err := Run(dir, out, f, opts); err != nil {
			return err
		}
	}
	return nil
}
