// Package optpipeline drives the inlining pass over directories of
// serialized module files, one worker per file.
package optpipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"crest/internal/inline"
	"crest/internal/ir"
	"crest/internal/irenc"
)

// ModuleExt is the extension of serialized module files.
const ModuleExt = ".cir"

// Options tunes a pipeline run.
type Options struct {
	// Jobs caps worker parallelism; 0 means GOMAXPROCS.
	Jobs int
	// Policy tunes the size policy applied to every module.
	Policy inline.PolicyConfig
	// DryRun skips writing rewritten modules back to disk.
	DryRun bool
}

// FileResult summarizes one processed module file.
type FileResult struct {
	Path    string
	Funcs   int
	Stats   inline.Stats
	Elapsed time.Duration
	Err     error
}

// ListModuleFiles returns every module file under dir, sorted for a
// deterministic processing order.
func ListModuleFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ModuleExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// OptimizeModule runs the inlining pass over every function of m and
// returns the accumulated policy stats.
func OptimizeModule(m *ir.Module, cfg inline.PolicyConfig) (inline.Stats, error) {
	policy := inline.NewSizePolicy(m, cfg)
	for _, f := range m.Funcs {
		if _, err := inline.Run(f, policy); err != nil {
			return policy.Stats, fmt.Errorf("function %s: %w", f.Name, err)
		}
	}
	return policy.Stats, nil
}

// VerifyModule validates every function of m.
func VerifyModule(m *ir.Module) error {
	for _, f := range m.Funcs {
		if err := ir.Validate(f); err != nil {
			return fmt.Errorf("function %s: %w", f.Name, err)
		}
	}
	return nil
}

// Run processes every module file under dir in parallel. Results come
// back indexed by the sorted file order regardless of completion order.
// The first file error cancels the remaining work.
func Run(ctx context.Context, dir string, opts Options, sink ProgressSink) ([]FileResult, error) {
	files, err := ListModuleFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	if sink == nil {
		sink = NopSink{}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	for _, path := range files {
		sink.OnEvent(Event{File: path, Stage: StageLoad, Status: StatusQueued})
	}

	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = processFile(path, opts, sink)
			return results[i].Err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func processFile(path string, opts Options, sink ProgressSink) FileResult {
	start := time.Now()
	fail := func(stage Stage, err error) FileResult {
		sink.OnEvent(Event{File: path, Stage: stage, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		return FileResult{Path: path, Elapsed: time.Since(start), Err: err}
	}

	sink.OnEvent(Event{File: path, Stage: StageLoad, Status: StatusWorking})
	m, err := irenc.ReadFile(path)
	if err != nil {
		return fail(StageLoad, err)
	}

	sink.OnEvent(Event{File: path, Stage: StageInline, Status: StatusWorking})
	stats, err := OptimizeModule(m, opts.Policy)
	if err != nil {
		return fail(StageInline, err)
	}

	sink.OnEvent(Event{File: path, Stage: StageVerify, Status: StatusWorking})
	if err := VerifyModule(m); err != nil {
		return fail(StageVerify, err)
	}

	if !opts.DryRun {
		sink.OnEvent(Event{File: path, Stage: StageWrite, Status: StatusWorking})
		if err := irenc.WriteFile(path, m); err != nil {
			return fail(StageWrite, err)
		}
	}

	res := FileResult{Path: path, Funcs: len(m.Funcs), Stats: stats, Elapsed: time.Since(start)}
	sink.OnEvent(Event{File: path, Stage: StageWrite, Status: StatusDone, Elapsed: res.Elapsed})
	return res
}
