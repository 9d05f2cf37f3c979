package metadata

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pathscout/pkg/finder"
)

// Metadata keys set by Attach.
const (
	KeySize              = "size"
	KeyModTime           = "modTime"
	KeyMode              = "mode"
	KeySymlinkTarget     = "symlinkTarget"
	KeyBinary            = "binary"
	KeyChecksum          = "checksum"
	KeyChecksumAlgorithm = "checksumAlgorithm"
	KeyChecksumError     = "checksumError"
)

// Options selects what Attach records.
type Options struct {
	Checksum     string // Algorithm name; empty skips checksums.
	DetectBinary bool
	Logger       *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Attach fills r.Metadata from the file at r.SourcePath. A checksum failure is
// recorded under KeyChecksumError and also returned.
func Attach(r *finder.Result, opts Options) error {
	info, err := os.Lstat(r.SourcePath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", r.SourcePath, err)
	}
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(r.SourcePath)
		if err != nil {
			return fmt.Errorf("read symlink %s: %w", r.SourcePath, err)
		}
		r.Metadata[KeySymlinkTarget] = target
		if info, err = os.Stat(r.SourcePath); err != nil {
			return fmt.Errorf("stat %s: %w", r.SourcePath, err)
		}
	}
	r.Metadata[KeySize] = info.Size()
	r.Metadata[KeyModTime] = info.ModTime().UTC().Format(time.RFC3339Nano)
	r.Metadata[KeyMode] = info.Mode().String()

	if opts.DetectBinary {
		binary, err := IsBinary(r.SourcePath)
		if err != nil {
			return fmt.Errorf("detect binary %s: %w", r.SourcePath, err)
		}
		r.Metadata[KeyBinary] = binary
	}

	if opts.Checksum != "" {
		sum, err := Checksum(r.SourcePath, opts.Checksum)
		if err != nil {
			r.Metadata[KeyChecksumError] = err.Error()
			return err
		}
		r.Metadata[KeyChecksum] = sum
		r.Metadata[KeyChecksumAlgorithm] = opts.Checksum
	}
	return nil
}

// AttachAll runs Attach over results with a pool of workers, updating the
// slice in place. All failures are combined into the returned error.
func AttachAll(results []finder.Result, opts Options, workers int) error {
	logger := opts.logger()
	if workers <= 0 {
		workers = runtime.NumCPU()
		logger.Debug("Adjusted worker count", zap.Int("workers", workers))
	}

	jobs := make(chan int, len(results))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)

	logger.Debug("Initializing worker pool", zap.Int("workers", workers), zap.Int("results", len(results)))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range jobs {
				if err := Attach(&results[i], opts); err != nil {
					logger.Warn("Failed to attach metadata",
						zap.Int("workerID", id),
						zap.String("path", results[i].SourcePath),
						zap.Error(err))
					mu.Lock()
					errs = multierr.Append(errs, err)
					mu.Unlock()
				}
			}
		}(w)
	}

	for i := range results {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	logger.Debug("Metadata attached", zap.Int("results", len(results)))
	return errs
}
