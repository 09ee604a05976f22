package images

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader reads image files into data URLs.
type Loader struct {
	// MaxDimension bounds the longest side of each image; 0 keeps originals.
	MaxDimension int
	Logger       *zap.Logger
}

// Load reads every path concurrently and calls add with each data URL as soon
// as that file is ready. The order of add calls follows completion, not the
// order of paths. add is never called concurrently. The first read or encode
// failure is returned after all reads have finished; files that succeeded are
// still added. Cancelling ctx skips files not yet started.
func (l *Loader) Load(ctx context.Context, paths []string, add func(dataURL string)) error {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read image %s: %w", path, err)
			}
			data, err = Fit(data, l.MaxDimension)
			if err != nil {
				return fmt.Errorf("failed to resize image %s: %w", path, err)
			}
			url, err := DataURL(data)
			if err != nil {
				return fmt.Errorf("image %s: %w", path, err)
			}

			mu.Lock()
			add(url)
			mu.Unlock()
			logger.Debug("image loaded", zap.String("path", path), zap.Int("bytes", len(data)))
			return nil
		})
	}
	return g.Wait()
}
