package glance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chaerem/glance/eink"
	"github.com/chaerem/glance/palette"
)

const batchWorkers = 10

func isPhoto(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	}
	return false
}

func (g *Glance) findPhotos(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !isPhoto(file) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (g *Glance) convertWorker(ctx context.Context, in <-chan string, opts eink.Options) (<-chan error, error) {
	pal := opts.Palette
	if pal == nil {
		pal = palette.Spectra6
	}
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if ctx.Err() != nil {
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				errc <- err
				return
			}

			frame, err := eink.Convert(data, opts)
			if err != nil {
				// A photo that cannot be decoded shouldn't
				// abort the whole batch.
				var decodeErr *eink.DecodeError
				if errors.As(err, &decodeErr) {
					g.logger.Printf("Skipping \"%s\": %v\n", file, err)
					continue
				}
				errc <- err
				return
			}

			packed, err := eink.PackFramebuffer(frame, pal)
			if err != nil {
				errc <- err
				return
			}

			out := strings.TrimSuffix(file, filepath.Ext(file)) + ".bin"
			if err := os.WriteFile(out, packed, 0644); err != nil {
				errc <- err
				return
			}
			g.logger.Printf("Converted \"%s\" to \"%s\" (%dx%d)\n", file, out, frame.Width, frame.Height)
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Batch converts every photo under path into a packed .bin framebuffer
// written alongside it. Conversions share no state, so they run on a
// fixed pool of workers; each worker dithers its own private buffers.
func (g *Glance) Batch(path string, opts eink.Options) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := g.findPhotos(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < batchWorkers; i++ {
		errc, err := g.convertWorker(ctx, files, opts)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
