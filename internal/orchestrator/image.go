package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/specialistvlad/socgrid/internal/builderr"
	"github.com/specialistvlad/socgrid/internal/config"
	"github.com/specialistvlad/socgrid/internal/ctxlog"
	"github.com/specialistvlad/socgrid/internal/dag"
	"github.com/specialistvlad/socgrid/internal/hexgen"
	"golang.org/x/sync/errgroup"
)

// buildImage turns the binary of sw into a hex image and its byte lanes. The
// raw binary is copied next to them. All files are published in parallel.
func (o *Orchestrator) buildImage(sw *config.Software) dag.RunFunc {
	return func(ctx context.Context) error {
		ctx = ctxlog.With(ctx, "role", sw.Role)
		logger := ctxlog.FromContext(ctx)

		binPath := filepath.Join(sw.Dir, sw.BinaryName())
		bin, err := os.ReadFile(binPath)
		if err != nil {
			return fmt.Errorf("reading %s binary: %w", sw.Role, err)
		}
		img, err := hexgen.Build(bin, sw.AddrW, o.sys.WordBytes)
		if err != nil {
			return fmt.Errorf("%s: %w", binPath, err)
		}
		lanes, err := img.Split(o.sys.Lanes)
		if err != nil {
			return err
		}
		logger.Debug("Image built.", "bytes", len(bin), "words", len(img.Words), "addr_w", sw.AddrW)

		g, gctx := errgroup.WithContext(ctx)
		publish := func(path string, data []byte) {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return o.pub.Publish(path, data)
			})
		}
		publish(o.binaryPath(sw), bin)
		publish(o.hexPath(sw), img.Bytes())
		for i, lane := range lanes {
			publish(o.lanePath(sw, i), lane.Bytes())
		}
		if err := g.Wait(); err != nil {
			return err
		}
		logger.Info("Published memory image.", "hex", o.hexPath(sw), "lanes", len(lanes))
		return nil
	}
}

// verifyImage reads back a published image and its lanes and checks that
// every lane holds the matching byte of every word.
func (o *Orchestrator) verifyImage(sw *config.Software) dag.RunFunc {
	return func(ctx context.Context) error {
		ctx = ctxlog.With(ctx, "role", sw.Role)
		logger := ctxlog.FromContext(ctx)

		img, err := readImage(o.hexPath(sw), o.sys.WordBytes)
		if err != nil {
			return err
		}
		if want := 1 << sw.AddrW; len(img.Words) != want {
			return builderr.New(builderr.ErrMalformedImage, "verify",
				"%d words, want %d", len(img.Words), want).WithPath(o.hexPath(sw))
		}

		lanes := make([]*hexgen.Image, o.sys.Lanes)
		for i := range lanes {
			path := o.lanePath(sw, i)
			lanes[i], err = readImage(path, 1)
			if err != nil {
				return err
			}
			if !slices.Equal(lanes[i].Words, img.Lane(i).Words) {
				return builderr.New(builderr.ErrMalformedImage, "verify",
					"lane %d does not match the image", i).WithPath(path)
			}
		}
		if len(lanes) >= img.WordBytes {
			merged, err := hexgen.Merge(lanes, img.WordBytes)
			if err != nil {
				return err
			}
			if !bytes.Equal(merged.Bytes(), img.Bytes()) {
				return builderr.New(builderr.ErrMalformedImage, "verify",
					"lanes do not recombine into the image").WithPath(o.hexPath(sw))
			}
		}
		logger.Info("Image verified.", "words", len(img.Words), "lanes", len(lanes))
		return nil
	}
}

func readImage(path string, wordBytes int) (*hexgen.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	img, err := hexgen.Parse(f, wordBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
