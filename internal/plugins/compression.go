package plugins

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/h5runner/internal/assets"
)

const (
	AlgorithmGzip = "gzip"
	AlgorithmZstd = "zstd"

	DefaultCompressionThreshold = 1024
)

var compressibleExts = []string{".js", ".mjs", ".css", ".html", ".svg", ".json", ".txt"}

// Compression writes precompressed siblings (.gz, .zst) of text outputs so a
// static server can send them with a matching Content-Encoding.
type Compression struct {
	Algorithms []string `json:"algorithms" yaml:"algorithms"`
	// Threshold is the minimum output size in bytes worth compressing.
	Threshold int64 `json:"threshold" yaml:"threshold"`
}

func (c *Compression) Apply(opts *api.BuildOptions) error {
	for _, alg := range c.Algorithms {
		if _, err := extensionFor(alg); err != nil {
			return err
		}
	}

	onEnd(opts, "compression", func(meta *assets.BuildMetadata, dirs buildDirs) error {
		compressed := 0
		for _, file := range meta.Files(dirs.WorkingDir, dirs.OutDir) {
			if file.Bytes < c.Threshold || !slices.Contains(compressibleExts, filepath.Ext(file.Path)) {
				continue
			}
			for _, alg := range c.Algorithms {
				if _, err := CompressFile(file.Path, alg); err != nil {
					return err
				}
				compressed++
			}
		}
		log.Debug().Int("files", compressed).Msg("Compressed outputs")
		return nil
	})
	return nil
}

func extensionFor(alg string) (string, error) {
	switch alg {
	case AlgorithmGzip:
		return ".gz", nil
	case AlgorithmZstd:
		return ".zst", nil
	default:
		return "", fmt.Errorf("unsupported compression algorithm %q", alg)
	}
}

// CompressFile writes path compressed with alg next to it and returns the
// compressed file's path.
func CompressFile(path, alg string) (string, error) {
	ext, err := extensionFor(alg)
	if err != nil {
		return "", err
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open output: %w", err)
	}
	defer src.Close()

	target := path + ext
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create compressed file: %w", err)
	}
	defer dst.Close()

	enc, err := newEncoder(dst, alg)
	if err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to create encoder: %w", err)
	}

	if _, err := io.Copy(enc, src); err != nil {
		if closeErr := enc.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close encoder during error cleanup")
		}
		os.Remove(target) // Clean up partial file
		return "", fmt.Errorf("failed to compress: %w", err)
	}

	// Close encoder to flush
	if err := enc.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to finalize compression: %w", err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close compressed file: %w", err)
	}

	return target, nil
}

func newEncoder(w io.Writer, alg string) (io.WriteCloser, error) {
	if alg == AlgorithmZstd {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	return gzip.NewWriterLevel(w, gzip.BestCompression)
}
