package plugins

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/h5runner/internal/assets"
)

// CopyPattern copies From (an absolute file, directory or doublestar glob)
// to To, a path relative to the output directory.
type CopyPattern struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Copy copies static files into the output directory after each build.
type Copy struct {
	Patterns []CopyPattern `json:"patterns" yaml:"patterns"`
}

func (c *Copy) Apply(opts *api.BuildOptions) error {
	onEnd(opts, "copy", func(_ *assets.BuildMetadata, dirs buildDirs) error {
		copied, err := c.CopyFiles(dirs.OutDir)
		if err != nil {
			return err
		}
		log.Debug().Int("files", copied).Msg("Copied static files")
		return nil
	})
	return nil
}

// CopyFiles runs every pattern against outDir and reports how many files
// were copied.
func (c *Copy) CopyFiles(outDir string) (int, error) {
	total := 0
	for _, pattern := range c.Patterns {
		n, err := copyPattern(pattern, outDir)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func copyPattern(pattern CopyPattern, outDir string) (int, error) {
	dest := filepath.Join(outDir, pattern.To)

	info, err := os.Stat(pattern.From)
	switch {
	case err == nil && info.IsDir():
		return copyTree(pattern.From, dest)
	case err == nil:
		if pattern.To == "" || strings.HasSuffix(pattern.To, "/") {
			dest = filepath.Join(dest, filepath.Base(pattern.From))
		}
		return 1, copyFile(pattern.From, dest)
	}

	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern.From))
	matches, err := doublestar.FilepathGlob(pattern.From, doublestar.WithFilesOnly())
	if err != nil {
		return 0, fmt.Errorf("invalid copy pattern %q: %w", pattern.From, err)
	}

	for _, match := range matches {
		rel, err := filepath.Rel(filepath.FromSlash(base), match)
		if err != nil {
			return 0, err
		}
		if err := copyFile(match, filepath.Join(dest, rel)); err != nil {
			return 0, err
		}
	}
	return len(matches), nil
}

func copyTree(src, dest string) (int, error) {
	count := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		count++
		return copyFile(path, filepath.Join(dest, rel))
	})
	return count, err
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
