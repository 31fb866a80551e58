package plugins

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/minio/crc64nvme"

	"github.com/wolfeidau/h5runner/internal/assets"
)

const DefaultManifestFilename = "asset-manifest.json"

// Manifest writes a JSON index of the build's outputs with their sizes and
// CRC-64/NVME checksums.
type Manifest struct {
	Filename string `json:"filename" yaml:"filename"`
}

// AssetManifest is the document Manifest writes.
type AssetManifest struct {
	BuildID     string                   `json:"buildId"`
	Entrypoints []string                 `json:"entrypoints"`
	Files       map[string]ManifestEntry `json:"files"`
}

type ManifestEntry struct {
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	CRC64  string `json:"crc64nvme"`
	Source string `json:"source,omitempty"`
}

func (m *Manifest) Apply(opts *api.BuildOptions) error {
	filename := m.Filename
	if filename == "" {
		filename = DefaultManifestFilename
	}

	onEnd(opts, "manifest", func(meta *assets.BuildMetadata, dirs buildDirs) error {
		manifest, err := BuildManifest(meta, dirs.WorkingDir, dirs.OutDir, dirs.PublicPath)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dirs.OutDir, filename), data, 0o644) //nolint:gosec
	})
	return nil
}

// BuildManifest checksums every output listed in meta.
func BuildManifest(meta *assets.BuildMetadata, workingDir, outDir, publicPath string) (*AssetManifest, error) {
	dirs := buildDirs{WorkingDir: workingDir, OutDir: outDir, PublicPath: publicPath}
	manifest := &AssetManifest{
		BuildID:     uuid.New().String(),
		Entrypoints: []string{},
		Files:       map[string]ManifestEntry{},
	}

	for _, file := range meta.Files(workingDir, outDir) {
		sum, size, err := checksum(file.Path)
		if err != nil {
			return nil, err
		}

		url := dirs.url(file.URLPath)
		manifest.Files[file.URLPath] = ManifestEntry{
			URL:    url,
			Size:   size,
			CRC64:  sum,
			Source: file.EntryPoint,
		}
		if file.EntryPoint != "" && strings.HasSuffix(file.URLPath, ".js") {
			manifest.Entrypoints = append(manifest.Entrypoints, url)
		}
	}

	return manifest, nil
}

func checksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open output: %w", err)
	}
	defer f.Close()

	h := crc64nvme.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to checksum output: %w", err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), n, nil
}
