package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

var ErrEntryPointNotFound = errors.New("entrypoint not found in metadata")

// BuildMetadata is the part of the esbuild metafile the pipeline reads.
// Output paths are relative to the build's working directory.
type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
	Bytes      int64        `json:"bytes"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// OutputFile is a built file located relative to the output directory.
type OutputFile struct {
	Path       string
	URLPath    string
	Bytes      int64
	EntryPoint string
}

func ParseMetadata(metafile string) (*BuildMetadata, error) {
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(metafile), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	return &metadata, nil
}

// Scripts returns the output for entryPointPath followed by every chunk it
// statically imports, depth first, each listed once.
func (m *BuildMetadata) Scripts(entryPointPath string) ([]string, string, error) {
	scripts := []string{}
	visited := make(map[string]bool)

	for _, outputPath := range m.sortedOutputs() {
		info := m.Outputs[outputPath]
		if info.EntryPoint != entryPointPath || !strings.HasSuffix(outputPath, ".js") {
			continue
		}
		scripts = append(scripts, outputPath)
		visited[outputPath] = true
		m.addDependencies(info, &scripts, visited)
		return scripts, outputPath, nil
	}

	return nil, "", fmt.Errorf("%w: %s", ErrEntryPointNotFound, entryPointPath)
}

func (m *BuildMetadata) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.Kind == "dynamic-import" || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true

		chunkInfo, exists := m.Outputs[imp.Path]
		if !exists {
			continue
		}
		*scripts = append(*scripts, imp.Path)
		m.addDependencies(chunkInfo, scripts, visited)
	}
}

// Files lists every output except source maps, resolved against workingDir
// and expressed relative to outDir.
func (m *BuildMetadata) Files(workingDir, outDir string) []OutputFile {
	files := make([]OutputFile, 0, len(m.Outputs))
	for _, outputPath := range m.sortedOutputs() {
		if strings.HasSuffix(outputPath, ".map") {
			continue
		}
		info := m.Outputs[outputPath]
		abs := outputPath
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(workingDir, filepath.FromSlash(outputPath))
		}
		rel, err := filepath.Rel(outDir, abs)
		if err != nil {
			rel = filepath.Base(abs)
		}
		files = append(files, OutputFile{
			Path:       abs,
			URLPath:    filepath.ToSlash(rel),
			Bytes:      info.Bytes,
			EntryPoint: info.EntryPoint,
		})
	}
	return files
}

func (m *BuildMetadata) sortedOutputs() []string {
	paths := make([]string, 0, len(m.Outputs))
	for p := range m.Outputs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// CSSBundle returns the stylesheet emitted for entryPointPath, or "" when the
// entry point pulled in no CSS.
func (m *BuildMetadata) CSSBundle(entryPointPath string) string {
	for _, outputPath := range m.sortedOutputs() {
		info := m.Outputs[outputPath]
		if info.EntryPoint != entryPointPath {
			continue
		}
		if info.CSSBundle != "" {
			return info.CSSBundle
		}
		if strings.HasSuffix(outputPath, ".css") {
			return outputPath
		}
	}
	return ""
}
