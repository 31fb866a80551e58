package plugins

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_Apply(t *testing.T) {
	outDir, opts, metafile := sampleBuild(t)

	require.NoError(t, (&Manifest{}).Apply(opts))
	errs := runOnEnd(t, opts, &api.BuildResult{Metafile: metafile})
	require.NoError(t, errs[0])

	data, err := os.ReadFile(filepath.Join(outDir, DefaultManifestFilename))
	require.NoError(t, err)

	var manifest AssetManifest
	require.NoError(t, json.Unmarshal(data, &manifest))

	_, err = uuid.Parse(manifest.BuildID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/js/app.js"}, manifest.Entrypoints)
	assert.Len(t, manifest.Files, 3)
	assert.NotContains(t, manifest.Files, "js/app.js.map")

	chunk := manifest.Files["chunk/chunk-ABC.js"]
	assert.Equal(t, "/chunk/chunk-ABC.js", chunk.URL)
	assert.Equal(t, int64(len("export const shared=1;")), chunk.Size)
	assert.Len(t, chunk.CRC64, 16)
	assert.Equal(t, "src/app.ts", manifest.Files["js/app.js"].Source)
}

func TestBuildManifest_StableChecksums(t *testing.T) {
	_, opts, metafile := sampleBuild(t)

	meta := mustParse(t, metafile)
	first, err := BuildManifest(meta, opts.AbsWorkingDir, opts.Outdir, "")
	require.NoError(t, err)
	second, err := BuildManifest(meta, opts.AbsWorkingDir, opts.Outdir, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.BuildID, second.BuildID)
	assert.Equal(t, first.Files, second.Files)
	assert.Equal(t, "js/app.js", first.Files["js/app.js"].URL)
}

func TestBuildManifest_MissingOutput(t *testing.T) {
	meta := mustParse(t, `{"outputs": {"dist/gone.js": {"bytes": 1}}}`)
	_, err := BuildManifest(meta, t.TempDir(), "dist", "/")
	require.Error(t, err)
}
