package assets

type Config struct {
	// Path to write the esbuild metafile to, relative to the output
	// directory. Empty skips writing it.
	MetafilePath string
}

