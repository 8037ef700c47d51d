package reader

import (
	"os"
	"path/filepath"
	"time"
)

// Layout holds the local directory tree a Connection writes into. The
// paths are computed at construction; directories are only created when
// the download runs.
type Layout struct {
	parent     string
	parquetDir string
	jsonDir    string
}

func newLayout(destinationDir string) Layout {
	if destinationDir == "" {
		stamp := time.Now().Format("01-02-2006_15-04-05")
		destinationDir = filepath.Join(os.TempDir(), stamp)
	}

	return Layout{
		parent:     destinationDir,
		parquetDir: filepath.Join(destinationDir, "parquet"),
		jsonDir:    filepath.Join(destinationDir, "json"),
	}
}
