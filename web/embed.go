package web

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed static templates
var assets embed.FS

// FS returns the asset tree to serve: the embedded one, or dir on disk when set.
// The tree holds static/ and templates/.
func FS(dir string) fs.FS {
	if dir == "" {
		return assets
	}
	return os.DirFS(dir)
}
