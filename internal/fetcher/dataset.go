package fetcher

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Dataset file extensions the resolver can load.
var layerExts = []string{".shp", ".geojson", ".json"}

// FetchDataset downloads rawURL into destDir. A .zip download is unpacked
// and removed. It returns the path of the loadable layer file.
func FetchDataset(ctx context.Context, f Fetcher, rawURL, destDir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: parse url")
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", eris.Errorf("fetcher: no file name in %s", rawURL)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "fetcher: create dest dir")
	}

	target := filepath.Join(destDir, name)
	n, err := f.DownloadToFile(ctx, rawURL, target)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: download %s", rawURL)
	}
	zap.L().Info("fetcher: downloaded dataset",
		zap.String("url", rawURL),
		zap.String("path", target),
		zap.Int64("bytes", n),
	)

	if !strings.EqualFold(filepath.Ext(target), ".zip") {
		return target, nil
	}

	extractDir := strings.TrimSuffix(target, filepath.Ext(target))
	files, err := ExtractZIP(target, extractDir)
	if err != nil {
		return "", err
	}
	_ = os.Remove(target)

	for _, ext := range layerExts {
		if p, ok := FindByExt(files, ext); ok {
			return p, nil
		}
	}
	return "", eris.Errorf("fetcher: no layer file in %s", name)
}
