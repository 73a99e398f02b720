package app

import (
	"log/slog"
	"mime"
	"sync"
)

var registerMimeOnce sync.Once

// registerMimeTypes fills gaps in minimal container images that ship without
// /etc/mime.types, so embedded assets are served with the right type.
func registerMimeTypes(logger *slog.Logger) {
	registerMimeOnce.Do(func() {
		for ext, typ := range map[string]string{
			".css":  "text/css; charset=utf-8",
			".js":   "text/javascript; charset=utf-8",
			".svg":  "image/svg+xml",
			".webp": "image/webp",
		} {
			if mime.TypeByExtension(ext) != "" {
				continue
			}
			if err := mime.AddExtensionType(ext, typ); err != nil {
				logger.Warn("register mime type", slog.String("ext", ext), slog.Any("error", err))
			}
		}
	})
}
