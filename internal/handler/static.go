package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// Fallback handles every unmatched route. Unknown /api paths get a JSON 404;
// anything else is served from staticDir, with index.html for client routes.
func Fallback(staticDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		urlPath := c.Request.URL.Path
		if urlPath == "/api" || strings.HasPrefix(urlPath, "/api/") {
			NotFound(c)
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}

		if urlPath == "/" {
			urlPath = "/index.html"
		}
		filePath := filepath.Join(staticDir, filepath.Clean("/"+urlPath))

		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			c.File(filepath.Join(staticDir, "index.html"))
			return
		}
		c.File(filePath)
	}
}
