package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// SPA serves the built client from dir. Unknown paths outside /api get index.html
// so that client-side routes survive a reload.
func SPA(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if strings.HasPrefix(p, "/api/") || p == "/api" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+p)))
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
			c.File(name)
			return
		}
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			c.String(http.StatusNotFound, "client not built")
			return
		}
		c.File(index)
	}
}
