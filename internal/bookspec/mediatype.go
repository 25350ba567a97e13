package bookspec

import (
	"path/filepath"
	"strings"
)

// Core media types of EPUB 3 plus the common audio and font extensions.
var mediaTypes = map[string]string{
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".png":   "image/png",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".svg":   "image/svg+xml",
	".mp3":   "audio/mpeg",
	".m4a":   "audio/mp4",
	".mp4":   "audio/mp4",
	".ogg":   "audio/ogg",
	".opus":  "audio/ogg; codecs=opus",
	".css":   "text/css",
	".xhtml": "application/xhtml+xml",
	".html":  "application/xhtml+xml",
	".js":    "application/javascript",
	".smil":  "application/smil+xml",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

func mediaTypeOf(p string) string {
	if mt, ok := mediaTypes[strings.ToLower(filepath.Ext(p))]; ok {
		return mt
	}
	return "application/octet-stream"
}
