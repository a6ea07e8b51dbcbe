package medias

import "strings"

var mimeTypes = map[string]string{
	// See https://developer.mozilla.org/en-US/docs/Web/HTTP/Basics_of_HTTP/MIME_types/Common_types
	".avif": "image/avif", // AVIF image
	".bmp":  "image/bmp",  // Windows OS/2 Bitmap Graphics
	".gif":  "image/gif",  // Graphics Interchange Format (GIF)
	".jpeg": "image/jpeg", // JPEG images
	".jpg":  "image/jpeg", // JPEG images
	".md":   "text/markdown",
	".mmd":  "text/vnd.mermaid", // Mermaid source (unregistered)
	".png":  "image/png",        // Portable Network Graphics
	".svg":  "image/svg+xml",    // Scalable Vector Graphics (SVG)
	".tif":  "image/tiff",       // Tagged Image File Format (TIFF)
	".tiff": "image/tiff",       // Tagged Image File Format (TIFF)
	".webp": "image/webp",       // WEBP image
}

// MimeType returns the mime type for common image file extensions.
func MimeType(extension string) string {
	mime, ok := mimeTypes[strings.ToLower(extension)]
	if !ok {
		// RFC 2046 declares:
		// The "octet-stream" subtype is used to indicate that a body contains arbitrary binary data.
		return "application/octet-stream"
	}
	return mime
}
