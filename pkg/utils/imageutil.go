package utils

import (
	"mime"
	"path"
	"strings"
)

const upscaledPrefix = "upscaled_"

// IsImageContentType checks that a declared content type is image/*.
// Parameters are ignored.
func IsImageContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/") && len(mediaType) > len("image/")
}

// UpscaledFilename builds the download name for an upscaled image. The
// original name is client supplied, so only its base name is kept and it
// is never used as a path.
func UpscaledFilename(originalFilename, format string) string {
	name := sanitizeFilename(originalFilename)
	if name == "" {
		if format == "" {
			format = "png"
		}
		name = "image." + format
	}
	return upscaledPrefix + name
}

// ContentDisposition formats an attachment header for filename, falling
// back to RFC 2231 encoding for non-ASCII names.
func ContentDisposition(filename string) string {
	if header := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); header != "" {
		return header
	}
	return "attachment"
}

func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = path.Base(filename)

	filename = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' {
			return -1
		}
		return r
	}, filename)

	filename = strings.TrimSpace(filename)
	if filename == "." || filename == "/" || filename == ".." {
		return ""
	}
	return filename
}
