package storage

import "strings"

// UploadPrefix is the canonical key prefix for stored listing images.
const UploadPrefix = "uploads/"

// NormalizeImagePath returns the canonical stored form of an image path:
// exactly one "uploads/" prefix and no leading slash. Inputs that already
// carry the prefix are returned unchanged; the prefix is never doubled.
func NormalizeImagePath(imagePath string) string {
	clean := strings.TrimLeft(imagePath, "/")
	clean = strings.TrimPrefix(clean, UploadPrefix)
	return UploadPrefix + clean
}
