package scans

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes is the default upload ceiling (10 MiB).
const MaxImageBytes int64 = 10 << 20

// Image is an uploaded binary with its declared media type.
type Image struct {
	FileName    string
	ContentType string
	Data        []byte
}

// MediaType returns the declared type, or the sniffed one when the client
// sent nothing useful.
func (img Image) MediaType() string {
	ct := strings.ToLower(strings.TrimSpace(img.ContentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		return mimetype.Detect(img.Data).String()
	}
	return ct
}

// ValidateImage checks media type and size. maxBytes <= 0 means MaxImageBytes.
func ValidateImage(img Image, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxImageBytes
	}
	if !strings.HasPrefix(img.MediaType(), "image/") {
		return &ValidationError{Field: "file", Reason: "Please upload an image file"}
	}
	if len(img.Data) == 0 {
		return &ValidationError{Field: "file", Reason: "file is empty"}
	}
	if int64(len(img.Data)) > maxBytes {
		return TooLarge(maxBytes)
	}
	return nil
}

// TooLarge is the size rejection for a given ceiling.
func TooLarge(maxBytes int64) *ValidationError {
	return &ValidationError{
		Field:    "file",
		Reason:   fmt.Sprintf("File size must be less than %s", humanize.IBytes(uint64(maxBytes))),
		TooLarge: true,
	}
}

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey namespaces the stored binary by owner and upload time.
func ObjectKey(owner string, at time.Time, fileName string) string {
	name := unsafeNameRe.ReplaceAllString(path.Base(strings.ReplaceAll(fileName, "\\", "/")), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "scan"
	}
	return fmt.Sprintf("%s/%d-%s", owner, at.UnixMilli(), name)
}
