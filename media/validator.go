package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxFileSize is the upload ceiling in bytes (100 MiB).
const MaxFileSize int64 = 100 * 1024 * 1024

// MultipartOverhead is the request body allowance on top of the file size
// for multipart framing and any other form fields.
const MultipartOverhead int64 = 1 << 20

// DefaultMIMEType is returned for extensions missing from the lookup table.
const DefaultMIMEType = "application/octet-stream"

// AllowedExtensions is ordered so error messages are stable.
var AllowedExtensions = []string{"mp3", "wav", "mp4", "mov", "avi", "webm"}

var mimeTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"webm": "video/webm",
}

type Kind string

const (
	KindNoFile          Kind = "no_file"
	KindUnsupportedType Kind = "unsupported_type"
	KindTooLarge        Kind = "too_large"
)

// ValidationError is a client input error; the HTTP layer maps it to 400.
type ValidationError struct {
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MissingFile is reported when the multipart field is absent altogether.
func MissingFile() *ValidationError {
	return &ValidationError{Kind: KindNoFile, Message: "No file provided"}
}

// Upload is one inbound media file. It lives only for the request that created it.
type Upload struct {
	Filename  string
	Content   []byte
	Size      int64
	Extension string
	MIMEType  string
}

// Policy holds the upload limits. Production code uses DefaultPolicy.
type Policy struct {
	Allowed []string
	MaxSize int64
}

func DefaultPolicy() Policy {
	return Policy{Allowed: AllowedExtensions, MaxSize: MaxFileSize}
}

// BodyLimit caps the whole request body of an upload.
func (p Policy) BodyLimit() int64 {
	return p.MaxSize + MultipartOverhead
}

func (p Policy) TooLarge() *ValidationError {
	return &ValidationError{
		Kind:    KindTooLarge,
		Message: fmt.Sprintf("File too large. Maximum size: %dMB", p.MaxSize/(1024*1024)),
	}
}

// Check validates filename and size. It returns nil or a *ValidationError.
func (p Policy) Check(filename string, size int64) error {
	if filename == "" {
		return &ValidationError{Kind: KindNoFile, Message: "No file selected"}
	}
	if !p.allows(Extension(filename)) {
		return &ValidationError{
			Kind:    KindUnsupportedType,
			Message: fmt.Sprintf("File type not supported. Allowed: %s", strings.Join(p.Allowed, ", ")),
		}
	}
	if size > p.MaxSize {
		return p.TooLarge()
	}
	return nil
}

func (p Policy) allows(ext string) bool {
	if ext == "" {
		return false
	}
	for _, a := range p.Allowed {
		if a == ext {
			return true
		}
	}
	return false
}

// NewUpload builds an Upload from already validated input.
func NewUpload(filename string, content []byte) Upload {
	ext := Extension(filename)
	return Upload{
		Filename:  filename,
		Content:   content,
		Size:      int64(len(content)),
		Extension: ext,
		MIMEType:  MIMEType(ext),
	}
}

// Extension returns the lowercased extension without the dot, or "" if there is none.
func Extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

func MIMEType(ext string) string {
	if mt, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return DefaultMIMEType
}

// SecureFilename strips any directory part and replaces characters outside
// [A-Za-z0-9._-] with underscores. Leading dots are removed.
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), "._")
	if out == "" {
		return "upload"
	}
	return out
}
