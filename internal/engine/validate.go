package engine

import "os"

// MaxFileBytes is the input size ceiling for predictions.
const MaxFileBytes = 50 * 1024 * 1024

var allowedExtensions = map[string]bool{
	"txt": true, "csv": true, "json": true, "pdf": true,
	"png": true, "jpg": true, "jpeg": true, "wav": true,
}

// AllowedExtensions lists accepted input extensions in a stable order.
func AllowedExtensions() []string {
	return []string{"txt", "csv", "json", "pdf", "png", "jpg", "jpeg", "wav"}
}

// validateInput enforces the extension allow-list and size ceiling and
// returns the file size on success.
func validateInput(path, ext string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !allowedExtensions[ext] {
		return 0, UnsupportedTypeError{Ext: ext}
	}
	if info.Size() > MaxFileBytes {
		return 0, FileTooLargeError{Size: info.Size(), Limit: MaxFileBytes}
	}
	return info.Size(), nil
}
