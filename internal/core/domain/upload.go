package domain

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Validate проверяет, что загружаемый файл - непустое изображение не больше maxBytes
func (o UploadObject) Validate(maxBytes int64) error {
	if len(o.Data) == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidImage)
	}
	if maxBytes > 0 && int64(len(o.Data)) > maxBytes {
		return fmt.Errorf("%w: file is larger than %d bytes", ErrInvalidImage, maxBytes)
	}
	if !strings.HasPrefix(o.ContentType, "image/") {
		return fmt.Errorf("%w: unsupported content type %q", ErrInvalidImage, o.ContentType)
	}
	return nil
}

// ObjectName строит имя объекта в хранилище: <unix-ms><имя файла>
func ObjectName(at time.Time, fileName string) string {
	return fmt.Sprintf("%d%s", at.UnixMilli(), sanitizeFileName(fileName))
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		return "image"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
