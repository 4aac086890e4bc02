package port

import (
	"context"
	"listing-service/internal/core/domain"
)

// ObjectStoragePort - объектное хранилище для фотографий комнат
type ObjectStoragePort interface {
	// Upload кладёт объект под именем objectName и возвращает путь внутри бакета
	Upload(ctx context.Context, accessToken, objectName string, object domain.UploadObject) (string, error)
	// PublicURL строит публичную ссылку на объект
	PublicURL(path string) string
}
