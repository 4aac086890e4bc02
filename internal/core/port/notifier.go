package port

import (
	"context"
)

// NotificationSinkPort - контракт для показа ошибок пользователю (тосты).
// Возвращаемого значения нет: отправка уведомления не должна влиять на вызывающего.
type NotificationSinkPort interface {
	NotifyError(ctx context.Context, sessionID, message string)
}
