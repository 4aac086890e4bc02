package fluentlogger

import (
	"fmt"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// Config хранит конфигурацию для подключения к Fluent Bit
type Config struct {
	Host      string // "fluent-bit" в Docker
	Port      int    // 24224
	TagPrefix string // общий префикс тегов сервиса
}

func (c Config) fluentConfig() (fluent.Config, error) {
	if c.TagPrefix == "" {
		return fluent.Config{}, fmt.Errorf("fluentd tag prefix is required")
	}
	if c.Host == "" {
		return fluent.Config{}, fmt.Errorf("fluentd host is required")
	}
	return fluent.Config{
		FluentHost: c.Host,
		FluentPort: c.Port,
		TagPrefix:  c.TagPrefix,
		Timeout:    3 * time.Second,
		// отправка в фоне, запросы не ждут сборщик логов
		Async: true,
	}, nil
}

// NewClient создает клиента Fluent Bit. Пинга нет: ошибки соединения проявятся при первой отправке.
func NewClient(cfg Config) (*fluent.Fluent, error) {
	fc, err := cfg.fluentConfig()
	if err != nil {
		return nil, err
	}

	logger, err := fluent.New(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to create fluentd logger: %w", err)
	}
	return logger, nil
}
