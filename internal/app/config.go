package app

// Config описывает минимальные настройки запуска приложения.
type Config struct {
	// HTTPAddr — адрес основного API-сервера.
	HTTPAddr string
	// MetricsAddr — адрес сервера метрик и health-проб.
	MetricsAddr string
	// PostgresDSN включает постоянное хранилище; пустое значение означает
	// in-memory режим для разработки и тестов.
	PostgresDSN string
	// KafkaBrokers — список брокеров через запятую; пустое значение
	// отключает публикацию событий.
	KafkaBrokers string
}

// DefaultConfig возвращает базовые адреса для API и метрик.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
	}
}
