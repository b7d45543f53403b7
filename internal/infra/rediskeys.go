package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "instavibe"
)

// Ключи состояния
const (
	// RedisKeySessionPrefix + session_id — запись состояния сессии оркестратора
	RedisKeySessionPrefix = RedisNamespace + ":orchestrate:session:"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanAgentRegister — канал анонсов новых адресов удаленных агентов.
	// HostAgent подписан и регистрирует карточки на лету.
	RedisChanAgentRegister = RedisNamespace + ":agents:register"
)

// SessionKey Генератор ключа записи сессии
func SessionKey(sessionID string) string {
	return fmt.Sprintf("%s%s", RedisKeySessionPrefix, sessionID)
}
