// Базовые типы - универсальный язык общения с моделями.
package llm

// Роли сообщений.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message - одно сообщение чата.
//
// JSON теги совпадают с форматом истории в запросе /api/chat
// и с телом запроса Workers AI.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ValidRole проверяет, что роль входит в system/user/assistant.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}
