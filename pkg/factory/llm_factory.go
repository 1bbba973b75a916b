package factory

import (
	"fmt"

	"github.com/ilkoid/shopchat/pkg/config"
	"github.com/ilkoid/shopchat/pkg/llm"
	"github.com/ilkoid/shopchat/pkg/llm/openai"
	"github.com/ilkoid/shopchat/pkg/llm/workersai"
)

// NewStreamingProvider создает бэкенд чата на основе конфигурации модели
func NewStreamingProvider(modelDef config.ModelDef) (llm.StreamingProvider, error) {
	switch modelDef.Provider {
	case "workers-ai", "workersai", "":
		return workersai.NewClient(modelDef), nil

	case "zai", "openai", "deepseek":
		return openai.NewClient(modelDef), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s", modelDef.Provider)
	}
}
