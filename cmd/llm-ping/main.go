// llm-ping - утилита для проверки бэкенда модели.
//
// Отправляет один вопрос с системным промптом по встроенному каталогу
// и печатает кадры SSE в том виде, в котором их получит клиент.
//
// Использование:
//
//	go run ./cmd/llm-ping -config config.yaml -model llama "halo, ada masker?"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ilkoid/shopchat/pkg/catalog"
	"github.com/ilkoid/shopchat/pkg/config"
	"github.com/ilkoid/shopchat/pkg/directive"
	"github.com/ilkoid/shopchat/pkg/factory"
	"github.com/ilkoid/shopchat/pkg/llm"
	"github.com/ilkoid/shopchat/pkg/prompt"
	"github.com/ilkoid/shopchat/pkg/sse"
)

func main() {
	configFlag := flag.String("config", "", "path to config.yaml")
	modelFlag := flag.String("model", "", "model alias (default: models.default_chat)")
	timeout := flag.Duration("timeout", 60*time.Second, "whole request timeout")
	flag.Parse()

	question := strings.Join(flag.Args(), " ")
	if question == "" {
		question = "Halo! Produk apa yang tersedia?"
	}

	cfg, _, err := config.Initialize(&config.DefaultPathFinder{ConfigFlag: *configFlag})
	if err != nil {
		fail(err)
	}

	modelDef, ok := cfg.GetChatModel(*modelFlag)
	if !ok {
		fail(fmt.Errorf("model %q not found in config", *modelFlag))
	}

	backend, err := factory.NewStreamingProvider(modelDef)
	if err != nil {
		fail(err)
	}

	fmt.Printf("🔍 Testing LLM Provider: %s (%s)\n\n", modelDef.Provider, modelDef.ModelName)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompt.BuildSystemPrompt(catalog.Fallback())},
		{Role: llm.RoleUser, Content: question},
	}

	start := time.Now()
	stream, err := backend.OpenStream(ctx, messages)
	if err != nil {
		fmt.Printf("❌ Status: UNAVAILABLE\n   Error: %v\n", err)
		os.Exit(1)
	}
	defer stream.Close()
	fmt.Printf("✅ Stream opened in %dms\n\n", time.Since(start).Milliseconds())

	var raw strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Printf("\n❌ Stream truncated: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(chunk))
		raw.Write(chunk)
	}

	text, err := sse.Collect(strings.NewReader(raw.String()), nil)
	fmt.Printf("\n--------------------------------------------------\n")
	fmt.Printf("Text: %s\n", text)
	if err != nil {
		fmt.Printf("⚠️  %v\n", err)
	}
	if d, _, ok := directive.Extract(text); ok {
		fmt.Printf("🛒 Directive: add %d × %s\n", d.Quantity, d.ProductID)
	}
	fmt.Printf("Latency: %dms\n", time.Since(start).Milliseconds())
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
