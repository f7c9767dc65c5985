package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"goa.design/clue/log"

	"goa.design/agentloop/loop"
	"goa.design/agentloop/model"
	"goa.design/agentloop/openai"
	"goa.design/agentloop/telemetry"
	"goa.design/agentloop/tools"
)

func main() {
	var (
		modelF = flag.String("model", "gpt-4.1-mini", "Model identifier")
		maxF   = flag.Int("max-iterations", loop.DefaultMaxIterations, "Maximum model round-trips")
		dbgF   = flag.Bool("debug", false, "Enable debug logs")
	)
	flag.Parse()

	// Setup logger. Replace logger with your own log package of choice.
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if *dbgF {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}

	prompt := strings.Join(flag.Args(), " ")
	if prompt == "" {
		prompt = "What time is it right now?"
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal(ctx, fmt.Errorf("OPENAI_API_KEY is not set"))
	}
	transport, err := openai.NewFromAPIKey(apiKey)
	if err != nil {
		log.Fatalf(ctx, err, "build transport")
	}

	reg := tools.NewRegistry()
	if err := reg.Register(tools.Definition{
		Name:        "current_time",
		Description: "Returns the current time in RFC 3339 format.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		Handler: func(context.Context, map[string]any) (any, error) {
			return map[string]any{"now": time.Now().Format(time.RFC3339)}, nil
		},
	}); err != nil {
		log.Fatalf(ctx, err, "register tool")
	}

	// Print threshold flushes as they arrive; the terminal payload repeats the
	// complete text so only intermediate chunks are echoed here.
	sink := loop.SinkFunc(func(_ context.Context, out loop.Output) error {
		switch {
		case out.ToolResult != nil:
			fmt.Printf("\n[tool %s] %v\n", out.ToolResult.Name, out.ToolResult.Result)
		case out.Text != "":
			fmt.Printf("\n\n%s\n", out.Text)
		case out.Chunk != "":
			fmt.Print(".")
		}
		return nil
	})

	l, err := loop.New(transport, sink,
		loop.WithRegistry(reg),
		loop.WithLogger(telemetry.NewClueLogger()),
		loop.WithTraceSink(telemetry.NewOTelToolTraceSink()),
		loop.WithMaxIterations(*maxF),
	)
	if err != nil {
		log.Fatalf(ctx, err, "build loop")
	}

	out, err := l.Run(ctx, loop.RunInput{
		Model:        *modelF,
		Instructions: "You are a concise assistant. Use the available tools when they help.",
		Input:        []model.Item{model.NewUserMessage(prompt)},
	})
	if err != nil {
		log.Fatalf(ctx, err, "run conversation")
	}
	log.Print(ctx,
		log.KV{K: "status", V: string(out.Status)},
		log.KV{K: "finish_reason", V: out.FinishReason},
		log.KV{K: "total_tokens", V: out.Usage.TotalTokens},
	)
}
