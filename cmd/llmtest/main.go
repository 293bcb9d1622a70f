package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/wolfman30/wellness-companion/internal/app/bootstrap"
	"github.com/wolfman30/wellness-companion/internal/companion"
	appconfig "github.com/wolfman30/wellness-companion/internal/config"
	"github.com/wolfman30/wellness-companion/internal/risk"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

// llmtest sends one probe turn through the provider gateway and prints which
// model answered, whether the default-model retry fired, and what the
// fallback generator would have said instead.
func main() {
	message := flag.String("message", "I've been feeling stressed and I can't sleep", "user message to send")
	model := flag.String("model", "", "model preference (defaults to LLM_MODEL)")
	timeout := flag.Duration("timeout", 60*time.Second, "overall timeout")
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.New("debug")
	if *model == "" {
		*model = cfg.LLMModel
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	assessment := risk.Classify(*message)
	contact := bootstrap.DefaultEmergencyContact(cfg)
	messages := companion.AssemblePrompt(assessment, cfg.CrisisRegion, "", companion.CrisisResourceText(cfg.CrisisRegion), nil, *message)

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("LLM Provider Test")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("base url:      %s\n", cfg.LLMBaseURL)
	fmt.Printf("model:         %s\n", companion.NormalizeModel(*model, cfg.LLMDefaultModel))
	fmt.Printf("default model: %s\n", cfg.LLMDefaultModel)
	fmt.Printf("assessment:    mood=%d level=%s score=%d type=%s heavy=%t\n",
		assessment.MoodLevel, assessment.Level, assessment.Score, assessment.Type, assessment.IsHeavy)

	fmt.Println("\n[fallback]")
	fmt.Println(companion.Fallback(*message, assessment.MoodLevel, assessment.Level, cfg.CrisisRegion, &contact))

	gateway := bootstrap.BuildGateway(cfg, logger, nil)
	if gateway == nil {
		log.Println("LLM_API_KEY not set, skipping provider call")
		os.Exit(0)
	}

	fmt.Println("\n[provider]")
	start := time.Now()
	completion, err := gateway.Complete(ctx, messages, *model)
	elapsed := time.Since(start)
	if err != nil {
		var upstream *companion.UpstreamServiceError
		if errors.As(err, &upstream) {
			fmt.Printf("status=%d retried=%t model=%s\n", upstream.StatusCode, upstream.Retried, upstream.Model)
		}
		fmt.Printf("error after %s: %v\n", elapsed, err)
		os.Exit(1)
	}

	guard := companion.GuardReply(completion.Content)
	fmt.Printf("model=%s retried=%t elapsed=%s blocked=%t\n", completion.Model, completion.Retried, elapsed, guard.Blocked)
	if guard.Blocked {
		fmt.Printf("blocked reasons: %s\n", strings.Join(guard.Reasons, ", "))
	}
	fmt.Println(completion.Content)
}
