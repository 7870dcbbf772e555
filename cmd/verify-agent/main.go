package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"dukaan-agent/internal/ai"
)

func main() {
	_ = godotenv.Load()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	classifier := ai.NewClassifier(apiKey, "")
	ctx := context.Background()

	transcript := "Rahul ko ek kilo chini aur do Maggi packet ka bill banao, aur Bharat ka balance batao"
	contextPrompt := "No prior conversation."

	fmt.Printf("CLASSIFYING: %s\n", transcript)
	intents, err := classifier.Classify(ctx, transcript, contextPrompt)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	for i, in := range intents {
		fmt.Printf("\n--- TASK %d ---\n", i+1)
		fmt.Printf("Intent: %s (confidence %.2f)\n", in.Name, in.Confidence)
		for k, v := range in.Entities {
			fmt.Printf("  entity %s = %s\n", k, v)
		}
		for _, item := range in.Items {
			fmt.Printf("  item: %s x%s @ %s\n", item.Product, item.Quantity, item.UnitPrice)
		}
	}
}
