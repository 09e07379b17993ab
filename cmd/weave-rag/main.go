// Command weave-rag chunks, embeds and retrieves local documents.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/cli"
	"github.com/weave-lab/weave-chatbot-reference/internal/app"
)

func main() {
	// A missing .env is normal; keys may already be in the environment.
	_ = godotenv.Load()

	err := cli.Execute(func(configDir string) (cli.Backend, error) {
		return app.New(configDir)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
