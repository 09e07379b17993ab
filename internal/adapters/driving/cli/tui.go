package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driving/tui"
)

var tuiCollection string

// startTUI runs the program. Replaced in tests.
var startTUI = func(app *tui.App) error {
	return app.Run()
}

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch an interactive browser for stored collections.

Pick a collection, type a query and open any of the ranked snippets.
Results come straight from the vector backend with no threshold.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Select / Retrieve / Open
  n        - New query
  Esc      - Back
  ?        - Help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiCollection, "collection", "c", "", "open this collection directly")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	b, err := getBackend()
	if err != nil {
		return err
	}
	collections, err := b.Collections(cmd.Context())
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Collections: collections,
		Settings:    b.Settings(),
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context()).WithCollection(tuiCollection)

	if err := startTUI(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
