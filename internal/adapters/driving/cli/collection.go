package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/weave-lab/weave-chatbot-reference/internal/core/domain"
	"github.com/weave-lab/weave-chatbot-reference/internal/core/ports/driving"
)

var (
	collectionListJSON   bool
	collectionWatchQuiet time.Duration
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage stored collections",
	Long: `Create, watch, list and drop collections in the configured vector backend.

Collections persist in a single file under the config directory unless
vector_store.path is set.`,
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create [name] [paths...]",
	Short: "Create or replace a collection from documents",
	Long: `Chunks and embeds every document under the given paths and stores the
result as the named collection. An existing collection of the same name is
replaced only after every chunk has been embedded.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCollectionCreate,
}

var collectionWatchCmd = &cobra.Command{
	Use:   "watch [name] [paths...]",
	Short: "Keep a collection in sync with documents on disk",
	Long: `Creates the collection, then watches the given paths and rebuilds it
whenever supported documents are added, changed or removed. A rebuild starts
once changes have stopped for the --debounce period. Hidden files and
directories are ignored. Stop with Ctrl+C.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCollectionWatch,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	RunE:  runCollectionList,
}

var collectionDropCmd = &cobra.Command{
	Use:   "drop [name]",
	Short: "Drop a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionDrop,
}

func init() {
	collectionListCmd.Flags().BoolVar(&collectionListJSON, "json", false, "output collections as JSON")
	collectionWatchCmd.Flags().DurationVar(&collectionWatchQuiet, "debounce", 2*time.Second,
		"quiet period before rebuilding after a change")
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCmd.AddCommand(collectionWatchCmd)
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionDropCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}
	svc, err := b.Collections(cmd.Context())
	if err != nil {
		return err
	}
	return buildCollection(cmd.Context(), cmd, b, svc, args[0], args[1:])
}

// buildCollection expands paths and replaces the named collection with their contents.
func buildCollection(
	ctx context.Context, cmd *cobra.Command, b Backend, svc driving.CollectionService, name string, paths []string,
) error {
	files, err := b.ExpandPaths(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported documents found in %v", paths)
	}

	if err := svc.CreateCollection(ctx, files, name); err != nil {
		return fmt.Errorf("create collection failed: %w", err)
	}

	infos, err := svc.ListCollections(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if info.Name == name {
			cmd.Printf("Collection %q created with %d records from %d documents.\n", name, info.Count, len(files))
			return nil
		}
	}
	cmd.Printf("Collection %q created from %d documents.\n", name, len(files))
	return nil
}

func runCollectionWatch(cmd *cobra.Command, args []string) error {
	name, paths := args[0], args[1:]

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := getBackend()
	if err != nil {
		return err
	}
	svc, err := b.Collections(ctx)
	if err != nil {
		return err
	}
	if err := buildCollection(ctx, cmd, b, svc, name, paths); err != nil {
		return err
	}

	batches, err := b.WatchDocuments(ctx, paths, collectionWatchQuiet)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", strings.Join(paths, ", "))

	for batch := range batches {
		cmd.Printf("%s, rebuilding %q...\n", describeChanges(batch), name)
		// A failed rebuild leaves the previous collection in place.
		if err := buildCollection(ctx, cmd, b, svc, name, paths); err != nil {
			cmd.PrintErrf("Rebuild failed: %v\n", err)
		}
	}
	return nil
}

// describeChanges summarises a batch, e.g. "2 changes (1 created, 1 deleted)".
func describeChanges(batch []domain.FileChange) string {
	counts := make(map[domain.ChangeType]int)
	for _, c := range batch {
		counts[c.Type]++
	}

	var parts []string
	for _, t := range []domain.ChangeType{domain.ChangeCreated, domain.ChangeUpdated, domain.ChangeDeleted} {
		if n := counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, t))
		}
	}

	noun := "changes"
	if len(batch) == 1 {
		noun = "change"
	}
	return fmt.Sprintf("%d %s (%s)", len(batch), noun, strings.Join(parts, ", "))
}

func runCollectionList(cmd *cobra.Command, _ []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}
	svc, err := b.Collections(cmd.Context())
	if err != nil {
		return err
	}

	infos, err := svc.ListCollections(cmd.Context())
	if err != nil {
		return fmt.Errorf("list collections failed: %w", err)
	}

	if collectionListJSON {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal collections: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(infos) == 0 {
		cmd.Println("No collections.")
		return nil
	}
	for _, info := range infos {
		cmd.Printf("  %-30s %d records\n", info.Name, info.Count)
	}
	return nil
}

func runCollectionDrop(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}
	svc, err := b.Collections(cmd.Context())
	if err != nil {
		return err
	}

	if err := svc.DropCollection(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("drop collection failed: %w", err)
	}
	cmd.Printf("Collection %q dropped.\n", args[0])
	return nil
}
