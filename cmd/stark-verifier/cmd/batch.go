package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// batchEntry is one line of a batch manifest. Relative paths are resolved
// against the manifest's directory.
type batchEntry struct {
	Variant string `json:"variant"`
	Proof   string `json:"proof"`
	VK      string `json:"vk"`
}

type batchResult struct {
	entry batchEntry
	valid bool
	err   error
}

var (
	flagManifest    string
	flagConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Verify every bundle listed in a JSON manifest",
	Long: `Verify every bundle listed in a JSON manifest of the form
[{"variant": "Pico", "proof": "a.proof", "vk": "a.vk"}, ...]`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&flagManifest, "manifest", "", "path to the batch manifest")
	batchCmd.Flags().IntVar(&flagConcurrency, "concurrency", runtime.NumCPU(), "number of bundles verified at once")
	_ = batchCmd.MarkFlagRequired("manifest")
}

func readManifest(path string) ([]batchEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read manifest: %w", err)
	}
	var entries []batchEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("could not parse manifest: %w", err)
	}

	dir := filepath.Dir(path)
	for i := range entries {
		if !filepath.IsAbs(entries[i].Proof) {
			entries[i].Proof = filepath.Join(dir, entries[i].Proof)
		}
		if !filepath.IsAbs(entries[i].VK) {
			entries[i].VK = filepath.Join(dir, entries[i].VK)
		}
	}
	return entries, nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	if flagConcurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", flagConcurrency)
	}
	_, log, v, err := setup()
	if err != nil {
		return err
	}

	entries, err := readManifest(flagManifest)
	if err != nil {
		return err
	}

	results := make([]batchResult, len(entries))
	bar := progressbar.Default(int64(len(entries)), "verifying")

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(flagConcurrency)
	for i, entry := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = verifyEntry(v.Verify, entry)
			return bar.Add(1)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	_ = bar.Finish()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tPROOF\tRESULT")
	var rejected, failed int
	for _, r := range results {
		status := "valid"
		switch {
		case r.err != nil:
			status = "error: " + r.err.Error()
			failed++
		case !r.valid:
			status = "invalid"
			rejected++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.entry.Variant, r.entry.Proof, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	log.Info().
		Int("total", len(results)).
		Int("rejected", rejected).
		Int("failed", failed).
		Msg("batch done")

	if rejected+failed > 0 {
		return fmt.Errorf("%d of %d bundles did not verify", rejected+failed, len(results))
	}
	return nil
}

func verifyEntry(verify func(string, []byte, []byte) (bool, error), entry batchEntry) batchResult {
	proofBytes, err := os.ReadFile(entry.Proof)
	if err != nil {
		return batchResult{entry: entry, err: err}
	}
	vkBytes, err := os.ReadFile(entry.VK)
	if err != nil {
		return batchResult{entry: entry, err: err}
	}
	valid, err := verify(entry.Variant, proofBytes, vkBytes)
	return batchResult{entry: entry, valid: valid, err: err}
}
