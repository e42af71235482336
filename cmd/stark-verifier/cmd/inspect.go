package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/proof"
	starkverifier "github.com/vybium/vybium-stark-verifier/pkg/stark-verifier"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Decode a proof bundle and print its segments without verifying",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&flagVariant, "variant", "", "variant tag (BabyBear, KoalaBear, Pico, PicoPrism)")
	inspectCmd.Flags().StringVar(&flagProof, "proof", "", "path to the serialized proof bundle")
	inspectCmd.Flags().StringVar(&flagVK, "vk", "", "path to the serialized verifying key")
	_ = inspectCmd.MarkFlagRequired("variant")
	_ = inspectCmd.MarkFlagRequired("proof")
	_ = inspectCmd.MarkFlagRequired("vk")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	_, _, v, err := setup()
	if err != nil {
		return err
	}

	proofBytes, err := os.ReadFile(flagProof)
	if err != nil {
		return fmt.Errorf("could not read proof: %w", err)
	}
	vkBytes, err := os.ReadFile(flagVK)
	if err != nil {
		return fmt.Errorf("could not read verifying key: %w", err)
	}

	d, err := v.Decode(flagVariant, proofBytes, vkBytes)
	if err != nil {
		return err
	}
	printDecoded(cmd.OutOrStdout(), d)
	return nil
}

func printDecoded(w io.Writer, d *starkverifier.Decoded) {
	fmt.Fprintf(w, "variant:       %s (%s)\n", d.Variant, d.Variant.Field().Name())
	fmt.Fprintf(w, "program key:   %s\n", d.VerifyingKey)
	fmt.Fprintf(w, "segments:      %d\n", d.Bundle.Len())
	if stream, ok := d.Bundle.PublicValuesStream(); ok {
		fmt.Fprintf(w, "public stream: %d bytes\n", len(stream))
	} else {
		fmt.Fprintln(w, "public stream: none")
	}

	for i := 0; i < d.Bundle.Len(); i++ {
		seg := d.Bundle.Segment(i)
		fmt.Fprintf(w, "\nsegment %d\n", i)
		fmt.Fprintf(w, "  chips:  %s\n", strings.Join(seg.ChipNames(), ", "))
		fmt.Fprintf(w, "  main:   %s\n", seg.Commitments.Main)
		pv, err := proof.ParsePublicValues(seg.PublicValues)
		if err != nil {
			fmt.Fprintf(w, "  public values: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "  pc:     %#x -> %#x\n", pv.StartPc, pv.NextPc)
		fmt.Fprintf(w, "  chunk:  %d -> %d\n", pv.StartChunk, pv.NextChunk)
		fmt.Fprintf(w, "  exit:   %d complete=%d\n", pv.ExitCode, pv.IsComplete)
	}
}
