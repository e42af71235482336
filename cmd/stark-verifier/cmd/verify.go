package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errRejected reports a proof the machine checked and rejected.
var errRejected = errors.New("proof rejected")

var (
	flagVariant string
	flagProof   string
	flagVK      string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a serialized proof bundle against a verifying key",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&flagVariant, "variant", "", "variant tag (BabyBear, KoalaBear, Pico, PicoPrism)")
	verifyCmd.Flags().StringVar(&flagProof, "proof", "", "path to the serialized proof bundle")
	verifyCmd.Flags().StringVar(&flagVK, "vk", "", "path to the serialized verifying key")
	_ = verifyCmd.MarkFlagRequired("variant")
	_ = verifyCmd.MarkFlagRequired("proof")
	_ = verifyCmd.MarkFlagRequired("vk")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	_, log, v, err := setup()
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

	valid, err := v.Verify(flagVariant, proofBytes, vkBytes)
	if err != nil {
		return err
	}

	log.Debug().Str("proof", flagProof).Str("vk", flagVK).Bool("valid", valid).Msg("verify done")
	if !valid {
		fmt.Fprintln(cmd.OutOrStdout(), "invalid")
		return errRejected
	}
	fmt.Fprintln(cmd.OutOrStdout(), "valid")
	return nil
}
