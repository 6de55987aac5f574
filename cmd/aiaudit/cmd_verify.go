package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/aiaudit/internal/external-adapters/gpg"
	"github.com/ochairo/aiaudit/internal/external-adapters/report"
)

func newVerifyCmd() *cobra.Command {
	var keyPath, sigPath, expectedSum string

	cmd := &cobra.Command{
		Use:   "verify <report>",
		Short: "Verify a report's detached signature and checksum",
		Long: `Check that a report was signed by a trusted key and has not been modified.

Examples:
  aiaudit verify acme.csv --key audit-key.pub.asc
  aiaudit verify acme.csv --key audit-key.pub.asc --signature acme.csv.asc
  aiaudit verify acme.csv --sha256 9f86d08...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportPath := args[0]
			if keyPath == "" && expectedSum == "" {
				return errors.New("nothing to verify: pass --key and/or --sha256")
			}
			out := cmd.OutOrStdout()

			sum, err := report.Checksum(reportPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "SHA-256: %s\n", sum)
			if expectedSum != "" && !strings.EqualFold(sum, expectedSum) {
				return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedSum, sum)
			}

			if keyPath == "" {
				fmt.Fprintln(out, "Checksum OK")
				return nil
			}

			verifier := gpg.NewVerifier()
			if err := verifier.ImportKeyFromFile(keyPath); err != nil {
				return err
			}
			if sigPath == "" {
				sigPath = reportPath + gpg.SignatureSuffix
			}
			fingerprint, err := verifier.VerifySignatureFromFile(reportPath, sigPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Signature OK (key %s)\n", fingerprint)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "", "Armored or binary OpenPGP public key")
	cmd.Flags().StringVar(&sigPath, "signature", "", "Signature path (default <report>.asc)")
	cmd.Flags().StringVar(&expectedSum, "sha256", "", "Expected SHA-256 of the report")
	return cmd
}
