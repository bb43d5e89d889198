package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/statement2sheet/s2s/internal/cli"
	"github.com/statement2sheet/s2s/internal/detect"
	"github.com/statement2sheet/s2s/internal/extract"
)

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <file>...",
		Short: "Identify the issuing bank of a statement without uploading it",
		Long: `Detect runs the local bank detection heuristics over a statement file.

Nothing is sent anywhere: the file is read, its text extracted, and the
issuing bank, account, currency, and statement period are inferred from
the content.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDetect,
	}

	cmd.Flags().Bool("json", false, "print results as JSON")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	detector := detect.New()

	for _, path := range args {
		extracted, err := extract.Extract(path)
		if err != nil {
			return err
		}

		result := detector.Detect(extracted.Text, filepath.Base(path))

		if asJSON {
			out := map[string]any{"file": path, "detected": result != nil}
			if result != nil {
				out["result"] = result
			}
			data, marshalErr := json.MarshalIndent(out, "", "  ")
			if marshalErr != nil {
				return marshalErr
			}
			fmt.Println(string(data))
			continue
		}

		if result == nil {
			fmt.Println(cli.FormatWarning(fmt.Sprintf("%s: no bank detected. The file may not be a bank statement.", path)))
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Bank        %s (%s)\n", result.Bank.BankName, result.Bank.Country)
		fmt.Fprintf(&b, "Confidence  %.0f%%\n", result.Confidence*100)
		fmt.Fprintf(&b, "Type        %s\n", result.Bank.DocumentType)
		if result.Bank.AccountNumber != "" {
			fmt.Fprintf(&b, "Account     %s\n", result.Bank.AccountNumber)
		}
		if result.Bank.Currency != "" {
			fmt.Fprintf(&b, "Currency    %s\n", result.Bank.Currency)
		}
		if result.Bank.StatementPeriod != "" {
			fmt.Fprintf(&b, "Period      %s\n", result.Bank.StatementPeriod)
		}
		fmt.Fprintf(&b, "Signals     %s", strings.Join(result.MatchedPatterns, ", "))

		fmt.Println(cli.RenderBox(filepath.Base(path), b.String()))
	}

	return nil
}
