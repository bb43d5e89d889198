package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/statement2sheet/s2s/internal/cli"
	"github.com/statement2sheet/s2s/internal/model"
	"github.com/statement2sheet/s2s/internal/service"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List tracked statements",
		RunE:  runHistory,
	}

	cmd.Flags().String("status", "", "filter by status (uploaded, processing, converted, failed)")
	cmd.Flags().String("bank", "", "filter by detected bank name")
	cmd.Flags().Int("limit", 20, "maximum number of rows")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	filter := service.DocumentFilter{}
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		status := model.DocumentStatus(v)
		switch status {
		case model.DocumentUploaded, model.DocumentProcessing, model.DocumentConverted, model.DocumentFailed:
			filter.Status = &status
		default:
			return fmt.Errorf("unknown status %q", v)
		}
	}
	filter.Bank, _ = cmd.Flags().GetString("bank")
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	docs, err := store.GetDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println(cli.FormatInfo("No statements found. Upload one with: s2s upload <file>"))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tBANK\tSTATUS\tUPLOADED")
	for i := range docs {
		doc := &docs[i]
		bank := doc.BankName
		if bank == "" {
			bank = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			doc.ID, doc.FileName, bank, doc.Status, doc.UploadedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
