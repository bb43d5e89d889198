package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/statement2sheet/s2s/internal/cli"
	"github.com/statement2sheet/s2s/internal/config"
	"github.com/statement2sheet/s2s/internal/export"
	"github.com/statement2sheet/s2s/internal/model"
	"github.com/statement2sheet/s2s/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <document-id>",
		Short: "Export a converted statement to a spreadsheet",
		Long: `Export writes the transactions of a converted document to XLSX or CSV,
or pushes them to Google Sheets.

Transactions are fetched from the conversion service the first time and
cached locally, so repeated exports work offline.`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().String("format", "xlsx", "output format (xlsx, csv, sheets)")
	cmd.Flags().String("out", "", "output file path (default: <file>.<format>)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	documentID := args[0]

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	doc, err := store.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("unknown document %s: %w", documentID, err)
	}
	if doc.Status != model.DocumentConverted {
		return fmt.Errorf("document %s is %s, not converted yet", documentID, doc.Status)
	}

	transactions, err := store.GetTransactionsByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		// Not cached yet; pull from the backend and keep a copy.
		client, clientErr := newAPIClient(ctx, store)
		if clientErr != nil {
			return clientErr
		}
		transactions, err = client.GetTransactions(ctx, documentID)
		if err != nil {
			return fmt.Errorf("failed to fetch transactions: %w", err)
		}
		for i := range transactions {
			transactions[i].DocumentID = documentID
		}
		if saveErr := store.SaveTransactions(ctx, transactions); saveErr != nil {
			slog.Warn("failed to cache transactions", "error", saveErr)
		}
	}

	switch format {
	case "xlsx":
		if out == "" {
			out = defaultOutPath(doc.FileName, "xlsx")
		}
		if err := export.WriteXLSX(out, doc, transactions); err != nil {
			return err
		}
	case "csv":
		if out == "" {
			out = defaultOutPath(doc.FileName, "csv")
		}
		if err := export.WriteCSV(out, transactions); err != nil {
			return err
		}
	case "sheets":
		sheetsConfig, cfgErr := config.LoadSheetsConfig()
		if cfgErr != nil {
			return fmt.Errorf("sheets not configured: %w", cfgErr)
		}
		writer, writerErr := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
		if writerErr != nil {
			return writerErr
		}
		if err := writer.Write(ctx, doc, transactions); err != nil {
			return err
		}
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to Google Sheets", len(transactions))))
		return nil
	default:
		return fmt.Errorf("unknown format %q (use xlsx, csv, or sheets)", format)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %s", len(transactions), out)))
	return nil
}

func defaultOutPath(fileName, ext string) string {
	base := fileName
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base + "." + ext
}
