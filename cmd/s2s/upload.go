package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/statement2sheet/s2s/internal/cli"
	"github.com/statement2sheet/s2s/internal/detect"
	"github.com/statement2sheet/s2s/internal/extract"
	"github.com/statement2sheet/s2s/internal/model"
	"github.com/statement2sheet/s2s/internal/storage"
)

func uploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload statements for conversion",
		Long: `Upload runs local bank detection on each statement, records it in the
local history, and submits it to the conversion service. Use "s2s watch"
to follow the conversion jobs live.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runUpload,
	}

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if _, err := requireToken(ctx, store); err != nil {
		return err
	}

	client, err := newAPIClient(ctx, store)
	if err != nil {
		return err
	}

	detector := detect.New()
	bar := progressbar.Default(int64(len(args)), "uploading")
	var failed int

	for _, path := range args {
		if err := uploadOne(ctx, store, client, detector, path); err != nil {
			fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", filepath.Base(path), err)))
			failed++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Uploaded %d statement(s). Follow progress with: s2s watch", len(args))))
	return nil
}

type uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

func uploadOne(ctx context.Context, store *storage.SQLiteStorage, client uploader, detector *detect.Detector, path string) error {
	extracted, err := extract.Extract(path)
	if err != nil {
		return err
	}

	doc := &model.Document{
		ID:           uuid.NewString(),
		FileName:     filepath.Base(path),
		Status:       model.DocumentUploaded,
		PageCount:    extracted.PageCount,
		DocumentType: model.DocumentTypeUnknown,
	}

	if result := detector.Detect(extracted.Text, doc.FileName); result != nil {
		doc.BankName = result.Bank.BankName
		doc.Country = result.Bank.Country
		doc.Currency = result.Bank.Currency
		doc.AccountNumber = result.Bank.AccountNumber
		doc.StatementPeriod = result.Bank.StatementPeriod
		doc.DocumentType = result.Bank.DocumentType
		doc.Confidence = result.Confidence
	}

	jobID, err := client.Upload(ctx, path)
	if err != nil {
		return err
	}
	doc.JobID = jobID
	doc.Status = model.DocumentProcessing

	if err := store.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("uploaded but failed to record locally: %w", err)
	}
	return nil
}
