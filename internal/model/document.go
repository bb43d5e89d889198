package model

import "time"

// DocumentStatus tracks a document through upload and conversion.
type DocumentStatus string

const (
	// DocumentUploaded means the PDF was accepted by the backend.
	DocumentUploaded DocumentStatus = "uploaded"
	// DocumentProcessing means a conversion job is running.
	DocumentProcessing DocumentStatus = "processing"
	// DocumentConverted means transactions are available.
	DocumentConverted DocumentStatus = "converted"
	// DocumentFailed means conversion failed.
	DocumentFailed DocumentStatus = "failed"
)

// Document is a locally tracked statement upload, together with whatever
// bank metadata detection produced for it.
type Document struct {
	ID              string
	FileName        string
	JobID           string
	Status          DocumentStatus
	BankName        string
	Country         string
	Currency        string
	AccountNumber   string
	StatementPeriod string
	DocumentType    DocumentType
	Confidence      float64
	PageCount       int
	UploadedAt      time.Time
	ConvertedAt     *time.Time
}
