// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"

	"github.com/pdiddy/convertly/pkg/types"
)

// errorKind classifies handler failures.
type errorKind int

const (
	// kindValidation is a bad request, rejected before any tool runs.
	kindValidation errorKind = iota
	// kindToolFailure covers tool errors, missing outputs and storage errors.
	kindToolFailure
)

// requestError is returned to the client as {"error": Message}. Cause is
// logged and never sent.
type requestError struct {
	Kind    errorKind
	Status  int
	Message string
	Cause   error
}

func (e *requestError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *requestError) Unwrap() error { return e.Cause }

// recordStatus maps the error onto a ledger outcome.
func (e *requestError) recordStatus() types.RequestStatus {
	if e.Kind == kindValidation {
		return types.StatusRejected
	}
	return types.StatusFailed
}

func validationError(msg string) *requestError {
	return &requestError{Kind: kindValidation, Status: http.StatusBadRequest, Message: msg}
}

func toolFailure(msg string, cause error) *requestError {
	return &requestError{Kind: kindToolFailure, Status: http.StatusInternalServerError, Message: msg, Cause: cause}
}

// Client-facing messages.
const (
	msgNoURL           = "No URL provided"
	msgNoFile          = "No file uploaded"
	msgMissingKind     = "Missing file or conversion type"
	msgInvalidKind     = "Invalid conversion type"
	msgFileTooLarge    = "File too large"
	msgBodyTooLarge    = "Request body too large"
	msgConvertFailed   = "Conversion failed"
	msgDocToPDFFailed  = "Word to PDF conversion failed"
	msgPDFToDocFailed  = "PDF to Word conversion failed"
	msgExpectedPDF     = "Invalid file format. Expected PDF."
	msgExpectedDOCX    = "Invalid file format. Expected DOCX."
	msgDownloadFailure = " download failed"
)

func downloadFailed(p types.Platform) string {
	return p.DisplayName() + msgDownloadFailure
}

func conversionFailed(kind types.ConversionKind) string {
	switch kind {
	case types.KindDocToPDF:
		return msgDocToPDFFailed
	case types.KindPDFToDoc:
		return msgPDFToDocFailed
	}
	return msgConvertFailed
}

func wrongFormat(kind types.ConversionKind) string {
	if kind == types.KindDocToPDF {
		return msgExpectedDOCX
	}
	return msgExpectedPDF
}
