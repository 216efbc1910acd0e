package web

// handlers_import.go hosts the CSV customer import endpoint.

import (
	"net/http"

	"crmcore/internal/core"
	"crmcore/internal/domain"
	"crmcore/internal/logging"
)

// FailedLineResponse attributes one rejected CSV row to its file line.
type FailedLineResponse struct {
	LineNumber int         `json:"line_number"`
	Email      string      `json:"email,omitempty"`
	Kind       domain.Kind `json:"kind"`
	Reason     string      `json:"reason"`
}

// ImportResponse wraps the import result for JSON encoding.
type ImportResponse struct {
	TotalRows   int                  `json:"total_rows"`
	Imported    int                  `json:"imported"`
	Failed      int                  `json:"failed"`
	Created     []domain.Customer    `json:"created"`
	FailedLines []FailedLineResponse `json:"failed_lines"`
	Duration    string               `json:"duration"`
}

// handleImportCustomers accepts a multipart CSV upload and creates its rows
// as one customer batch. Rows failing validation are reported per line; the
// rest commit together.
func (s *Server) handleImportCustomers(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		respondBadRequest(w, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondBadRequest(w, "no file provided")
		return
	}
	defer file.Close()

	logging.WithFields(r.Context(),
		"filename", header.Filename,
		"size", header.Size,
	).Info("customer import started")

	result, err := s.service.ImportCustomersCSV(r.Context(), file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toImportResponse(result))
}

// toImportResponse converts an ImportResult to its JSON form.
func toImportResponse(res core.ImportResult) ImportResponse {
	resp := ImportResponse{
		TotalRows:   res.TotalRows,
		Imported:    res.Imported,
		Failed:      res.Failed,
		Created:     res.Created,
		FailedLines: make([]FailedLineResponse, 0, len(res.FailedLines)),
		Duration:    res.Duration.String(),
	}
	for _, fl := range res.FailedLines {
		resp.FailedLines = append(resp.FailedLines, FailedLineResponse{
			LineNumber: fl.LineNumber,
			Email:      fl.Email,
			Kind:       fl.Kind,
			Reason:     fl.Reason,
		})
	}
	return resp
}
