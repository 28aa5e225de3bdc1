package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/bitgains/backend/src/config"
	"github.com/username/bitgains/backend/src/logger"
	"github.com/username/bitgains/backend/src/security/validation"
	"github.com/username/bitgains/backend/src/services"
	"github.com/username/bitgains/backend/src/utils"
)

type ImportHandler struct {
	reportService services.ReportService
}

func NewImportHandler(service services.ReportService) *ImportHandler {
	return &ImportHandler{
		reportService: service,
	}
}

// HandleImportCSV accepts a wallet CSV export and stores its transactions
// for later report runs.
func (h *ImportHandler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fiatCurrency := r.FormValue("currency")
	if fiatCurrency == "" {
		fiatCurrency = config.Cfg.DefaultCurrency
	}

	logger.L.Info("Processing CSV import", "filename", fileHeader.Filename, "currency", fiatCurrency)
	count, err := h.reportService.ImportCSV(file, fiatCurrency)
	if err != nil {
		logger.L.Warn("CSV import failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error importing CSV file: %v", err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "CSV imported successfully",
		"imported": count,
	})
}
