package api

import (
	"net/http"
	"time"
)

// Keys under this prefix are written by the cleaner's sweep
const reportPrefix = "cleanup-reports/"

const presignLifetime = 15 * time.Minute

func (api *Api) requireArchive(w http.ResponseWriter) bool {
	if api.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "Report archive is not configured")
		return false
	}
	return true
}

func (api *Api) ListCleanupReportsHandler(w http.ResponseWriter, r *http.Request) {
	if !api.requireArchive(w) {
		return
	}

	keys, err := api.reports.ListReports(r.Context(), reportPrefix)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"reports": keys})
}

// DownloadCleanupReportHandler hands out a short-lived presigned URL for one
// report rather than proxying the object
func (api *Api) DownloadCleanupReportHandler(w http.ResponseWriter, r *http.Request) {
	if !api.requireArchive(w) {
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	url, err := api.reports.PresignReport(r.Context(), key, presignLifetime)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate report URL")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (api *Api) PruneCleanupReportsHandler(w http.ResponseWriter, r *http.Request) {
	if !api.requireArchive(w) {
		return
	}

	if err := api.reports.PruneReports(r.Context(), reportPrefix); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to prune reports")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
