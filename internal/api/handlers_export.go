// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"mime"
	"net/http"

	"github.com/ManuGH/metrocrowd/internal/congestion"
	"github.com/ManuGH/metrocrowd/internal/dataset"
	"github.com/ManuGH/metrocrowd/internal/log"
)

// handleExport streams the filtered rows as a CSV attachment. With an
// Exporter the rows come straight from the store; otherwise the current
// snapshot is exported.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Dataset.Snapshot()
	filter, err := parseFilter(r.URL.Query(), snap)
	if err != nil {
		respondError(w, r, err)
		return
	}

	name := dataset.DownloadFilename(s.deps.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Cache-Control", "no-store")

	out := &writeTracker{ResponseWriter: w}
	cw := dataset.NewCSVWriter(out)
	rows := 0
	write := func(row congestion.DownloadRow) error {
		rows++
		return cw.Write(row)
	}

	if s.deps.Export != nil {
		err = s.deps.Export.StreamDownload(r.Context(), filter, write)
	} else {
		for _, row := range dataset.DownloadRows(snap.Query(filter)) {
			if err = write(row); err != nil {
				break
			}
		}
	}
	if err == nil {
		err = cw.Flush()
	}
	if err == nil {
		return
	}

	if !out.wrote {
		w.Header().Del("Content-Disposition")
		respondError(w, r, err)
		return
	}
	// Headers are gone; the client sees a truncated body.
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Warn().
		Err(err).
		Str(log.FieldEvent, "export.write_failed").
		Int(log.FieldRows, rows).
		Msg("csv export aborted")
}

// writeTracker records whether any body bytes reached the client.
type writeTracker struct {
	http.ResponseWriter
	wrote bool
}

func (t *writeTracker) Write(p []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(p)
}
