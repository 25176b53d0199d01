package core

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"
)

// Sample limits
const (
	maxProductSamples   = 10
	maxSkippedSamples   = 20
	maxDuplicateSamples = 10
)

// PreviewSummary contains the counts for an upload preview.
type PreviewSummary struct {
	TotalRows    int `json:"totalRows"`
	Products     int `json:"products"`
	SkippedRows  int `json:"skippedRows"`
	DuplicateIDs int `json:"duplicateIds"`
}

// SkippedRow is a data row that normalized to an empty id.
type SkippedRow struct {
	LineNumber int `json:"lineNumber"`
	Values     Row `json:"values"`
}

// DuplicatePreview lists the lines sharing one id. Only the first line is
// reachable by id once loaded.
type DuplicatePreview struct {
	ID          string `json:"id"`
	LineNumbers []int  `json:"lineNumbers"`
}

// PreviewResponse describes what a load of the file would produce.
type PreviewResponse struct {
	Decoder             string             `json:"decoder"`
	Summary             PreviewSummary     `json:"summary"`
	RecognizedColumns   []string           `json:"recognizedColumns"`
	UnrecognizedColumns []string           `json:"unrecognizedColumns"`
	ProductSamples      []Product          `json:"productSamples"`
	SkippedSamples      []SkippedRow       `json:"skippedSamples"`
	DuplicateSamples    []DuplicatePreview `json:"duplicateSamples"`
	ProcessingTimeMs    int64              `json:"processingTimeMs"`
}

// PreviewFile decodes and normalizes a file without touching the catalog.
func (s *Service) PreviewFile(ctx context.Context, filename string, r io.Reader) (*PreviewResponse, error) {
	startTime := time.Now()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	dec, _ := DecoderFor(filename)
	sheet, err := decodeFile(ctx, filename, r)
	if err != nil {
		return nil, err
	}

	resp := &PreviewResponse{
		Decoder: dec.Name,
		Summary: PreviewSummary{TotalRows: len(sheet.Rows)},
	}
	resp.RecognizedColumns, resp.UnrecognizedColumns = classifyHeaders(sheet.Headers)

	seen := make(map[string][]int)
	var order []string

	for i, row := range sheet.Rows {
		// Line 1 is the header.
		line := i + 2
		p := Normalize(row)
		if !p.Usable() {
			resp.Summary.SkippedRows++
			if len(resp.SkippedSamples) < maxSkippedSamples {
				resp.SkippedSamples = append(resp.SkippedSamples, SkippedRow{LineNumber: line, Values: row})
			}
			continue
		}

		resp.Summary.Products++
		if _, ok := seen[p.ID]; !ok {
			order = append(order, p.ID)
		}
		seen[p.ID] = append(seen[p.ID], line)

		if len(resp.ProductSamples) < maxProductSamples {
			resp.ProductSamples = append(resp.ProductSamples, p)
		}
	}

	for _, id := range order {
		lines := seen[id]
		if len(lines) < 2 {
			continue
		}
		resp.Summary.DuplicateIDs++
		if len(resp.DuplicateSamples) < maxDuplicateSamples {
			resp.DuplicateSamples = append(resp.DuplicateSamples, DuplicatePreview{ID: id, LineNumbers: lines})
		}
	}

	resp.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	return resp, nil
}

// classifyHeaders splits headers into the ones Normalize reads and the rest.
func classifyHeaders(headers []string) (recognized, unrecognized []string) {
	for _, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if KnownColumns[key] {
			recognized = append(recognized, h)
		} else {
			unrecognized = append(unrecognized, h)
		}
	}
	sort.Strings(unrecognized)
	return recognized, unrecognized
}
