package scanner

import (
	"strings"

	"github.com/yoanbernabeu/strmlink/linker"
)

// FileError is one failure recorded in a report. File is always the
// pointer file; a failed link names its destination in Error.
type FileError struct {
	File  string           `json:"file"`
	Kind  linker.ErrorKind `json:"kind,omitempty"`
	Error string           `json:"error"`
}

// Detail is the full result for one pointer file.
type Detail struct {
	File   string            `json:"file"`
	Result linker.FileResult `json:"result"`
}

// Report summarizes a batch scan. It is only written by the aggregator and
// is never modified after Scan returns it.
type Report struct {
	Success           bool        `json:"success"`
	Directory         string      `json:"directory"`
	DryRun            bool        `json:"dry_run"`
	TotalPointerFiles int         `json:"total_pointer_files"`
	Processed         int         `json:"processed"`
	CreatedLinks      int         `json:"created_links"`
	Skipped           int         `json:"skipped"`
	Errors            []FileError `json:"errors"`
	Details           []Detail    `json:"details"`
	DurationSeconds   float64     `json:"duration_seconds"`
}

func newReport(dir string, dryRun bool, total int) *Report {
	return &Report{
		Success:           true,
		Directory:         dir,
		DryRun:            dryRun,
		TotalPointerFiles: total,
		Errors:            []FileError{},
		Details:           make([]Detail, 0, total),
	}
}

// add folds one file result into the report.
func (r *Report) add(res linker.FileResult) {
	r.Processed++
	if res.Success {
		r.CreatedLinks += res.LinksCreated
		if res.LinksCreated == 0 {
			r.Skipped++
		}
		for _, o := range res.Failures() {
			msg := o.Error
			if !strings.Contains(msg, o.Candidate.Destination) {
				msg = o.Candidate.Destination + ": " + msg
			}
			r.Errors = append(r.Errors, FileError{File: res.File, Kind: o.ErrorKind, Error: msg})
		}
	} else {
		r.Errors = append(r.Errors, FileError{File: res.File, Kind: res.ErrorKind, Error: res.Error})
	}
	r.Details = append(r.Details, Detail{File: res.File, Result: res})
}
