package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoanbernabeu/strmlink/linker"
	"github.com/yoanbernabeu/strmlink/reaper"
	"github.com/yoanbernabeu/strmlink/scanner"
	"github.com/yoanbernabeu/strmlink/strm"
)

func TestPrintScanReport(t *testing.T) {
	var buf bytes.Buffer
	printScanReport(&buf, &scanner.Report{
		Directory:         "/media/tv",
		TotalPointerFiles: 2,
		Processed:         2,
		CreatedLinks:      1,
		Details: []scanner.Detail{{
			File:   "/media/tv/A.(mp4).strm",
			Result: linker.FileResult{Success: true, CreatedLinks: []string{"/media/tv/A.mp4"}},
		}},
		Errors: []scanner.FileError{{File: "/media/tv/B.(xyz).strm", Kind: linker.KindUnrecognizedKind, Error: "unrecognized kind"}},
	})

	out := buf.String()
	assert.Contains(t, out, "Scan complete")
	assert.Contains(t, out, "/media/tv/A.mp4")
	assert.Contains(t, out, "1 error(s)")
	assert.Contains(t, out, "unrecognized_kind")
}

func TestPrintCleanupResult(t *testing.T) {
	var buf bytes.Buffer
	printCleanupResult(&buf, &reaper.Result{Directory: "/media", RemovedCount: 1, Removed: []string{"/media/x.mp4"}})
	assert.Contains(t, buf.String(), "/media/x.mp4")
	assert.NotContains(t, buf.String(), "error(s)")
}

func TestWriteFailureJSON(t *testing.T) {
	var buf bytes.Buffer
	err := errors.Join(errors.New("bad name"), strm.ErrPatternMismatch)
	require.NoError(t, writeFailureJSON(&buf, err))
	assert.Contains(t, buf.String(), `"kind": "pattern_mismatch"`)
	assert.Contains(t, buf.String(), `"success": false`)
}
