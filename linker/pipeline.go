package linker

import (
	"github.com/yoanbernabeu/strmlink/extensions"
	"github.com/yoanbernabeu/strmlink/strm"
)

// FileResult is the outcome of processing one pointer file.
type FileResult struct {
	File         string    `json:"file"`
	Success      bool      `json:"success"`
	LinksCreated int       `json:"links_created"`
	CreatedLinks []string  `json:"created_links,omitempty"`
	Outcomes     []Outcome `json:"outcomes,omitempty"`
	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Failures returns the outcomes that ended in an error.
func (r FileResult) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Pipeline parses, plans and materializes a single pointer file. It is
// shared by the batch scanner and the watch handler.
type Pipeline struct {
	Registry     *extensions.Registry
	Materializer *Materializer
}

// NewPipeline returns a pipeline using reg and the default strategies.
func NewPipeline(reg *extensions.Registry) *Pipeline {
	return &Pipeline{Registry: reg, Materializer: NewMaterializer()}
}

// WithRegistry returns a copy of p that parses and plans against reg.
func (p *Pipeline) WithRegistry(reg *extensions.Registry) *Pipeline {
	return &Pipeline{Registry: reg, Materializer: p.Materializer}
}

// Process runs the pipeline for path. Success is false only when nothing
// could be planned; individual link failures are reported in Outcomes.
func (p *Pipeline) Process(path string, dryRun bool) FileResult {
	res := FileResult{File: path}

	pf, err := strm.Parse(path, p.Registry)
	if err != nil {
		return res.fail(err)
	}
	candidates, err := Plan(pf, p.Registry)
	if err != nil {
		return res.fail(err)
	}

	res.Success = true
	res.Outcomes = make([]Outcome, 0, len(candidates))
	for _, c := range candidates {
		o := p.Materializer.Materialize(c, dryRun)
		res.Outcomes = append(res.Outcomes, o)
		if o.Created {
			res.LinksCreated++
			res.CreatedLinks = append(res.CreatedLinks, c.Destination)
		}
	}
	return res
}

func (r FileResult) fail(err error) FileResult {
	r.Success = false
	r.Error = err.Error()
	r.ErrorKind = KindOf(err)
	return r
}
