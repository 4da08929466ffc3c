package linker

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/yoanbernabeu/strmlink/logging"
)

// Outcome is the result of materializing one candidate.
type Outcome struct {
	Candidate       Candidate `json:"candidate"`
	Created         bool      `json:"created"`
	SkippedExisting bool      `json:"skipped_existing,omitempty"`
	Strategy        string    `json:"strategy,omitempty"`
	ErrorKind       ErrorKind `json:"error_kind,omitempty"`
	Error           string    `json:"error,omitempty"`

	Err error `json:"-"`
}

// Failed reports whether the candidate ended in an error.
func (o Outcome) Failed() bool { return o.Err != nil }

// Materializer creates links, never replacing an existing entry.
type Materializer struct {
	strategies []Strategy
	log        zerolog.Logger
}

// NewMaterializer returns a materializer that tries strategies in order.
// With no strategies it uses DefaultStrategies.
func NewMaterializer(strategies ...Strategy) *Materializer {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Materializer{
		strategies: strategies,
		log:        logging.GetLogger("linker"),
	}
}

// Materialize makes c.Destination exist. An existing destination of any
// type is skipped. In dry-run mode nothing is touched and the candidate is
// reported as created.
func (m *Materializer) Materialize(c Candidate, dryRun bool) Outcome {
	out := Outcome{Candidate: c}

	if _, err := os.Lstat(c.Destination); err == nil {
		m.log.Debug().Str("destination", c.Destination).Msg("Destination exists, skipping")
		out.SkippedExisting = true
		return out
	} else if !errors.Is(err, fs.ErrNotExist) {
		return out.fail(&LinkError{
			Destination: c.Destination,
			Attempts:    []Attempt{{Strategy: "lstat", Err: err}},
		})
	}

	if dryRun {
		out.Created = true
		return out
	}

	linkErr := &LinkError{Destination: c.Destination}
	for i, s := range m.strategies {
		err := s.Apply(c.Source, c.Destination)
		if err == nil {
			out.Created = true
			out.Strategy = s.Name
			if linkErr.Privilege {
				m.log.Warn().
					Str("destination", c.Destination).
					Str("strategy", s.Name).
					Msg("Symbolic link not permitted, used fallback: " + PrivilegeHint)
			}
			m.log.Info().
				Str("source", c.Source).
				Str("destination", c.Destination).
				Str("strategy", s.Name).
				Msg("Link created")
			return out
		}

		linkErr.Attempts = append(linkErr.Attempts, Attempt{Strategy: s.Name, Err: err})
		if errors.Is(err, fs.ErrExist) {
			linkErr.Raced = true
			return out.fail(linkErr)
		}
		if i == 0 && s.Name == StrategySymlink && isPrivilegeError(err) {
			linkErr.Privilege = true
		}
		m.log.Debug().Err(err).Str("strategy", s.Name).Str("destination", c.Destination).Msg("Link strategy failed")
	}

	return out.fail(linkErr)
}

func (o Outcome) fail(err error) Outcome {
	o.Err = err
	o.Error = err.Error()
	o.ErrorKind = KindOf(err)
	return o
}
