package tickets

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataLoad marks failures to read or parse the dataset.
	ErrDataLoad = errors.New("tickets: data load failed")
	// ErrInvalidFilter marks filter selections that cannot be applied.
	ErrInvalidFilter = errors.New("tickets: invalid filter")
)

// DataLoadError reports a missing, unreadable or malformed source.
type DataLoadError struct {
	Source  string
	Missing []string
	Err     error
}

func (e *DataLoadError) Error() string {
	var b strings.Builder
	b.WriteString("load ")
	if e.Source != "" {
		b.WriteString(e.Source)
	} else {
		b.WriteString("dataset")
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrDataLoad.
func (e *DataLoadError) Is(target error) bool { return target == ErrDataLoad }

// FilterError reports an invalid filter selection.
type FilterError struct {
	Field  string
	Reason string
}

func (e *FilterError) Error() string {
	if e.Field == "" {
		return "invalid filter: " + e.Reason
	}
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
}

// InvalidField names the rejected selection field.
func (e *FilterError) InvalidField() string { return e.Field }

// Is lets errors.Is match ErrInvalidFilter.
func (e *FilterError) Is(target error) bool { return target == ErrInvalidFilter }
