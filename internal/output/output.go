package output

import (
	"fmt"
	"io"
)

// Report formats.
const (
	FormatNone = "none"
	FormatText = "text"
	FormatJSON = "json"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case FormatText:
		return &TextWriter{}, nil
	case FormatJSON:
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// WriteReport writes the report to w. The "none" format writes nothing.
func WriteReport(report *Report, format string, w io.Writer) error {
	if format == FormatNone || format == "" {
		return nil
	}
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	return writer.Write(w, report)
}
