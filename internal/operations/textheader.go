package operations

import (
	"context"

	"github.com/petergi/segysak-cli/internal/segy"
)

// TextHeaderReport holds the decoded textual headers of a SEG-Y file.
type TextHeaderReport struct {
	FilePath string     `json:"file" yaml:"file"`
	Encoding string     `json:"encoding" yaml:"encoding"`
	Lines    []string   `json:"lines" yaml:"lines"`
	Extended [][]string `json:"extended,omitempty" yaml:"extended,omitempty"`
}

// TextHeaderOperation reads the textual file header
type TextHeaderOperation struct {
	ctx      context.Context
	extended bool
}

func NewTextHeaderOperation(ctx context.Context) *TextHeaderOperation {
	return &TextHeaderOperation{ctx: ctx}
}

// WithExtended includes the extended textual headers in the report.
func (o *TextHeaderOperation) WithExtended(enabled bool) *TextHeaderOperation {
	o.extended = enabled
	return o
}

// Execute reads the textual header of the SEG-Y file at filePath.
func (o *TextHeaderOperation) Execute(filePath string) (*TextHeaderReport, error) {
	if err := o.ctx.Err(); err != nil {
		return nil, err
	}

	f, err := segy.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	report := &TextHeaderReport{
		FilePath: filePath,
		Encoding: string(f.Text.Encoding),
		Lines:    f.Text.Lines(),
	}
	if o.extended {
		for _, ext := range f.Extended {
			report.Extended = append(report.Extended, ext.Lines())
		}
	}
	return report, nil
}
