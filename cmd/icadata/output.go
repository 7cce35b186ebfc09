package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sequencebio/icadata/internal/ica"
)

// pagePrinter renders listing pages either as an aligned table or as JSON
// lines.
type pagePrinter struct {
	asJSON  bool
	enc     *json.Encoder
	tw      *tabwriter.Writer
	started bool
}

func newPagePrinter(w io.Writer, asJSON bool) *pagePrinter {
	return &pagePrinter{
		asJSON: asJSON,
		enc:    json.NewEncoder(w),
		tw:     tabwriter.NewWriter(w, 0, 4, 2, ' ', 0),
	}
}

func (p *pagePrinter) Print(page *ica.ProjectDataPage) error {
	if p.asJSON {
		for _, item := range page.Items {
			if err := p.enc.Encode(item); err != nil {
				return err
			}
		}
		return nil
	}

	if !p.started {
		fmt.Fprintln(p.tw, "ID\tTYPE\tSIZE\tSTATUS\tPATH")
		p.started = true
	}
	for _, item := range page.Items {
		d := item.Data.Details
		fmt.Fprintf(p.tw, "%s\t%s\t%d\t%s\t%s\n", item.Data.ID, d.DataType, d.FileSizeInBytes, d.Status, d.Path)
	}
	return p.tw.Flush()
}

func (p *pagePrinter) Flush() error {
	if p.asJSON {
		return nil
	}
	return p.tw.Flush()
}
