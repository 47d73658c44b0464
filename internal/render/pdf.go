package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFDecoder decodes menus with pdfcpu using relaxed validation, which
// accepts the slightly malformed files produced by many menu design tools.
type PDFDecoder struct{}

// NewPDFDecoder returns a pdfcpu backed Decoder.
func NewPDFDecoder() *PDFDecoder {
	return &PDFDecoder{}
}

// newConf returns a fresh configuration; pdfcpu commands mutate it.
func newConf() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// Decode implements Decoder.
func (d *PDFDecoder) Decode(ctx context.Context, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrParse)
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	dims, err := api.PageDims(bytes.NewReader(buf), newConf())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrParse)
	}
	return &pdfDocument{data: buf, dims: dims}, nil
}

// PageCount validates data and returns its number of pages.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), newConf())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return n, nil
}

type pdfDocument struct {
	data []byte
	dims []types.Dim
}

func (d *pdfDocument) NumPages() int { return len(d.dims) }

// RenderPage extracts page number into its own document and sizes it.
func (d *pdfDocument) RenderPage(ctx context.Context, number int, scale float64) (*Page, error) {
	if number < 1 || number > len(d.dims) {
		return nil, fmt.Errorf("%w: page %d out of range 1..%d", ErrParse, number, len(d.dims))
	}
	dim := d.dims[number-1]
	page, err := NewPage(number, dim.Width, dim.Height, scale)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(d.data), &out, []string{strconv.Itoa(number)}, newConf()); err != nil {
		return nil, fmt.Errorf("%w: extracting page %d: %v", ErrParse, number, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page.PDF = out.Bytes()
	return page, nil
}
