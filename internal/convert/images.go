// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

// figure is one raster image pulled out of a PDF.
type figure struct {
	Page     int
	Name     string
	MIMEType string
	Data     []byte
}

// imageEmbedder decorates a Converter by appending every raster image in
// the PDF as an inline data URI under a "Figures" heading.
type imageEmbedder struct {
	next Converter
	log  io.Writer
}

// WithImages wraps c so its output embeds the PDF's images. Extraction
// problems are reported to w and never fail the conversion.
func WithImages(c Converter, w io.Writer) Converter {
	if w == nil {
		w = io.Discard
	}
	return &imageEmbedder{next: c, log: w}
}

func (e *imageEmbedder) Backend() types.ConversionBackend { return e.next.Backend() }

func (e *imageEmbedder) Convert(ctx context.Context, pdfPath string) (string, error) {
	md, err := e.next.Convert(ctx, pdfPath)
	if err != nil {
		return "", err
	}
	figs, err := extractFigures(pdfPath)
	if err != nil {
		fmt.Fprintf(e.log, "warning: %s: images not embedded (%v)\n", pdfPath, err)
		return md, nil
	}
	return md + figuresMarkdown(figs), nil
}

// extractFigures reads all raster images from the PDF with pdfcpu.
func extractFigures(pdfPath string) ([]figure, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.ExtractImagesRaw(f, nil, conf)
	if err != nil {
		return nil, err
	}

	var figs []figure
	for _, byObj := range pages {
		for _, img := range byObj {
			data, err := io.ReadAll(img)
			if err != nil || len(data) == 0 {
				continue
			}
			figs = append(figs, figure{
				Page:     img.PageNr,
				Name:     img.Name,
				MIMEType: imageMIMEType(img.FileType),
				Data:     data,
			})
		}
	}
	sort.SliceStable(figs, func(i, j int) bool {
		if figs[i].Page != figs[j].Page {
			return figs[i].Page < figs[j].Page
		}
		return figs[i].Name < figs[j].Name
	})
	return figs, nil
}

// figuresMarkdown renders figures as inline data-URI images.
func figuresMarkdown(figs []figure) string {
	if len(figs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n## Figures\n")
	for i, fig := range figs {
		fmt.Fprintf(&b, "\n![Figure %d (page %d)](data:%s;base64,%s)\n",
			i+1, fig.Page, fig.MIMEType, base64.StdEncoding.EncodeToString(fig.Data))
	}
	return b.String()
}

func imageMIMEType(fileType string) string {
	switch strings.ToLower(fileType) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tif", "tiff":
		return "image/tiff"
	case "jpx", "jp2":
		return "image/jp2"
	case "":
		return "image/png"
	default:
		return "image/" + strings.ToLower(fileType)
	}
}
