package pdfinfo

import (
	"bytes"
	"context"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Inspector extracts page counts from loaded files with pdfcpu. Non-PDF
// sources are single-page by definition.
type Inspector struct {
	// Strict turns off relaxed validation. Scans and phone exports are
	// frequently sloppy PDFs, so the default tolerates them.
	Strict bool
}

// New creates a relaxed-validation inspector.
func New() *Inspector {
	return &Inspector{}
}

// Inspect returns file metadata for the session. A file that declares
// itself PDF but does not parse is rejected here rather than failing the
// first render round trip.
func (i *Inspector) Inspect(ctx context.Context, file blueprint.SourceFile) (blueprint.FileInfo, error) {
	info := blueprint.FileInfo{
		Name:        file.Name,
		ContentType: file.DeclaredType(),
		IsPDF:       file.IsPDF(),
		Pages:       1,
		Bytes:       len(file.Data),
	}
	if !info.IsPDF {
		return info, nil
	}
	if err := ctx.Err(); err != nil {
		return blueprint.FileInfo{}, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if i != nil && i.Strict {
		conf.ValidationMode = model.ValidationStrict
	}

	pages, err := api.PageCount(bytes.NewReader(file.Data), conf)
	if err != nil {
		return blueprint.FileInfo{}, blueprint.NewError(blueprint.KindUnsupportedMedia, "file is not a readable PDF", err)
	}
	info.Pages = pages
	return info, nil
}
