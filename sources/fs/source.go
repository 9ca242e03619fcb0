package sourcefs

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

// Provider loads print source files from disk. Kiosks point it at a
// watched drop folder or a USB mount.
type Provider struct {
	// Path is the file to load. Required.
	Path string

	// ContentType overrides extension sniffing when set.
	ContentType string

	// MaxBytes rejects files above the limit. Zero means no limit.
	MaxBytes int64
}

// NewProvider creates a filesystem SourceProvider for path.
func NewProvider(path string) *Provider {
	return &Provider{Path: path}
}

// Load reads the file into memory. Render and print both need the full
// payload for the multipart round trip, so there is no streaming variant.
func (p *Provider) Load(ctx context.Context) (blueprint.SourceFile, error) {
	if p == nil || strings.TrimSpace(p.Path) == "" {
		return blueprint.SourceFile{}, blueprint.NewError(blueprint.KindValidation, "source path is required", nil)
	}
	if err := ctx.Err(); err != nil {
		return blueprint.SourceFile{}, err
	}

	path := filepath.Clean(p.Path)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return blueprint.SourceFile{}, blueprint.NewError(blueprint.KindNotFound, "source file not found: "+path, err)
		}
		return blueprint.SourceFile{}, blueprint.NewError(blueprint.KindExternal, "stat source file failed", err)
	}
	if info.IsDir() {
		return blueprint.SourceFile{}, blueprint.NewError(blueprint.KindValidation, "source path is a directory: "+path, nil)
	}
	if p.MaxBytes > 0 && info.Size() > p.MaxBytes {
		return blueprint.SourceFile{}, blueprint.NewError(blueprint.KindValidation, "source file exceeds size limit", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return blueprint.SourceFile{}, blueprint.NewError(blueprint.KindExternal, "read source file failed", err)
	}

	contentType := p.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}

	return blueprint.SourceFile{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
