package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chrisminnick/starboard2/internal/lib/prose"
	"github.com/chrisminnick/starboard2/internal/models"
	"github.com/chrisminnick/starboard2/internal/objectstore"
)

// Export formats.
const (
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

var (
	// ErrUnsupportedFormat is returned for an export format other than markdown or txt.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrStorageDisabled is returned by Archive when no object storage is configured.
	ErrStorageDisabled = errors.New("export archive storage is not configured")
)

// ExportResult is a rendered export ready to be sent as an attachment.
type ExportResult struct {
	Data     []byte
	Filename string
	MimeType string
}

// Render builds the export of p in format.
func Render(p *models.Project, format string) (*ExportResult, error) {
	switch format {
	case FormatMarkdown:
		return &ExportResult{
			Data:     []byte(p.Content),
			Filename: p.Title + ".md",
			MimeType: "text/markdown",
		}, nil
	case FormatText:
		return &ExportResult{
			Data:     []byte(prose.StripTags(p.Content)),
			Filename: p.Title + ".txt",
			MimeType: "text/plain",
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func extension(format string) string {
	if format == FormatMarkdown {
		return "md"
	}
	return format
}

// Export renders the owner's project in format.
func (s *ProjectService) Export(ctx context.Context, ownerID, projectID, format string) (*ExportResult, error) {
	const op = "services.project.Export"
	if format != FormatMarkdown && format != FormatText {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	p, err := s.repo.GetProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return Render(p, format)
}

// Archive renders the export and uploads it to object storage, returning
// the object key and a short-lived download link.
func (s *ProjectService) Archive(ctx context.Context, ownerID, projectID, format string) (*objectstore.Object, error) {
	const op = "services.project.Archive"
	if s.archive == nil {
		return nil, ErrStorageDisabled
	}
	result, err := s.Export(ctx, ownerID, projectID, format)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/%s/%s/%d.%s", ownerID, projectID, s.now().UTC().Unix(), extension(format))
	obj, err := s.archive.Upload(ctx, key, result.Filename, result.MimeType, result.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("archived export", slog.String("project_id", projectID), slog.String("key", key))
	return obj, nil
}
