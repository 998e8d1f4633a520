package service

import (
	"context"
	"time"

	"github.com/suryasblaze/be-stock-recon/internal/client"
	"github.com/suryasblaze/be-stock-recon/internal/docparse"
	"github.com/suryasblaze/be-stock-recon/internal/errors"
	"github.com/suryasblaze/be-stock-recon/internal/logger"
	"github.com/suryasblaze/be-stock-recon/internal/match"
)

// signedURLTTL bounds how long a document download link stays valid.
const signedURLTTL = 15 * time.Minute

// DocumentService turns raw delivery slips and invoices into structured,
// catalog-matched line items ready for review.
type DocumentService struct {
	extractor client.ExtractorClientInterface
	storage   client.ObjectStorage
	inventory InventoryStore
	matcher   *match.Matcher
	log       *logger.Logger
}

// NewDocumentService creates a new DocumentService. extractor and storage
// may be nil when the deployment runs without those collaborators; the
// text-only path still works.
func NewDocumentService(extractor client.ExtractorClientInterface, storage client.ObjectStorage, inventory InventoryStore, log *logger.Logger) *DocumentService {
	return &DocumentService{
		extractor: extractor,
		storage:   storage,
		inventory: inventory,
		matcher:   match.New(),
		log:       log,
	}
}

// ParseText structures already-extracted text and matches each line against
// the catalog. Parsing is best-effort and never fails; an unreadable
// document yields an empty result the operator fills in by hand.
func (s *DocumentService) ParseText(ctx context.Context, rawText string) (docparse.ParsedDocument, error) {
	doc := docparse.Parse(rawText)
	return s.matchLines(ctx, doc)
}

// ProcessImageRequest describes a slip or invoice image to extract.
type ProcessImageRequest struct {
	ImageData   []byte
	ContentType string
	StorePrefix string // object path prefix, e.g. "urgent-slips"
	Filename    string
	Structured  bool // use the extractor's structured endpoint
}

// ProcessImageResult is the stored and structured outcome of an extraction.
type ProcessImageResult struct {
	Document   docparse.ParsedDocument
	ObjectPath string
}

// ProcessImage uploads the image, runs OCR extraction, and structures and
// matches the result. Upload failures abort; a stored-but-unparsed image is
// recoverable, a parsed-but-lost image is not.
func (s *DocumentService) ProcessImage(ctx context.Context, req ProcessImageRequest) (*ProcessImageResult, error) {
	if s.extractor == nil {
		return nil, errors.New(errors.ErrCodeExternal, "document extraction is not configured")
	}
	if len(req.ImageData) == 0 {
		return nil, errors.InvalidInput("image", "is required")
	}

	var objectPath string
	if s.storage != nil {
		objectPath = client.ObjectPath(req.StorePrefix, req.Filename)
		if _, err := s.storage.Upload(ctx, req.ImageData, objectPath, req.ContentType); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeExternal, "failed to store document image")
		}
	}

	var doc docparse.ParsedDocument
	if req.Structured {
		structured, err := s.extractor.ExtractStructured(ctx, req.ImageData, req.ContentType)
		if err != nil {
			return nil, err
		}
		doc = docparse.FromStructured(*structured)
	} else {
		text, err := s.extractor.Extract(ctx, req.ImageData, req.ContentType)
		if err != nil {
			return nil, err
		}
		doc = docparse.Parse(text)
	}

	doc, err := s.matchLines(ctx, doc)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("object_path", objectPath).
		Int("line_count", len(doc.Items)).
		Msg("Document processed")

	return &ProcessImageResult{Document: doc, ObjectPath: objectPath}, nil
}

// MatchDescription matches a free-text description against the catalog.
func (s *DocumentService) MatchDescription(ctx context.Context, description string) (*match.Result, error) {
	if description == "" {
		return nil, errors.InvalidInput("description", "is required")
	}

	catalog, err := s.inventory.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}

	res := s.matcher.Match(description, catalog)
	return &res, nil
}

// SignedURL returns a short-lived download link for a stored document.
func (s *DocumentService) SignedURL(objectPath string) (string, error) {
	if s.storage == nil {
		return "", errors.New(errors.ErrCodeExternal, "object storage is not configured")
	}
	if objectPath == "" {
		return "", errors.InvalidInput("object_path", "is required")
	}
	return s.storage.SignedDownloadURL(objectPath, signedURLTTL)
}

// matchLines runs the catalog matcher over every parsed line. A matcher
// miss leaves the line unmatched for manual correction.
func (s *DocumentService) matchLines(ctx context.Context, doc docparse.ParsedDocument) (docparse.ParsedDocument, error) {
	if len(doc.Items) == 0 {
		return doc, nil
	}

	catalog, err := s.inventory.ListCatalog(ctx)
	if err != nil {
		return doc, err
	}

	for i := range doc.Items {
		res := s.matcher.Match(doc.Items[i].Description, catalog)
		if !res.Matched {
			continue
		}
		doc, err = docparse.ApplyMatch(doc, i, res.ItemID, res.Name, res.Confidence)
		if err != nil {
			return doc, err
		}
	}
	return doc, nil
}
