package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"assessment-backend/internal/models"
	"assessment-backend/internal/repository"
)

type documentGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Document, error)
}

// DocumentContentSource downloads a document from its source link and
// extracts plain text from PDF, DOCX or text payloads.
type DocumentContentSource struct {
	documents  documentGetter
	httpClient *http.Client
	maxBytes   int64
}

func NewDocumentContentSource(documents documentGetter, timeout time.Duration, maxBytes int) *DocumentContentSource {
	return &DocumentContentSource{
		documents:  documents,
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   int64(maxBytes),
	}
}

func (s *DocumentContentSource) GetContent(ctx context.Context, documentID int64) (string, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", &NotFoundError{Message: "Document not found"}
		}
		return "", fmt.Errorf("load document %d: %w", documentID, err)
	}
	if doc.SourceURL == "" {
		return "", &NotFoundError{Message: "Document has no content"}
	}

	data, contentType, err := s.download(ctx, doc.SourceURL)
	if err != nil {
		return "", err
	}

	return extractDocumentText(data, contentType, doc.SourceURL)
}

func (s *DocumentContentSource) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build content request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download document content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", &NotFoundError{Message: "Document content not found"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download document content: unexpected status %d", resp.StatusCode)
	}

	limit := s.maxBytes
	if limit <= 0 {
		limit = 50 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read document content: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("document content exceeds %d bytes", limit)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// documentKind picks an extractor from the content type, then the link's extension, then magic bytes.
func documentKind(data []byte, contentType, sourceURL string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "application/pdf":
			return "pdf"
		case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
			return "docx"
		case "text/plain", "text/markdown":
			return "txt"
		}
	}

	if u, err := url.Parse(sourceURL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".pdf":
			return "pdf"
		case ".docx":
			return "docx"
		case ".txt", ".md":
			return "txt"
		}
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return "pdf"
	}
	return "txt"
}

func extractDocumentText(data []byte, contentType, sourceURL string) (string, error) {
	switch documentKind(data, contentType, sourceURL) {
	case "pdf":
		return extractPDF(data)
	case "docx":
		return extractDOCX(data)
	default:
		text := normalizeExtractedText(string(data))
		if text == "" {
			return "", fmt.Errorf("text document is empty")
		}
		return text, nil
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	totalPage := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	text := normalizeExtractedText(b.String())
	if text == "" {
		return "", fmt.Errorf("no extractable text found in pdf")
	}

	return text, nil
}

func extractDOCX(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var documentXML []byte
	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		documentXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		break
	}

	if len(documentXML) == 0 {
		return "", fmt.Errorf("docx document.xml not found")
	}

	text := normalizeExtractedText(stripDOCXML(documentXML))
	if text == "" {
		return "", fmt.Errorf("no extractable text found in docx")
	}

	return text, nil
}

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

func stripDOCXML(src []byte) string {
	s := string(src)

	// Paragraphs and line breaks
	s = strings.ReplaceAll(s, "</w:p>", "\n")
	s = strings.ReplaceAll(s, "<w:br/>", "\n")
	s = strings.ReplaceAll(s, "<w:br />", "\n")
	s = strings.ReplaceAll(s, "<w:tab/>", "\t")

	s = xmlTagPattern.ReplaceAllString(s, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
	return replacer.Replace(s)
}

// normalizeExtractedText trims lines and collapses runs of blank lines.
func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var buf bytes.Buffer
	emptyCount := 0
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		emptyCount = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String())
}
