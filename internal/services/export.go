package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"ahgapi/internal/config"
	"ahgapi/internal/models"
	"ahgapi/internal/utils/logger"
)

// ExportService renders favorite lists into interchange formats and,
// when a PDF renderer is configured, print-ready documents.
type ExportService struct {
	cfg    *config.Config
	client *http.Client
	logger *logger.Logger
}

func NewExportService(cfg *config.Config) *ExportService {
	timeout := time.Duration(cfg.Export.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExportService{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.New("EXPORT"),
	}
}

// CSV renders favorites as a spreadsheet with a header row.
func (s *ExportService) CSV(favorites []models.Favorite) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Title", "Reference Code", "Slug", "Type", "URL", "Notes", "Added"}); err != nil {
		return nil, err
	}
	for _, f := range favorites {
		row := []string{
			f.Title,
			f.ReferenceCode,
			f.Slug,
			string(f.ObjectType),
			f.CustomURL,
			f.Notes,
			f.CreatedAt.Format("2006-01-02"),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// JSON renders favorites as a JSON array.
func (s *ExportService) JSON(favorites []models.Favorite) ([]byte, error) {
	return json.MarshalIndent(favorites, "", "  ")
}

// BibTeX renders favorites as @misc entries keyed by slug.
func (s *ExportService) BibTeX(favorites []models.Favorite) []byte {
	var buf bytes.Buffer
	for i, f := range favorites {
		key := f.Slug
		if key == "" {
			key = fmt.Sprintf("item%d", i+1)
		}
		buf.WriteString(fmt.Sprintf("@misc{%s,\n", key))
		buf.WriteString(fmt.Sprintf("  title = {%s},\n", bibEscape(f.Title)))
		if f.ReferenceCode != "" {
			buf.WriteString(fmt.Sprintf("  note = {Reference: %s},\n", bibEscape(f.ReferenceCode)))
		}
		if f.CustomURL != "" {
			buf.WriteString(fmt.Sprintf("  howpublished = {\\url{%s}},\n", f.CustomURL))
		}
		buf.WriteString(fmt.Sprintf("  year = {%d}\n", f.CreatedAt.Year()))
		buf.WriteString("}\n\n")
	}
	return buf.Bytes()
}

// RIS renders favorites in RIS interchange format.
func (s *ExportService) RIS(favorites []models.Favorite) []byte {
	var buf bytes.Buffer
	for _, f := range favorites {
		buf.WriteString("TY  - GEN\r\n")
		buf.WriteString("TI  - " + f.Title + "\r\n")
		if f.ReferenceCode != "" {
			buf.WriteString("CN  - " + f.ReferenceCode + "\r\n")
		}
		if f.CustomURL != "" {
			buf.WriteString("UR  - " + f.CustomURL + "\r\n")
		}
		buf.WriteString("DA  - " + f.CreatedAt.Format("2006/01/02") + "\r\n")
		buf.WriteString("ER  - \r\n")
	}
	return buf.Bytes()
}

// PrintHTML renders a standalone print view of a favorites list.
func (s *ExportService) PrintHTML(title string, favorites []models.Favorite) []byte {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	buf.WriteString("<meta charset=\"utf-8\">\n")
	buf.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	buf.WriteString("<style>body{font-family:serif;margin:2em}table{border-collapse:collapse;width:100%}td,th{border:1px solid #ccc;padding:4px 8px;text-align:left}</style>\n")
	buf.WriteString("</head>\n<body>\n")
	buf.WriteString("<h1>" + html.EscapeString(title) + "</h1>\n")
	buf.WriteString(fmt.Sprintf("<p>%d items, exported %s</p>\n", len(favorites), time.Now().Format("2 January 2006")))
	buf.WriteString("<table>\n<tr><th>Title</th><th>Reference</th><th>Notes</th></tr>\n")
	for _, f := range favorites {
		buf.WriteString("<tr><td>" + html.EscapeString(f.Title) + "</td><td>" +
			html.EscapeString(f.ReferenceCode) + "</td><td>" +
			html.EscapeString(f.Notes) + "</td></tr>\n")
	}
	buf.WriteString("</table>\n</body>\n</html>\n")
	return buf.Bytes()
}

// PDF sends the print HTML to the external rendering service and
// returns the PDF bytes. Callers should fall back to HTML when no
// renderer is configured.
func (s *ExportService) PDF(ctx context.Context, title string, favorites []models.Favorite) ([]byte, error) {
	if s.cfg.Export.PdfServiceURL == "" {
		return nil, fmt.Errorf("no PDF rendering service configured")
	}

	payload, err := json.Marshal(map[string]string{
		"html": string(s.PrintHTML(title, favorites)),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Export.PdfServiceURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, s.logger.Error("PDF rendering request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PDF service returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func bibEscape(s string) string {
	replacer := strings.NewReplacer("{", "\\{", "}", "\\}", "&", "\\&", "%", "\\%")
	return replacer.Replace(s)
}
