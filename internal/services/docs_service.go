package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"trainticket/internal/domain"
	"trainticket/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocumentFilename is fixed; the client always receives the ticket under
// this name.
const DocumentFilename = "pdfdoc.pdf"

// Saver receives the finished document bytes and stages them for the
// client-initiated download.
type Saver interface {
	Save(name string, data []byte) error
}

// DirSaver stages documents on disk, where the download handler serves them
// from.
type DirSaver struct {
	Dir string
}

func (s DirSaver) Save(name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Dir, filepath.Base(name)), data, 0o644)
}

// DocsService produces the downloadable ticket PDF. The builder is resolved
// on first use and cached, so constructing the service stays cheap; Build is
// injectable for tests.
type DocsService struct {
	Saver     Saver
	RequestID string
	Build     func(domain.TicketDocumentData, []string) ([]byte, error)

	once sync.Once
}

func (s *DocsService) BuildAndSave(data domain.TicketDocumentData, images []string) error {
	s.once.Do(func() {
		if s.Build == nil {
			s.Build = buildTicketPDF
		}
	})
	pdfBytes, err := s.Build(data, images)
	if err != nil {
		return domain.InternalError{Msg: "build ticket document", Err: err}
	}
	utils.LogEvent(s.RequestID, "docs", "build_ticket", fmt.Sprintf("bytes=%d images=%d", len(pdfBytes), len(images)))
	if s.Saver == nil {
		return domain.InternalError{Msg: "no document saver configured"}
	}
	if err := s.Saver.Save(DocumentFilename, pdfBytes); err != nil {
		return domain.InternalError{Msg: "save ticket document", Err: err}
	}
	return nil
}

func buildTicketPDF(d domain.TicketDocumentData, images []string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(safe(d.Title, "Personal Doc"), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, safe(d.Title, "Personal Doc"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Name     : %s", safe(d.Name, "-")),
		fmt.Sprintf("Location : %s", safe(d.Location, "-")),
		fmt.Sprintf("Date     : %s", safe(d.Date, "-")),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	for i, img := range images {
		raw, err := decodeImageDataURL(img)
		if err != nil {
			return nil, fmt.Errorf("embed capture %d: %w", i, err)
		}
		name := fmt.Sprintf("capture_%d", i)
		opts := gofpdf.ImageOptions{ImageType: "JPEG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(raw))
		pdf.ImageOptions(name, 20, pdf.GetY()+2, 170, 0, true, opts, 0, "")
		pdf.Ln(4)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "This document is the proof of booking for 1 passenger. Present it at boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeImageDataURL(v string) ([]byte, error) {
	idx := strings.Index(v, ",")
	if idx < 0 {
		return nil, fmt.Errorf("not a data URL")
	}
	return base64.StdEncoding.DecodeString(v[idx+1:])
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
