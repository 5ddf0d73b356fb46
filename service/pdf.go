package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OlogyCrew/ologywoodv3/config"
	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/go-pdf/fpdf"
)

// PDFDocument is everything printed on a contract document.
type PDFDocument struct {
	ContractID    string
	Status        model.Status
	VersionNumber int
	Snapshot      model.Snapshot
	// CreatedAt is the snapshot time; it is also written as the document
	// creation date so identical input renders identical output.
	CreatedAt  time.Time
	ArtistName string
	VenueName  string
}

// Filename is the suggested download name.
func (d PDFDocument) Filename() string {
	if d.VersionNumber > 0 {
		return fmt.Sprintf("contract-%s-v%d.pdf", d.ContractID, d.VersionNumber)
	}
	return fmt.Sprintf("contract-%s.pdf", d.ContractID)
}

// PDFRenderer draws contract documents. It holds no state between calls.
type PDFRenderer struct {
	brand      string
	tagline    string
	disclaimer string
}

func NewPDFRenderer(cfg *config.PDFConfig) *PDFRenderer {
	return &PDFRenderer{
		brand:      cfg.Brand,
		tagline:    cfg.Tagline,
		disclaimer: cfg.Disclaimer,
	}
}

const (
	pdfMargin     = 50.0
	pdfFooterRoom = 70.0
)

// Render produces an A4 document for doc.
func (r *PDFRenderer) Render(doc PDFDocument) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfFooterRoom)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.CreatedAt)
	pdf.AliasNbPages("{nb}")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(doc.Snapshot.Title), false)
	pdf.SetCreator(tr(r.brand), false)

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin

	pdf.SetFooterFunc(func() {
		pdf.SetY(pageH - 50)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(contentW, 10, tr(r.disclaimer), "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW, 12, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 20, tr(r.brand), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 14, tr(r.tagline), "", 1, "L", false, 0, "")
	pdf.Line(pdfMargin, 100, pageW-pdfMargin, 100)
	pdf.SetY(115)

	pdf.SetFont("Helvetica", "B", 24)
	pdf.MultiCell(contentW, 28, tr(doc.Snapshot.Title), "", "C", false)
	pdf.Ln(8)

	r.metadata(pdf, tr, doc)
	pdf.Ln(14)

	if doc.Snapshot.Description != "" {
		r.section(pdf, tr, contentW, "Description", doc.Snapshot.Description, 11)
	}
	if doc.Snapshot.Terms != "" {
		r.section(pdf, tr, contentW, "Terms & Conditions", doc.Snapshot.Terms, 10)
		pdf.Ln(8)
	}

	r.signatures(pdf, contentW)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render contract pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) metadata(pdf *fpdf.Fpdf, tr func(string) string, doc PDFDocument) {
	rows := [][2]string{
		{"Contract ID", "#" + doc.ContractID},
		{"Type", doc.Snapshot.ContractType},
		{"Status", string(doc.Status)},
		{"Created", doc.CreatedAt.Format("January 2, 2006")},
	}
	if doc.VersionNumber > 0 {
		rows = append(rows, [2]string{"Version", fmt.Sprintf("%d", doc.VersionNumber)})
	}
	if doc.ArtistName != "" {
		rows = append(rows, [2]string{"Artist", doc.ArtistName})
	}
	if doc.VenueName != "" {
		rows = append(rows, [2]string{"Venue", doc.VenueName})
	}

	for _, row := range rows {
		label := row[0] + ": "
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(pdf.GetStringWidth(label), 14, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 14, tr(row[1]), "", 1, "L", false, 0, "")
	}
}

func (r *PDFRenderer) section(pdf *fpdf.Fpdf, tr func(string) string, w float64, heading, body string, size float64) {
	pdf.SetFont("Helvetica", "BU", 12)
	pdf.CellFormat(w, 18, heading, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", size)
	pdf.MultiCell(w, size+3, tr(strings.ReplaceAll(body, "\r\n", "\n")), "", "L", false)
	pdf.Ln(6)
}

func (r *PDFRenderer) signatures(pdf *fpdf.Fpdf, w float64) {
	pdf.SetFont("Helvetica", "BU", 12)
	pdf.CellFormat(w, 18, "Signatures", "", 1, "L", false, 0, "")
	pdf.Ln(10)

	for _, label := range []string{"Artist Signature:", "Venue Representative Signature:"} {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(w, 14, label, "", 1, "L", false, 0, "")
		y := pdf.GetY() + 24
		pdf.Line(pdfMargin, y, pdfMargin+200, y)
		pdf.SetY(y + 10)
		pdf.CellFormat(w, 14, "Date: _______________", "", 1, "L", false, 0, "")
		pdf.Ln(16)
	}
}

// PDFExporter renders the current or a historical version of a contract.
type PDFExporter struct {
	store    *ContractStore
	users    *UserStore
	renderer *PDFRenderer
}

func NewPDFExporter(store *ContractStore, users *UserStore, renderer *PDFRenderer) *PDFExporter {
	return &PDFExporter{store: store, users: users, renderer: renderer}
}

// Contract renders the contract's current content.
func (e *PDFExporter) Contract(ctx context.Context, actor model.Actor, id string) ([]byte, PDFDocument, error) {
	c, err := loadForRead(ctx, e.store, actor, id)
	if err != nil {
		return nil, PDFDocument{}, err
	}
	return e.render(ctx, c)
}

func (e *PDFExporter) render(ctx context.Context, c *model.Contract) ([]byte, PDFDocument, error) {
	doc := e.document(ctx, c)
	if v, err := e.store.LatestVersion(ctx, c.ID); err == nil {
		doc.VersionNumber = v.VersionNumber
		doc.CreatedAt = v.CreatedAt
	}
	out, err := e.renderer.Render(doc)
	return out, doc, err
}

// Version renders a historical snapshot of the contract.
func (e *PDFExporter) Version(ctx context.Context, actor model.Actor, id string, number int) ([]byte, PDFDocument, error) {
	c, err := loadForRead(ctx, e.store, actor, id)
	if err != nil {
		return nil, PDFDocument{}, err
	}
	v, err := e.store.GetVersion(ctx, id, number)
	if err != nil {
		return nil, PDFDocument{}, err
	}
	doc := e.document(ctx, c)
	doc.Snapshot = v.Snapshot()
	doc.VersionNumber = v.VersionNumber
	doc.CreatedAt = v.CreatedAt
	out, err := e.renderer.Render(doc)
	return out, doc, err
}

func (e *PDFExporter) document(ctx context.Context, c *model.Contract) PDFDocument {
	return PDFDocument{
		ContractID: c.ID,
		Status:     c.Status,
		Snapshot:   c.Snapshot(),
		CreatedAt:  c.CreatedAt,
		ArtistName: e.partyName(ctx, c.ArtistID),
		VenueName:  e.partyName(ctx, c.VenueID),
	}
}

func (e *PDFExporter) partyName(ctx context.Context, id *string) string {
	if id == nil {
		return ""
	}
	if e.users != nil {
		if u, err := e.users.Get(ctx, *id); err == nil && u.Name != "" {
			return u.Name
		}
	}
	return *id
}
