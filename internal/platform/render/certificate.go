package render

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/missions-backend/internal/platform/logger"
)

// Canvas size in pixels: A4 landscape at 150 dpi.
const (
	canvasW = 1754
	canvasH = 1240

	pageWmm = 297.0
	pageHmm = 210.0
)

// CertificateData is everything printed on a certificate.
type CertificateData struct {
	RecipientName     string
	RecipientEmail    string
	JourneyName       string
	JourneyTitle      string
	CertificateNumber string
	VerificationCode  string
	IssuedAt          time.Time
	CompletedMissions int
	TotalPoints       int
	VerifyURL         string
}

type CertificateRenderer interface {
	RenderCertificate(ctx context.Context, data CertificateData) ([]byte, error)
}

type certificateRenderer struct {
	log     *logger.Logger
	regular *truetype.Font
	bold    *truetype.Font
	italic  *truetype.Font
}

func NewCertificateRenderer(log *logger.Logger) (CertificateRenderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	italic, err := truetype.Parse(goitalic.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse italic font: %w", err)
	}
	return &certificateRenderer{
		log:     log.With("service", "CertificateRenderer"),
		regular: regular,
		bold:    bold,
		italic:  italic,
	}, nil
}

type renderResult struct {
	pdf []byte
	err error
}

// RenderCertificate draws the certificate and wraps it in a one-page PDF.
// It returns ctx.Err() if ctx ends first; the drawing goroutine then
// finishes on its own and its result is dropped.
func (r *certificateRenderer) RenderCertificate(ctx context.Context, data CertificateData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := make(chan renderResult, 1)
	go func() {
		png, err := r.drawPNG(data)
		if err != nil {
			done <- renderResult{err: err}
			return
		}
		pdf, err := wrapPDF(png, data)
		done <- renderResult{pdf: pdf, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.pdf, res.err
	}
}

func (r *certificateRenderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
}

func (r *certificateRenderer) drawPNG(data CertificateData) ([]byte, error) {
	accent := JourneyColor(data.JourneyName)
	ink := mustHex("#1e293b")
	muted := mustHex("#64748b")

	dc := gg.NewContext(canvasW, canvasH)
	grad := gg.NewLinearGradient(0, 0, canvasW, canvasH)
	grad.AddColorStop(0, mustHex("#f8fafc"))
	grad.AddColorStop(1, mustHex("#e2e8f0"))
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, canvasW, canvasH)
	dc.Fill()

	margin := 60.0
	dc.SetColor(color.White)
	dc.DrawRoundedRectangle(margin, margin, canvasW-2*margin, canvasH-2*margin, 32)
	dc.FillPreserve()
	dc.SetColor(accent)
	dc.SetLineWidth(6)
	dc.Stroke()

	cx := float64(canvasW) / 2
	text := func(f *truetype.Font, size float64, c color.Color, s string, y float64) {
		dc.SetFontFace(r.face(f, size))
		dc.SetColor(c)
		dc.DrawStringAnchored(s, cx, y, 0.5, 0.5)
	}

	text(r.bold, 46, accent, "VIBE CODING ACADEMY", 170)
	text(r.regular, 72, ink, "Certificado de Finalización", 260)
	text(r.regular, 32, muted, "Programa de Formación Profesional", 330)

	text(r.regular, 28, muted, "Se certifica que", 430)
	text(r.italic, 84, ink, fitText(data.RecipientName, 48), 520)
	text(r.regular, 28, muted, "ha completado satisfactoriamente el programa", 610)

	bandW, bandH := 900.0, 90.0
	dc.SetColor(accent)
	dc.DrawRoundedRectangle(cx-bandW/2, 650, bandW, bandH, 16)
	dc.Fill()
	text(r.bold, 40, color.White, fitText(data.JourneyTitle, 40), 650+bandH/2)
	text(r.bold, 32, accent, "Nivel "+data.JourneyName, 790)

	statY := 900.0
	stats := []struct {
		value string
		label string
	}{
		{strconv.Itoa(data.CompletedMissions), "Misiones Completadas"},
		{strconv.Itoa(data.TotalPoints), "Puntos Obtenidos"},
		{SpanishLongDate(data.IssuedAt), "Fecha de Emisión"},
	}
	for i, st := range stats {
		x := cx + float64(i-1)*420
		dc.SetFontFace(r.face(r.bold, 48))
		dc.SetColor(accent)
		dc.DrawStringAnchored(st.value, x, statY, 0.5, 0.5)
		dc.SetFontFace(r.face(r.regular, 22))
		dc.SetColor(muted)
		dc.DrawStringAnchored(st.label, x, statY+55, 0.5, 0.5)
	}

	dc.SetColor(mustHex("#e2e8f0"))
	dc.SetLineWidth(2)
	dc.DrawLine(margin+80, 1040, canvasW-margin-80, 1040)
	dc.Stroke()

	dc.SetFontFace(r.face(r.regular, 22))
	dc.SetColor(muted)
	dc.DrawStringAnchored("Certificado N°: "+data.CertificateNumber, margin+100, 1090, 0, 0.5)
	dc.DrawStringAnchored("Verificar en: "+displayURL(data.VerifyURL), canvasW-margin-100, 1090, 1, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode certificate png: %w", err)
	}
	return buf.Bytes(), nil
}

func wrapPDF(png []byte, data CertificateData) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Certificado "+data.CertificateNumber, true)
	pdf.SetAuthor("Vibe Coding Academy", true)
	pdf.SetSubject(data.JourneyTitle, true)
	pdf.SetKeywords(data.CertificateNumber+" "+data.VerificationCode, true)
	pdf.SetCreationDate(data.IssuedAt)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("certificate", opts, bytes.NewReader(png))
	pdf.ImageOptions("certificate", 0, 0, pageWmm, pageHmm, false, opts, 0, "")
	if u := strings.TrimSpace(data.VerifyURL); u != "" {
		pdf.LinkString(pageWmm/2, 180, pageWmm/2-10, 12, u)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// JourneyColor is the accent colour for a journey level.
func JourneyColor(journeyName string) color.Color {
	switch journeyName {
	case "Básico":
		return mustHex("#0891b2")
	case "Intermedio":
		return mustHex("#7c3aed")
	default:
		return mustHex("#f59e0b")
	}
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// SpanishLongDate formats t as "15 de octubre de 2026".
func SpanishLongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

func displayURL(u string) string {
	u = strings.TrimPrefix(strings.TrimSpace(u), "https://")
	return strings.TrimPrefix(u, "http://")
}

func fitText(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func mustHex(h string) color.Color {
	c, err := parseHex(h)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(h string) (color.RGBA, error) {
	h = strings.TrimPrefix(strings.TrimSpace(h), "#")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("bad hex colour %q", h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad hex colour %q: %w", h, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
