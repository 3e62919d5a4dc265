package extractor

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"docquery/internal/models"
)

// Extract converts an uploaded document into plain text, dispatching on the
// filename extension. A page or sheet that yields nothing logs a warning and
// contributes an empty string; only an unreadable container or an unknown
// extension is an error. The result may be empty - callers decide whether
// that is fatal.
func Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return extractPDF(filename, data)
	case ".docx":
		return extractDOCX(filename, data)
	case ".txt":
		return extractText(data), nil
	case ".md", ".markdown":
		return extractMarkdown(data), nil
	case ".xlsx":
		return extractXLSX(filename, data)
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}
}

func extractPDF(filename string, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: unreadable pdf: %v", models.ErrNoExtractableText, err)
	}

	var b strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			log.Warn().Str("file", filename).Int("page", i).Msg("missing page object")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Str("file", filename).Int("page", i).Msg("failed to extract page text")
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			log.Warn().Str("file", filename).Int("page", i).Msg("page has no extractable text")
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func extractDOCX(filename string, data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: unreadable docx: %v", models.ErrNoExtractableText, err)
	}
	defer r.Close()

	text := docParagraphs(r.Editable().GetContent())
	if strings.TrimSpace(text) == "" {
		log.Warn().Str("file", filename).Msg("docx has no paragraph text")
	}
	return text, nil
}

// docParagraphs rips the visible text out of a document.xml body: one line
// per <w:p> paragraph, the <w:t> runs inside a paragraph joined directly.
func docParagraphs(xmlContent string) string {
	var b strings.Builder
	for _, para := range strings.Split(xmlContent, "</w:p>") {
		text := runTexts(para)
		if strings.TrimSpace(text) == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

func runTexts(fragment string) string {
	var b strings.Builder
	rest := fragment
	for {
		idx := strings.Index(rest, "<w:t")
		if idx < 0 {
			break
		}
		rest = rest[idx+len("<w:t"):]
		// skip attribute forms like <w:t xml:space="preserve">, but not
		// other tags sharing the prefix (<w:tbl>, <w:tab/>)
		if len(rest) == 0 || (rest[0] != '>' && rest[0] != ' ') {
			continue
		}
		gt := strings.Index(rest, ">")
		if gt < 0 {
			break
		}
		rest = rest[gt+1:]
		end := strings.Index(rest, "</w:t>")
		if end < 0 {
			break
		}
		b.WriteString(rest[:end])
		rest = rest[end:]
	}
	return b.String()
}

func extractText(data []byte) string {
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// extractMarkdown strips markdown syntax by walking the parsed AST and
// keeping only text content.
func extractMarkdown(data []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(gtext.NewReader(data))

	var b strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			switch t := n.(type) {
			case *ast.Text:
				b.Write(t.Segment.Value(data))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte('\n')
				}
			case *ast.CodeBlock:
				writeLines(&b, data, t.Lines())
			case *ast.FencedCodeBlock:
				writeLines(&b, data, t.Lines())
			}
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeBlock {
			b.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func writeLines(b *strings.Builder, data []byte, lines *gtext.Segments) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(data))
	}
}

func extractXLSX(filename string, data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: unreadable xlsx: %v", models.ErrNoExtractableText, err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			log.Warn().Err(err).Str("file", filename).Str("sheet", sheet).Msg("failed to read sheet")
			continue
		}
		b.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet))
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
