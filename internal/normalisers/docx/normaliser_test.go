package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// createTestDOCX creates a minimal DOCX package in memory.
func createTestDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	write := func(name, body string) {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	write("[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`)
	if documentXML != "" {
		write("word/document.xml", documentXML)
	}
	if coreXML != "" {
		write("docProps/core.xml", coreXML)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func body(inner string) string {
	return `<?xml version="1.0"?><w:document ` + wordNS + `><w:body>` + inner + `</w:body></w:document>`
}

func normalise(t *testing.T, content []byte) (*domain.Document, error) {
	t.Helper()
	res, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI: "/docs/status_report.docx", MIMEType: MIMEType, Content: content,
	})
	if err != nil {
		return nil, err
	}
	return &res.Document, nil
}

func TestNormalise_ParagraphsAndRuns(t *testing.T) {
	xml := body(`<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>world</w:t></w:r></w:p>` +
		`<w:p/>` +
		`<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>line</w:t></w:r></w:p>`)

	doc, err := normalise(t, createTestDOCX(t, xml, ""))
	require.NoError(t, err)
	assert.Equal(t, "Hello world\nSecond\tline", doc.Content)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "status report", doc.Title)
	assert.Equal(t, "docx", doc.Metadata["format"])
}

func TestNormalise_Tables(t *testing.T) {
	xml := body(`<w:tbl>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Area</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Status</w:t></w:r></w:p></w:tc></w:tr>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Payments</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>At Risk</w:t></w:r></w:p></w:tc></w:tr>` +
		`</w:tbl>`)

	doc, err := normalise(t, createTestDOCX(t, xml, ""))
	require.NoError(t, err)
	assert.Equal(t, "Area \tStatus\nPayments \tAt Risk", doc.Content)
}

func TestNormalise_CoreTitle(t *testing.T) {
	core := `<?xml version="1.0"?><cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title> Q3 Review </dc:title></cp:coreProperties>`
	doc, err := normalise(t, createTestDOCX(t, body(`<w:p><w:r><w:t>x</w:t></w:r></w:p>`), core))
	require.NoError(t, err)
	assert.Equal(t, "Q3 Review", doc.Title)
}

func TestNormalise_Errors(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = normalise(t, []byte("not a zip"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = normalise(t, createTestDOCX(t, "", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_Empty(t *testing.T) {
	doc, err := normalise(t, createTestDOCX(t, body(""), ""))
	require.NoError(t, err)
	assert.Empty(t, doc.Sections)
	assert.Empty(t, doc.Content)
}
