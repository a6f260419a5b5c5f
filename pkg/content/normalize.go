package content

import (
	"strings"

	"github.com/Sternrassler/cms-client/pkg/asseturl"
)

// pdfFieldPriority lists, per upper-cased record type, the custom fields
// searched for the PDF path. Unlisted types use defaultPDFFields.
var pdfFieldPriority = map[string][]string{
	"GAMEHEARTS_PUBLICATION": {"publication_pdf", "pdfPath"},
	"REPORT":                 {"publication_pdf", "pdfPath"},
	"EXTERNAL_PUBLICATION":   {"pdf", "pdfPath"},
}

var defaultPDFFields = []string{"pdfPath"}

// PDFFields returns the custom field names consulted for the PDF path of
// recordType, in priority order.
func PDFFields(recordType string) []string {
	if fields, ok := pdfFieldPriority[strings.ToUpper(recordType)]; ok {
		return fields
	}
	return defaultPDFFields
}

// Normalize projects rec into the fixed Normalized shape, resolving image and
// PDF references through r.
func Normalize(rec Record, r asseturl.Resolver) Normalized {
	f := rec.CustomFields

	return Normalized{
		ID:              rec.ID,
		Title:           f.StringOr("title", rec.Title),
		Text:            f.StringOr("text", rec.Text),
		Type:            rec.Type,
		InsideImage:     r.ResolvePtr(f.String("insideImage")),
		OutsideImage:    r.ResolvePtr(f.String("outsideImage")),
		PDFPath:         r.ResolvePtr(f.FirstString(PDFFields(rec.Type)...)),
		References:      f.FirstString("referencesList", "references"),
		Citation:        f.String("citation"),
		Abstract:        f.FirstString("abstractText", "abstract"),
		Team:            f.String("team"),
		PublicationType: f.String("publicationType"),
		Fake:            fakeFlag(f),
	}
}

// fakeFlag is true only for a literal boolean true. False and absent are
// both reported as nil.
func fakeFlag(f CustomFields) *bool {
	if v := f.Bool("fake"); v != nil && *v {
		return v
	}
	return nil
}
