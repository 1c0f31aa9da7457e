// Package cbosa implements the retrieval engine for CBOSA, the Polish
// Central Database of Administrative Court Judgments. The portal exposes
// no API, only an HTML search form and paginated HTML listings, so the
// engine submits form queries, walks result pages and downloads judgment
// documents through a single cookie-bearing session.
package cbosa

// SearchQuery maps semantic field names ("keywords", "court", "date_from"...)
// to string values. Unknown keys are ignored by the query builder.
type SearchQuery map[string]string

// CaseRecord is one case found in the result listings. Identity is the URL;
// Signature is the court citation string when it could be extracted, empty
// otherwise.
type CaseRecord struct {
	URL       string `json:"url"`
	Signature string `json:"signature,omitempty"`
}

// DocumentFormat is the sniffed format of a downloaded judgment document.
type DocumentFormat string

// Formats recognized by magic-byte sniffing. Anything else is FormatUnknown
// and saved as plain text.
const (
	FormatPDF     DocumentFormat = "pdf"
	FormatRTF     DocumentFormat = "rtf"
	FormatUnknown DocumentFormat = "unknown"
)

// Extension returns the file extension used when persisting a document of
// this format.
func (f DocumentFormat) Extension() string {
	switch f {
	case FormatPDF:
		return ".pdf"
	case FormatRTF:
		return ".rtf"
	default:
		return ".txt"
	}
}

// RetrievedDocument holds the raw bytes of a downloaded judgment plus the
// classification and filename chosen for it.
type RetrievedDocument struct {
	Content  []byte
	Format   DocumentFormat
	Filename string
	Path     string
}

// DownloadResult pairs a case with the outcome of its document download.
// Err is set when the document could not be fetched; the bulk download
// never aborts on individual failures.
type DownloadResult struct {
	Case     CaseRecord
	Document *RetrievedDocument
	Err      error
}
