package cbosa

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDetectFormat(t *testing.T) {
	require.Equal(t, FormatPDF, DetectFormat([]byte("%PDF-1.7 rest")))
	require.Equal(t, FormatRTF, DetectFormat([]byte(`{\rtf1\ansi content}`)))
	require.Equal(t, FormatUnknown, DetectFormat([]byte("<html>error page</html>")))
	require.Equal(t, FormatUnknown, DetectFormat(nil))
}

func TestFormatExtensions(t *testing.T) {
	require.Equal(t, ".pdf", FormatPDF.Extension())
	require.Equal(t, ".rtf", FormatRTF.Extension())
	require.Equal(t, ".txt", FormatUnknown.Extension())
}

func TestSafeFilename(t *testing.T) {
	require.Equal(t, "I_SA_Gl_81_25", SafeFilename("I SA/Gl 81/25", "fallback"))
	require.Equal(t, "fallback", SafeFilename("   ", "fallback"))
	require.Equal(t, "a_b", SafeFilename("a<b", "fallback"))
	require.NotContains(t, SafeFilename(`x:"y|z`, "fallback"), ":")
}

func TestExtractCaseID(t *testing.T) {
	require.Equal(t, "59A1F3", extractCaseID("https://orzeczenia.nsa.gov.pl/doc/59A1F3"))
	require.Equal(t, "77", extractCaseID("https://example.org/view?id=77"))
	require.Equal(t, "last", extractCaseID("https://example.org/a/b/last/"))
}

func TestWriteUniqueAvoidsCollisions(t *testing.T) {
	dir := t.TempDir()

	first, err := writeUnique(dir, "I_SA_Gl_81_25", ".rtf", []byte("one"))
	require.NoError(t, err)
	second, err := writeUnique(dir, "I_SA_Gl_81_25", ".rtf", []byte("two"))
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "I_SA_Gl_81_25.rtf"), first)
	require.Equal(t, filepath.Join(dir, "I_SA_Gl_81_25_2.rtf"), second)

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	require.Equal(t, "two", string(data))
}

func documentPortal(t *testing.T, docBody []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/doc/CASE1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><a href="javascript:void(0)">drukuj</a><a href="/doc/CASE1.pdf">Pobierz</a></html>`)
	})
	mux.HandleFunc("/doc/CASE1.pdf", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(docBody)
	})
	return httptest.NewServer(mux)
}

func TestFetchDocumentClassifiesPDF(t *testing.T) {
	srv := documentPortal(t, []byte("%PDF-1.4 body"))
	defer srv.Close()

	dir := t.TempDir()
	client := New(testConfig(srv.URL, 1), zap.NewNop())

	doc, err := client.FetchDocument(context.Background(), CaseRecord{
		URL:       srv.URL + "/doc/CASE1",
		Signature: "I SA/Gl 81/25",
	}, dir)
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, FormatPDF, doc.Format)
	require.Equal(t, "I_SA_Gl_81_25.pdf", doc.Filename)
	require.FileExists(t, doc.Path)
}

func TestFetchDocumentRecoversSignatureFromRTF(t *testing.T) {
	rtf := []byte(`{\rtf1\ansi Sygn. akt I SA/Po 188/25\par Wyrok}`)
	srv := documentPortal(t, rtf)
	defer srv.Close()

	dir := t.TempDir()
	client := New(testConfig(srv.URL, 1), zap.NewNop())

	doc, err := client.FetchDocument(context.Background(), CaseRecord{
		URL: srv.URL + "/doc/CASE1",
	}, dir)
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, FormatRTF, doc.Format)
	require.Equal(t, "I_SA_Po_188_25.rtf", doc.Filename)
}

func TestFetchDocumentUnknownFormatSavedAsText(t *testing.T) {
	srv := documentPortal(t, []byte("<html>przerwa techniczna</html>"))
	defer srv.Close()

	dir := t.TempDir()
	client := New(testConfig(srv.URL, 1), zap.NewNop())

	doc, err := client.FetchDocument(context.Background(), CaseRecord{
		URL: srv.URL + "/doc/CASE1",
	}, dir)
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, FormatUnknown, doc.Format)
	require.Equal(t, "CASE1.txt", doc.Filename)
}

func TestFetchDocumentConstructedURLFallback(t *testing.T) {
	// Case page with no recognizable document link at all; the fetcher
	// should fall back to the /doc/{id}.pdf pattern.
	mux := http.NewServeMux()
	mux.HandleFunc("/doc/CASE9", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><a href="/cbo/query">wróć</a></html>`)
	})
	mux.HandleFunc("/doc/CASE9.pdf", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	client := New(testConfig(srv.URL, 1), zap.NewNop())

	doc, err := client.FetchDocument(context.Background(), CaseRecord{
		URL: srv.URL + "/doc/CASE9",
	}, dir)
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, FormatPDF, doc.Format)
	require.Equal(t, "CASE9.pdf", doc.Filename)
}

func TestDownloadAllRecordsFailures(t *testing.T) {
	srv := documentPortal(t, []byte("%PDF-1.4"))
	defer srv.Close()

	dir := t.TempDir()
	client := New(testConfig(srv.URL, 1), zap.NewNop())

	var calls int
	results := client.DownloadAll(context.Background(), []CaseRecord{
		{URL: srv.URL + "/doc/CASE1", Signature: "I SA/Gl 81/25"},
		{URL: srv.URL + "/doc/MISSING"},
	}, dir, func(done, total int, ok bool) { calls++ })

	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	require.Equal(t, 2, calls)
}
