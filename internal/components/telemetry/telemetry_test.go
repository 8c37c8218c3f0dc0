package telemetry

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	ids []string
}

func (r *recorder) ReportBroken(id string, params ...any)  { r.ids = append(r.ids, "broken "+id) }
func (r *recorder) ReportWarning(id string, params ...any) { r.ids = append(r.ids, "warning "+id) }
func (r *recorder) ReportDebug(msg string, params ...any)  { r.ids = append(r.ids, "debug "+msg) }
func (r *recorder) ReportCount(id string, count int64)     { r.ids = append(r.ids, "count "+id) }

func TestScopedAPI(t *testing.T) {
	rec := &recorder{}
	scoped := NewScopedAPI("outer", NewScopedAPI("inner", rec))

	scoped.ReportBroken("client.login")
	scoped.ReportWarning("client.devices", "param")
	scoped.ReportDebug("message")
	scoped.ReportCount("hops", 2)

	require.Equal(t, []string{
		"broken inner: outer: client.login",
		"warning inner: outer: client.devices",
		"debug inner: outer: message",
		"count inner: outer: hops",
	}, rec.ids)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0600))

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "stale.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)

	output.Write("7", "contents")
	written, err := os.ReadFile(filepath.Join(dir, "7.txt"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}

func TestFormatHeaders(t *testing.T) {
	require.Equal(t, "", formatHeaders(nil))

	header := http.Header{}
	header.Add("Set-Cookie", "b=2")
	header.Add("Content-Type", "text/html")
	header.Add("Set-Cookie", "a=1")
	require.Equal(t, "Content-Type: text/html\nSet-Cookie: b=2\nSet-Cookie: a=1", formatHeaders(header))
}

func TestFormatRequestBody(t *testing.T) {
	require.Equal(t, "<NO BODY AVAILABLE>", formatRequestBody(nil))

	req, err := http.NewRequest(http.MethodPost, "https://my.yota.ru/", strings.NewReader("product=1"))
	require.NoError(t, err)
	require.Equal(t, "product=1", formatRequestBody(req))

	// resty installs GetBody even when there is nothing to send
	req, err = http.NewRequest(http.MethodGet, "https://my.yota.ru/", nil)
	require.NoError(t, err)
	req.GetBody = func() (io.ReadCloser, error) { return nil, nil }
	require.Equal(t, "<NO BODY AVAILABLE>", formatRequestBody(req))
}
