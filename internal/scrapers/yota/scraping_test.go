package yota

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func yotaHTML(body string) string {
	return fmt.Sprintf(`
	<html>
		<head></head>
		<body>
			%s
		</body>
	</html>`, body)
}

func productForm(productId, iccid string) string {
	return fmt.Sprintf(`
	<form action="/selfcare/devices/changeOffer" method="post">
		<input type="hidden" name="product" value="%s" />
	</form>
	<div class="device">
		<span class="mac">
			ICCID:
			%s
		</span>
	</div>`, productId, iccid)
}

func parseDoc(t testing.TB, raw string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(raw))
	require.NoError(t, err)
	return doc
}

func TestParseICCIDMap(t *testing.T) {
	doc := parseDoc(t, yotaHTML(
		productForm("id123312", "iccid312123")+
			productForm("idtest", "iccidtest"),
	))

	require.Equal(t, map[string]string{
		"iccid312123": "id123312",
		"iccidtest":   "idtest",
	}, ParseICCIDMap(doc))
}

func TestParseICCIDMapUnpaired(t *testing.T) {
	doc := parseDoc(t, yotaHTML(
		productForm("first", "111")+
			`<input type="hidden" name="product" value="orphan" />`,
	))
	require.Equal(t, map[string]string{"111": "first"}, ParseICCIDMap(doc))

	require.Empty(t, ParseICCIDMap(parseDoc(t, yotaHTML("<p>nothing here</p>"))))
}

func TestParseSliderData(t *testing.T) {
	data := sliderDataJSON()
	doc := parseDoc(t, yotaHTML(fmt.Sprintf(`
	<script>var unrelated = 1;</script>
	<script>
		var sliderData = %s;
		// some js logic
		var other = {"a": "};"};
	</script>`, data)))

	raw, err := ParseSliderData(doc)
	require.NoError(t, err)

	var expect, actual any
	require.NoError(t, json.Unmarshal([]byte(data), &expect))
	require.NoError(t, json.Unmarshal([]byte(raw), &actual))
	require.Equal(t, expect, actual)

	// values keep their inner whitespace
	require.True(t, strings.Contains(raw, "руб. в месяц"))
}

func TestParseSliderDataAfterComparison(t *testing.T) {
	doc := parseDoc(t, yotaHTML(`
	<script>
		if (sliderData == null || sliderData === undefined) {}
		var sliderData = {"1": {"productId": 1, "steps": []}};
	</script>`))

	raw, err := ParseSliderData(doc)
	require.NoError(t, err)
	products, err := DecodeProducts(raw)
	require.NoError(t, err)
	require.Equal(t, Text("1"), products["1"].ProductID)
}

func TestParseSliderDataChanged(t *testing.T) {
	testCases := []string{
		`<script>var nothing = 1;</script>`,
		`<script>var sliderData = [1, 2];</script>`,
		`<script>var sliderData = {"broken": </script>`,
		``,
	}

	for _, body := range testCases {
		_, err := ParseSliderData(parseDoc(t, yotaHTML(body)))
		require.ErrorIs(t, err, ErrDataChanged, body)
	}
}

func TestIsLoginPage(t *testing.T) {
	require.True(t, isLoginPage(parseDoc(t, yotaHTML(`<form><input name="IDToken1" /></form>`))))
	require.False(t, isLoginPage(parseDoc(t, yotaHTML(productForm("1", "2")))))
}
