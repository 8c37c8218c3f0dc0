package yota

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"yota-selfcare/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ParseICCIDMap maps every ICCID on the devices page to its product id.
// The n-th product form on the page belongs to the n-th "ICCID:" label.
func ParseICCIDMap(doc *goquery.Document) map[string]string {
	var productIds []string
	doc.Find(`input[name="product"]`).Each(func(_ int, s *goquery.Selection) {
		productIds = append(productIds, strings.TrimSpace(s.AttrOr("value", "")))
	})

	var iccids []string
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		text := htmlutil.RemoveWhitespace(htmlutil.GetOwnText(s.Nodes[0]))
		iccid, found := strings.CutPrefix(text, "ICCID:")
		if !found || iccid == "" {
			return
		}
		iccids = append(iccids, iccid)
	})

	result := map[string]string{}
	for i := 0; i < len(productIds) && i < len(iccids); i++ {
		result[iccids[i]] = productIds[i]
	}
	return result
}

var sliderDataRegex = regexp.MustCompile(`sliderData\s*=`)

// ParseSliderData returns the json object assigned to `sliderData` in the
// scripts of the devices page.
func ParseSliderData(doc *goquery.Document) (string, error) {
	var found string
	var lastErr error
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		for _, loc := range sliderDataRegex.FindAllStringIndex(text, -1) {
			rest := strings.TrimLeft(text[loc[1]:], " \t\r\n")
			// comparisons such as `sliderData == null`
			if strings.HasPrefix(rest, "=") {
				continue
			}

			var raw json.RawMessage
			err := json.NewDecoder(strings.NewReader(rest)).Decode(&raw)
			if err != nil {
				lastErr = err
				continue
			}
			if len(raw) == 0 || raw[0] != '{' {
				lastErr = fmt.Errorf("sliderData is not an object")
				continue
			}
			found = string(raw)
			return false
		}
		return true
	})

	if found == "" {
		if lastErr != nil {
			return "", fmt.Errorf("%w: %w", ErrDataChanged, lastErr)
		}
		return "", fmt.Errorf("%w: sliderData not found", ErrDataChanged)
	}
	return found, nil
}

// isLoginPage reports whether `doc` still shows the login form.
func isLoginPage(doc *goquery.Document) bool {
	return doc.Find(`input[name="IDToken1"]`).Length() > 0
}
