package yota

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/antzucaro/matchr"
)

var (
	ErrLoginFailed     = errors.New("login rejected")
	ErrDataChanged     = errors.New("data representation is changed")
	ErrProductNotFound = errors.New("product not found")
	ErrStepNotFound    = errors.New("step not found")
)

// Text accepts both json strings and json numbers, numbers keep their
// literal form ("5.0" stays "5.0").
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}

	var n json.Number
	err := json.Unmarshal(data, &n)
	if err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*t = Text(n.String())
	return nil
}

// Step is a single tariff on the speed slider of a product.
type Step struct {
	Code         string `json:"code"`
	AmountNumber Text   `json:"amountNumber"`
	AmountString string `json:"amountString"`
	RemainNumber Text   `json:"remainNumber"`
	RemainString string `json:"remainString"`
	SpeedNumber  Text   `json:"speedNumber"`
	SpeedString  string `json:"speedString"`
	Description  string `json:"description"`
}

// Product is a single device (sim card) of the account.
type Product struct {
	ProductID Text   `json:"productId"`
	OfferCode string `json:"offerCode"`
	Status    string `json:"status"`
	Steps     []Step `json:"steps"`
}

// FindStep returns the step whose speed is exactly `speed`. On a miss the
// returned error suggests the closest speed, if there is any step at all.
func (p Product) FindStep(speed string) (Step, error) {
	for _, s := range p.Steps {
		if string(s.SpeedNumber) == speed {
			return s, nil
		}
	}

	closest := ""
	var best float64
	for _, s := range p.Steps {
		similarity := matchr.JaroWinkler(speed, string(s.SpeedNumber), false)
		if closest == "" || similarity > best {
			closest = string(s.SpeedNumber)
			best = similarity
		}
	}
	if closest == "" {
		return Step{}, fmt.Errorf("%w: %s (product has no steps)", ErrStepNotFound, speed)
	}
	return Step{}, fmt.Errorf("%w: %s (did you mean %s?)", ErrStepNotFound, speed, closest)
}

// CurrentStep returns the step matching the offer the product is on.
func (p Product) CurrentStep() (Step, bool) {
	for _, s := range p.Steps {
		if s.Code == p.OfferCode {
			return s, true
		}
	}
	return Step{}, false
}

// Devices is everything scraped off the devices page.
type Devices struct {
	// ICCIDs maps an ICCID to the product id it belongs to.
	ICCIDs map[string]string
	// Products maps a product id to its product.
	Products map[string]Product
}

// FindProduct looks up a product by the ICCID printed on the sim card.
func (d Devices) FindProduct(iccid string) (Product, error) {
	productId, ok := d.ICCIDs[iccid]
	if !ok {
		return Product{}, fmt.Errorf("%w: iccid %s", ErrProductNotFound, iccid)
	}
	product, ok := d.Products[productId]
	if !ok {
		return Product{}, fmt.Errorf("%w: product id %s", ErrProductNotFound, productId)
	}
	return product, nil
}

// SortedICCIDs returns every known ICCID in ascending order.
func (d Devices) SortedICCIDs() []string {
	iccids := make([]string, 0, len(d.ICCIDs))
	for iccid := range d.ICCIDs {
		iccids = append(iccids, iccid)
	}
	sort.Strings(iccids)
	return iccids
}

// DecodeProducts decodes the sliderData object, which maps product ids to
// products.
func DecodeProducts(data string) (map[string]Product, error) {
	products := map[string]Product{}
	err := json.Unmarshal([]byte(data), &products)
	if err != nil {
		return nil, fmt.Errorf("%w: decode slider data: %w", ErrDataChanged, err)
	}
	return products, nil
}
