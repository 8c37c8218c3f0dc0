package yota

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func stepJSON(code, speed string) string {
	return fmt.Sprintf(`{
		"code": "%s",
		"amountNumber": "450",
		"amountString": "руб. в месяц",
		"remainNumber": 56,
		"remainString": "дней",
		"returnAmount": "0",
		"speedNumber": "%s",
		"speedString": "Кбит/сек (макс.)",
		"description": "&nbsp;"
	}`, code, speed)
}

func sliderDataJSON() string {
	steps := fmt.Sprintf(
		"[%s, %s, %s]",
		stepJSON("POS-MA6-0001", "0.064"),
		stepJSON("POS-MA6-0005", "5.0"),
		stepJSON("POS-MA6-0010", "max"),
	)
	product := func(id string) string {
		return fmt.Sprintf(`{
			"offerCode": "POS-MA6-0005",
			"productId": %s,
			"steps": %s,
			"status": "custom"
		}`, id, steps)
	}
	return fmt.Sprintf(`{ "123312123": %s, "312123321": %s }`, product("123312123"), product(`"312123321"`))
}

func TestText(t *testing.T) {
	testCases := []struct {
		raw    string
		expect Text
	}{
		{raw: `"5.0"`, expect: "5.0"},
		{raw: `5.0`, expect: "5.0"},
		{raw: `123321123`, expect: "123321123"},
		{raw: `null`, expect: ""},
	}

	for _, test := range testCases {
		var out Text
		require.NoError(t, json.Unmarshal([]byte(test.raw), &out), test.raw)
		require.Equal(t, test.expect, out, test.raw)
	}

	var out Text
	require.Error(t, json.Unmarshal([]byte(`true`), &out))
	require.Error(t, json.Unmarshal([]byte(`{}`), &out))
}

func TestDecodeProducts(t *testing.T) {
	products, err := DecodeProducts(sliderDataJSON())
	require.NoError(t, err)
	require.Len(t, products, 2)

	for id, p := range products {
		require.Equal(t, Text(id), p.ProductID)
		require.Len(t, p.Steps, 3)
		require.Equal(t, "custom", p.Status)
	}

	expect := Step{
		Code:         "POS-MA6-0005",
		AmountNumber: "450",
		AmountString: "руб. в месяц",
		RemainNumber: "56",
		RemainString: "дней",
		SpeedNumber:  "5.0",
		SpeedString:  "Кбит/сек (макс.)",
		Description:  "&nbsp;",
	}
	require.Empty(t, cmp.Diff(expect, products["123312123"].Steps[1]))

	_, err = DecodeProducts(`{"broken": `)
	require.ErrorIs(t, err, ErrDataChanged)
}

func TestFindStep(t *testing.T) {
	products, err := DecodeProducts(sliderDataJSON())
	require.NoError(t, err)
	product := products["123312123"]

	step, err := product.FindStep("5.0")
	require.NoError(t, err)
	require.Equal(t, "POS-MA6-0005", step.Code)

	step, err = product.FindStep("max")
	require.NoError(t, err)
	require.Equal(t, "POS-MA6-0010", step.Code)

	_, err = product.FindStep("5")
	require.ErrorIs(t, err, ErrStepNotFound)
	require.Contains(t, err.Error(), "did you mean 5.0?")

	_, err = Product{}.FindStep("5.0")
	require.ErrorIs(t, err, ErrStepNotFound)
}

func TestCurrentStep(t *testing.T) {
	products, err := DecodeProducts(sliderDataJSON())
	require.NoError(t, err)

	step, ok := products["312123321"].CurrentStep()
	require.True(t, ok)
	require.Equal(t, Text("5.0"), step.SpeedNumber)

	_, ok = Product{OfferCode: "unknown"}.CurrentStep()
	require.False(t, ok)
}

func TestFindProduct(t *testing.T) {
	devices := Devices{
		ICCIDs: map[string]string{
			"8970199": "123312123",
			"8970100": "999",
		},
		Products: map[string]Product{
			"123312123": {ProductID: "123312123"},
		},
	}

	product, err := devices.FindProduct("8970199")
	require.NoError(t, err)
	require.Equal(t, Text("123312123"), product.ProductID)

	_, err = devices.FindProduct("8970100")
	require.ErrorIs(t, err, ErrProductNotFound)
	_, err = devices.FindProduct("missing")
	require.ErrorIs(t, err, ErrProductNotFound)

	require.Equal(t, []string{"8970100", "8970199"}, devices.SortedICCIDs())
}
