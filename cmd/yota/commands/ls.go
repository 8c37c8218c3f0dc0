package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"yota-selfcare/internal/scrapers/yota"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var lsProductsQuiet bool
var lsOffersQuiet bool

func init() {
	lsProductsCmd.Flags().BoolVarP(&lsProductsQuiet, "quiet", "q", false, "Only show ICCIDs.")
	lsOffersCmd.Flags().BoolVarP(&lsOffersQuiet, "quiet", "q", false, "Only show offer codes.")

	lsCmd.AddCommand(lsProductsCmd)
	lsCmd.AddCommand(lsOffersCmd)
	rootCmd.AddCommand(lsCmd)
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Shows list of account resources.",
}

var lsProductsCmd = &cobra.Command{
	Use:   "products [-q] [ICCID]",
	Short: "Lists the products of the account.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, devices, _ := fetchDevices(cmd.Context())

		iccid := ""
		if len(args) > 0 {
			iccid = args[0]
		}
		err := renderProducts(os.Stdout, devices, iccid, lsProductsQuiet)
		if err != nil {
			fatal("failed to list products", err)
		}
	},
}

var lsOffersCmd = &cobra.Command{
	Use:   "offers [-q] ICCID",
	Short: "Lists the offers available for a product.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, devices, _ := fetchDevices(cmd.Context())

		product, err := devices.FindProduct(args[0])
		if err != nil {
			fatal("failed to list offers", err)
		}
		renderOffers(os.Stdout, product, lsOffersQuiet)
	},
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func joinUnit(number yota.Text, unit string) string {
	return strings.TrimSpace(string(number) + " " + unit)
}

// renderProducts prints every product, or only the one of `iccid` when it
// is set.
func renderProducts(out io.Writer, devices yota.Devices, iccid string, quiet bool) error {
	iccids := devices.SortedICCIDs()
	if iccid != "" {
		_, err := devices.FindProduct(iccid)
		if err != nil {
			return err
		}
		iccids = []string{iccid}
	}

	if quiet {
		for _, iccid := range iccids {
			fmt.Fprintln(out, iccid)
		}
		return nil
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"ICCID", "Product", "Offer", "Speed"})
	for _, iccid := range iccids {
		product, err := devices.FindProduct(iccid)
		if err != nil {
			t.AppendRow(table.Row{iccid, devices.ICCIDs[iccid], "-", "-"})
			continue
		}
		speed := "-"
		current, ok := product.CurrentStep()
		if ok {
			speed = joinUnit(current.SpeedNumber, current.SpeedString)
		}
		t.AppendRow(table.Row{iccid, string(product.ProductID), product.OfferCode, speed})
	}
	t.Render()
	return nil
}

// renderOffers prints the steps of a product, the active one is marked
// with a star.
func renderOffers(out io.Writer, product yota.Product, quiet bool) {
	if quiet {
		for _, step := range product.Steps {
			fmt.Fprintln(out, step.Code)
		}
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"", "Offer", "Speed", "Price", "Remaining"})
	for _, step := range product.Steps {
		marker := ""
		if step.Code == product.OfferCode {
			marker = "*"
		}
		t.AppendRow(table.Row{
			marker,
			step.Code,
			joinUnit(step.SpeedNumber, step.SpeedString),
			joinUnit(step.AmountNumber, step.AmountString),
			joinUnit(step.RemainNumber, step.RemainString),
		})
	}
	t.Render()
}
