package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	setCmd.Flags().StringVar(&flagConfig.Product, "product", "", "Sets the ICCID of the product, taken from the config file if it isn't passed.")
	rootCmd.AddCommand(setCmd)
}

var setCmd = &cobra.Command{
	Use:   "set SPEED [--product ICCID]",
	Short: "Switches a product to the offer with the given speed.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		speed := args[0]
		client, devices, cfg := fetchDevices(cmd.Context())
		if cfg.Product == "" {
			fatal("no product selected", fmt.Errorf("pass --product or set \"product\" in the config file"))
		}

		product, err := devices.FindProduct(cfg.Product)
		if err != nil {
			fatal("failed to find product", err)
		}
		step, err := product.FindStep(speed)
		if err != nil {
			fatal("failed to find offer", err)
		}
		if step.Code == product.OfferCode {
			slog.Info("offer is already active", "iccid", cfg.Product, "offer", step.Code)
			return
		}

		err = client.ChangeOffer(cmd.Context(), product, step)
		if err != nil {
			fatal("failed to change offer", err)
		}
		fmt.Fprintf(os.Stdout, "%s: %s -> %s (%s)\n", cfg.Product, product.OfferCode, step.Code, joinUnit(step.SpeedNumber, step.SpeedString))
	},
}
