package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cablebill/internal/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify ID",
	Short: "Send a customer their account summary",
	Long: `Compose the account summary for a customer and send it over SMS or
WhatsApp through the configured gateway. With --print the message and a
wa.me click-to-chat link are printed instead of sent.`,
	Example: `  ledgerctl notify CUST000001 --channel whatsapp
  ledgerctl notify CUST000001 --print`,
	Args: cobra.ExactArgs(1),
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.Flags().String("channel", string(notify.ChannelSMS), "sms or whatsapp")
	notifyCmd.Flags().Bool("print", false, "Print the message instead of sending it")
}

func runNotify(cmd *cobra.Command, args []string) error {
	c, ok := app.Ledger.Customer(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCustomer, args[0])
	}
	msg := notify.Compose(c, app.Ledger.Balance(c.ID), app.Config.BusinessName)
	out := cmd.OutOrStdout()

	if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
		fmt.Fprintln(out, msg)
		if c.Phone != "" {
			fmt.Fprintf(out, "\n%s\n", notify.WhatsAppLink(c.Phone, msg))
		}
		return nil
	}

	channel, _ := cmd.Flags().GetString("channel")
	if err := app.Notifier.Send(cmd.Context(), notify.Channel(channel), c.Phone, msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", channel, c.ID, err)
	}
	fmt.Fprintf(out, "Sent %s summary to %s (%s)\n", channel, c.Name, c.Phone)
	return nil
}
