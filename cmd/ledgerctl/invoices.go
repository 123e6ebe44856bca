package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cablebill/internal/core"
	"cablebill/internal/report"
)

var invoicesCmd = &cobra.Command{
	Use:     "invoices",
	Aliases: []string{"invoice"},
	Short:   "Generate and settle invoices",
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices newest first",
	RunE:  runInvoicesList,
}

var invoicesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Bill every active customer for this month, or one customer",
	Example: `  ledgerctl invoices generate
  ledgerctl invoices generate --customer CUST000001 --amount 500`,
	RunE: runInvoicesGenerate,
}

var invoicesPaidCmd = &cobra.Command{
	Use:   "paid ID",
	Short: "Mark a pending invoice as paid",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoicesPaid,
}

func init() {
	rootCmd.AddCommand(invoicesCmd)
	invoicesCmd.AddCommand(invoicesListCmd, invoicesGenerateCmd, invoicesPaidCmd)

	invoicesGenerateCmd.Flags().String("customer", "", "Bill only this customer")
	invoicesGenerateCmd.Flags().String("amount", "", "Override the customer's recurring charge")
}

func runInvoicesList(cmd *cobra.Command, args []string) error {
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "DATE\tID\tCUSTOMER\tSTB\tAMOUNT\tSTATUS")
	for _, r := range report.InvoiceRows(app.Ledger.Book()) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Date.Display(), r.ID, r.CustomerName, r.STBNumber, r.Amount, r.Status)
	}
	return tw.Flush()
}

func runInvoicesGenerate(cmd *cobra.Command, args []string) error {
	customer, _ := cmd.Flags().GetString("customer")
	out := cmd.OutOrStdout()

	if customer == "" {
		if cmd.Flags().Changed("amount") {
			return fmt.Errorf("--amount needs --customer")
		}
		created := app.Ledger.GenerateMonthlyInvoices(cmd.Context())
		fmt.Fprintf(out, "Generated %d invoices\n", len(created))
		return nil
	}

	var amount *core.Money
	if cmd.Flags().Changed("amount") {
		raw, _ := cmd.Flags().GetString("amount")
		m, err := core.ParseAmount(raw)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", raw, err)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("invalid amount %q: %w", raw, err)
		}
		amount = &m
	}
	inv, ok := app.Ledger.GenerateInvoice(cmd.Context(), customer, amount)
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCustomer, customer)
	}
	fmt.Fprintf(out, "Generated %s for %s: %s\n", inv.ID, customer, inv.Amount)
	return nil
}

func runInvoicesPaid(cmd *cobra.Command, args []string) error {
	inv, ok := app.Ledger.MarkInvoicePaid(cmd.Context(), args[0])
	if !ok {
		return fmt.Errorf("no pending invoice %s", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Marked %s paid (%s)\n", inv.ID, inv.Amount)
	return nil
}
