package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cablebill/internal/core"
	"cablebill/internal/ledger"
	"cablebill/internal/report"
)

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Record a payment",
	Example: `  ledgerctl pay --customer CUST000001 --amount 350
  ledgerctl pay --customer CUST000001 --amount 350 --method gpay --txn 4242 --date 2026-10-14`,
	RunE: runPay,
}

var paymentsCmd = &cobra.Command{
	Use:     "payments",
	Aliases: []string{"payment"},
	Short:   "List and manage payments",
}

var paymentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payments newest first",
	RunE:  runPaymentsList,
}

var paymentsEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change a payment; balance snapshots are recomputed",
	Args:  cobra.ExactArgs(1),
	RunE:  runPaymentsEdit,
}

var paymentsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a payment",
	Args:  cobra.ExactArgs(1),
	RunE:  runPaymentsDelete,
}

var errUnknownPayment = errors.New("payment not found")

func init() {
	rootCmd.AddCommand(payCmd, paymentsCmd)
	paymentsCmd.AddCommand(paymentsListCmd, paymentsEditCmd, paymentsDeleteCmd)

	for _, c := range []*cobra.Command{payCmd, paymentsEditCmd} {
		c.Flags().String("customer", "", "Customer id")
		c.Flags().String("amount", "", "Amount in rupees")
		c.Flags().String("method", "", "cash, gpay, phonepe, bank or other")
		c.Flags().String("date", "", "Payment date (YYYY-MM-DD); defaults to today")
		c.Flags().String("txn", "", "Transaction reference")
	}
	_ = payCmd.MarkFlagRequired("customer")
	_ = payCmd.MarkFlagRequired("amount")

	paymentsListCmd.Flags().String("method", report.MethodAll, "Filter by method, or all")
	paymentsListCmd.Flags().String("customer", "", "Only this customer")
}

func runPay(cmd *cobra.Command, args []string) error {
	patch, err := paymentPatchFromFlags(cmd)
	if err != nil {
		return err
	}
	p := core.Payment{
		CustomerID: *patch.CustomerID,
		Amount:     *patch.Amount,
		Method:     core.MethodCash,
		Date:       app.Ledger.Today(),
	}
	if patch.Method != nil {
		p.Method = *patch.Method
	}
	if patch.Date != nil {
		p.Date = *patch.Date
	}
	if patch.TransactionID != nil {
		p.TransactionID = *patch.TransactionID
	}
	if err := p.Validate(); err != nil {
		return err
	}

	recorded, ok := app.Ledger.AddPayment(cmd.Context(), p)
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCustomer, p.CustomerID)
	}
	p = recorded
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %s from %s, balance %s -> %s\n",
		p.ID, p.Amount, app.Ledger.Book().CustomerName(p.CustomerID), p.BalanceBefore, p.BalanceAfter)
	return nil
}

func runPaymentsList(cmd *cobra.Command, args []string) error {
	method, _ := cmd.Flags().GetString("method")
	customer, _ := cmd.Flags().GetString("customer")

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "DATE\tID\tCUSTOMER\tAMOUNT\tMETHOD\tTXN\tBALANCE AFTER")
	for _, r := range report.PaymentRows(app.Ledger.Book(), method) {
		if customer != "" && r.CustomerID != customer {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Date.Display(), r.ID, r.CustomerName, r.Amount, r.Method, r.TransactionID, r.BalanceAfter)
	}
	return tw.Flush()
}

func runPaymentsEdit(cmd *cobra.Command, args []string) error {
	patch, err := paymentPatchFromFlags(cmd)
	if err != nil {
		return err
	}
	p, ok := app.Ledger.UpdatePayment(args[0], patch)
	if !ok {
		return fmt.Errorf("%w (or its customer): %s", errUnknownPayment, args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s, balance %s -> %s\n",
		p.ID, p.Amount, p.BalanceBefore, p.BalanceAfter)
	return nil
}

func runPaymentsDelete(cmd *cobra.Command, args []string) error {
	if !app.Ledger.DeletePayment(args[0]) {
		return fmt.Errorf("%w: %s", errUnknownPayment, args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func paymentPatchFromFlags(cmd *cobra.Command) (ledger.PaymentPatch, error) {
	var patch ledger.PaymentPatch
	flags := cmd.Flags()
	if flags.Changed("customer") {
		v, _ := flags.GetString("customer")
		patch.CustomerID = &v
	}
	if flags.Changed("amount") {
		raw, _ := flags.GetString("amount")
		amount, err := core.ParseAmount(raw)
		if err != nil {
			return patch, fmt.Errorf("invalid amount %q: %w", raw, err)
		}
		if err := amount.Validate(); err != nil {
			return patch, fmt.Errorf("invalid amount %q: %w", raw, err)
		}
		patch.Amount = &amount
	}
	if flags.Changed("method") {
		raw, _ := flags.GetString("method")
		method := core.PaymentMethod(raw)
		if !method.IsValid() {
			return patch, fmt.Errorf("%w: %q", core.ErrInvalidMethod, raw)
		}
		patch.Method = &method
	}
	if flags.Changed("date") {
		raw, _ := flags.GetString("date")
		d, err := core.ParseDate(raw)
		if err != nil {
			return patch, err
		}
		patch.Date = &d
	}
	if flags.Changed("txn") {
		v, _ := flags.GetString("txn")
		patch.TransactionID = &v
	}
	return patch, nil
}
