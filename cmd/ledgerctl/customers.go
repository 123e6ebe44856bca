package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cablebill/internal/core"
	"cablebill/internal/ledger"
	"cablebill/internal/report"
)

var customersCmd = &cobra.Command{
	Use:     "customers",
	Aliases: []string{"customer", "cust"},
	Short:   "List and manage customers",
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers with paid total, balance and status",
	Example: `  ledgerctl customers list
  ledgerctl customers list --search 98765`,
	RunE: runCustomersList,
}

var customersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a customer",
	Example: `  ledgerctl customers add --name "Ravi Kumar" --phone 9876543210 --stb STB-0042 --amount 350 --renew 2026-11-01`,
	RunE: runCustomersAdd,
}

var customersEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change customer fields; only the flags given are applied",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomersEdit,
}

var customersRenewCmd = &cobra.Command{
	Use:   "renew ID",
	Short: "Move the renewal date to one month from today",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomersRenew,
}

var customersDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a customer; payments and invoices are kept",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomersDelete,
}

var customersExpiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "List active customers due for renewal",
	RunE:  runCustomersExpiring,
}

var errUnknownCustomer = errors.New("customer not found")

func init() {
	rootCmd.AddCommand(customersCmd)
	customersCmd.AddCommand(customersListCmd, customersAddCmd, customersEditCmd,
		customersRenewCmd, customersDeleteCmd, customersExpiringCmd)

	customersListCmd.Flags().String("search", "", "Match name, phone, set-top box or id")

	for _, c := range []*cobra.Command{customersAddCmd, customersEditCmd} {
		c.Flags().String("name", "", "Customer name")
		c.Flags().String("phone", "", "Phone number")
		c.Flags().String("stb", "", "Set-top box number")
		c.Flags().String("amount", "", "Recurring charge in rupees")
		c.Flags().String("renew", "", "Renewal date (YYYY-MM-DD)")
	}
	customersEditCmd.Flags().String("status", "", "active or inactive")
	_ = customersAddCmd.MarkFlagRequired("name")
}

func runCustomersList(cmd *cobra.Command, args []string) error {
	book := app.Ledger.Book()
	today := app.Ledger.Today()
	search, _ := cmd.Flags().GetString("search")

	rows := report.CustomerRows(book, today)
	if search != "" {
		keep := make(map[string]bool)
		for _, c := range report.SearchCustomers(book, search) {
			keep[c.ID] = true
		}
		filtered := rows[:0]
		for _, r := range rows {
			if keep[r.ID] {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tSTB\tAMOUNT\tPAID\tBALANCE\tRENEW\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, r.Phone, r.STBNumber, r.Amount, r.Paid, r.BalanceLabel,
			r.RenewDate.Display(), r.StatusLabel)
	}
	return tw.Flush()
}

func runCustomersAdd(cmd *cobra.Command, args []string) error {
	patch, err := customerPatchFromFlags(cmd)
	if err != nil {
		return err
	}
	var c core.Customer
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.STBNumber != nil {
		c.STBNumber = *patch.STBNumber
	}
	if patch.Amount != nil {
		c.Amount = *patch.Amount
	}
	if patch.RenewDate != nil {
		c.RenewDate = *patch.RenewDate
	}
	if err := c.Validate(); err != nil {
		return err
	}

	c = app.Ledger.AddCustomer(cmd.Context(), c)
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", c.ID, c.Name)
	return nil
}

func runCustomersEdit(cmd *cobra.Command, args []string) error {
	patch, err := customerPatchFromFlags(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("status") {
		raw, _ := cmd.Flags().GetString("status")
		status := core.CustomerStatus(raw)
		if !status.IsValid() {
			return fmt.Errorf("invalid status %q: must be active or inactive", raw)
		}
		patch.Status = &status
	}
	c, ok := app.Ledger.UpdateCustomer(args[0], patch)
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCustomer, args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", c.ID, c.Name)
	return nil
}

func runCustomersRenew(cmd *cobra.Command, args []string) error {
	c, ok := app.Ledger.RenewCustomer(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCustomer, args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renewed %s until %s\n", c.ID, c.RenewDate.Display())
	return nil
}

func runCustomersDelete(cmd *cobra.Command, args []string) error {
	if !app.Ledger.DeleteCustomer(args[0]) {
		return fmt.Errorf("%w: %s", errUnknownCustomer, args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runCustomersExpiring(cmd *cobra.Command, args []string) error {
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tRENEW")
	for _, c := range report.ExpiringCustomers(app.Ledger.Book(), app.Ledger.Today()) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, c.RenewDate.Display())
	}
	return tw.Flush()
}

// customerPatchFromFlags reads only the flags the user actually set.
func customerPatchFromFlags(cmd *cobra.Command) (ledger.CustomerPatch, error) {
	var patch ledger.CustomerPatch
	flags := cmd.Flags()
	if flags.Changed("name") {
		v, _ := flags.GetString("name")
		patch.Name = &v
	}
	if flags.Changed("phone") {
		v, _ := flags.GetString("phone")
		patch.Phone = &v
	}
	if flags.Changed("stb") {
		v, _ := flags.GetString("stb")
		patch.STBNumber = &v
	}
	if flags.Changed("amount") {
		raw, _ := flags.GetString("amount")
		amount, err := core.ParseAmount(raw)
		if err != nil {
			return patch, fmt.Errorf("invalid amount %q: %w", raw, err)
		}
		patch.Amount = &amount
	}
	if flags.Changed("renew") {
		raw, _ := flags.GetString("renew")
		d, err := core.ParseDate(raw)
		if err != nil {
			return patch, fmt.Errorf("invalid renewal date %q: %w", raw, err)
		}
		patch.RenewDate = &d
	}
	return patch, nil
}
