package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cablebill/internal/report"
)

var balanceCmd = &cobra.Command{
	Use:   "balance ID",
	Short: "Show a customer's reconciled balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runBalance,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show today's collection figures and customer counts",
	RunE:  runDashboard,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show collections for the last twelve months",
	RunE:  runSummary,
}

var statementCmd = &cobra.Command{
	Use:   "statement",
	Short: "List payments filtered by customer and month",
	Example: `  ledgerctl statement --customer CUST000001
  ledgerctl statement --month 2026-10`,
	RunE: runStatement,
}

var profitCmd = &cobra.Command{
	Use:   "profit",
	Short: "Show total income against total expenses",
	RunE:  runProfit,
}

func init() {
	rootCmd.AddCommand(balanceCmd, dashboardCmd, summaryCmd, statementCmd, profitCmd)

	statementCmd.Flags().String("customer", "", "Customer id")
	statementCmd.Flags().String("month", "", "Month (YYYY-MM)")
}

func runBalance(cmd *cobra.Command, args []string) error {
	c, ok := app.Ledger.Customer(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCustomer, args[0])
	}
	res := app.Ledger.Balance(c.ID)

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintf(tw, "Customer\t%s (%s)\n", c.Name, c.ID)
	fmt.Fprintf(tw, "Monthly charge\t%s\n", res.Charge)
	fmt.Fprintf(tw, "Total paid\t%s\n", res.Paid)
	fmt.Fprintf(tw, "Pending invoices\t%s\n", res.PendingInvoices)
	fmt.Fprintf(tw, "Paid invoices\t%s\n", res.PaidInvoices)
	fmt.Fprintf(tw, "Total due\t%s\n", res.TotalDue)
	fmt.Fprintf(tw, "Balance\t%s\n", res.Label())
	return tw.Flush()
}

func runDashboard(cmd *cobra.Command, args []string) error {
	m := report.Dashboard(app.Ledger.Book(), app.Ledger.Today())

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintf(tw, "Today's collection\t%s\n", m.TodayCollection)
	fmt.Fprintf(tw, "This month\t%s\n", m.MonthCollection)
	fmt.Fprintf(tw, "Month dues\t%s\n", m.MonthDues)
	fmt.Fprintf(tw, "Total outstanding\t%s\n", m.TotalOutstanding)
	fmt.Fprintf(tw, "Online (GPay %s, PhonePe %s)\t%s\n", m.GPayCollection, m.PhonePe, m.OnlineCollection)
	fmt.Fprintf(tw, "Customers\t%d (%d active, %d inactive)\n", m.TotalCustomers, m.ActiveCount, m.InactiveCount)
	fmt.Fprintf(tw, "Due for renewal\t%d\n", m.ExpiringCount)
	return tw.Flush()
}

func runSummary(cmd *cobra.Command, args []string) error {
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "MONTH\tPAYMENTS\tCOLLECTED")
	for _, b := range report.MonthlySummary(app.Ledger.Book(), app.Ledger.Today()) {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Label, b.Count, b.Amount)
	}
	return tw.Flush()
}

func runStatement(cmd *cobra.Command, args []string) error {
	customer, _ := cmd.Flags().GetString("customer")
	month, _ := cmd.Flags().GetString("month")
	if customer != "" {
		if _, ok := app.Ledger.Customer(customer); !ok {
			return fmt.Errorf("%w: %s", errUnknownCustomer, customer)
		}
	}

	st := report.BuildStatement(app.Ledger.Book(), report.StatementFilter{CustomerID: customer, Month: month})
	out := cmd.OutOrStdout()
	if st.Customer != nil {
		fmt.Fprintf(out, "%s (%s): %d payments, %s paid, balance %s\n\n",
			st.Customer.CustomerName, st.Customer.CustomerID, st.Customer.PaymentCount,
			st.Customer.TotalPaid, st.Customer.Balance)
	}

	tw := newTable(out)
	fmt.Fprintln(tw, "DATE\tID\tCUSTOMER\tAMOUNT\tMETHOD\tBALANCE AFTER")
	for _, r := range st.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Date.Display(), r.ID, r.CustomerName, r.Amount, r.Method, r.BalanceAfter)
	}
	fmt.Fprintf(tw, "\t\tTotal\t%s\t\t\n", st.Total)
	return tw.Flush()
}

func runProfit(cmd *cobra.Command, args []string) error {
	pl := report.Profit(app.Ledger.Book())
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintf(tw, "Total income\t%s\n", pl.Income)
	fmt.Fprintf(tw, "Total expenses\t%s\n", pl.Expenses)
	fmt.Fprintf(tw, "Net profit\t%s\n", pl.Net)
	return tw.Flush()
}
