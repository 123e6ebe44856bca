package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cablebill/internal/core"
)

var expensesCmd = &cobra.Command{
	Use:     "expenses",
	Aliases: []string{"expense"},
	Short:   "List and record business expenses",
}

var expensesAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Record an expense",
	Example: `  ledgerctl expenses add --category rent --description "Office rent" --amount 5000`,
	RunE:    runExpensesAdd,
}

var expensesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses",
	RunE:  runExpensesList,
}

var expensesDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpensesDelete,
}

func init() {
	rootCmd.AddCommand(expensesCmd)
	expensesCmd.AddCommand(expensesAddCmd, expensesListCmd, expensesDeleteCmd)

	expensesAddCmd.Flags().String("category", string(core.CategoryOther),
		"equipment, maintenance, salary, rent, utilities or other")
	expensesAddCmd.Flags().String("description", "", "What the money was spent on")
	expensesAddCmd.Flags().String("amount", "", "Amount in rupees")
	expensesAddCmd.Flags().String("date", "", "Expense date (YYYY-MM-DD); defaults to today")
	_ = expensesAddCmd.MarkFlagRequired("description")
	_ = expensesAddCmd.MarkFlagRequired("amount")
}

func runExpensesAdd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	category, _ := flags.GetString("category")
	description, _ := flags.GetString("description")
	rawAmount, _ := flags.GetString("amount")
	rawDate, _ := flags.GetString("date")

	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", rawAmount, err)
	}
	date := app.Ledger.Today()
	if rawDate != "" {
		if date, err = core.ParseDate(rawDate); err != nil {
			return err
		}
	}
	e := core.Expense{
		Category:    core.ExpenseCategory(category),
		Description: description,
		Amount:      amount,
		Date:        date,
	}
	if err := e.Validate(); err != nil {
		return err
	}
	e = app.Ledger.AddExpense(cmd.Context(), e)
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %s (%s)\n", e.ID, e.Amount, e.Category)
	return nil
}

func runExpensesList(cmd *cobra.Command, args []string) error {
	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "DATE\tID\tCATEGORY\tDESCRIPTION\tAMOUNT")
	for _, e := range app.Ledger.Expenses() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Date.Display(), e.ID, e.Category, e.Description, e.Amount)
	}
	return tw.Flush()
}

func runExpensesDelete(cmd *cobra.Command, args []string) error {
	if !app.Ledger.DeleteExpense(args[0]) {
		return fmt.Errorf("expense not found: %s", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
