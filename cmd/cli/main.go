package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/bankledger/internal/adapter/http/dto"
)

type options struct {
	baseURL        string
	timeout        time.Duration
	retries        int
	idempotencyKey string
}

func (o *options) client() *apiClient {
	c := newAPIClient(o.baseURL, o.timeout, o.retries)
	c.idempotencyKey = o.idempotencyKey
	return c
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "bankledger-cli",
		Short:        "BankLedger CLI tool",
		Long:         `A command line interface for interacting with the BankLedger API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the BankLedger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().IntVar(&opts.retries, "retries", 3, "Retries on server errors")
	rootCmd.PersistentFlags().StringVar(&opts.idempotencyKey, "idempotency-key", "", "Idempotency key for mutating requests (generated when empty)")

	rootCmd.AddCommand(
		accountCmd(opts),
		historyCmd(opts),
		depositCmd(opts),
		withdrawCmd(opts),
		transferCmd(opts),
		paymentCmd(opts),
		scheduledCmd(opts),
		ledgerCmd(opts),
	)

	return rootCmd
}

func accountCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var open dto.OpenAccountRequest
	var openWithdrawal, openDeposit string
	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			open.MaxWithdrawalLimit = optionalFlag(cmd, "max-withdrawal", openWithdrawal)
			open.MaxDepositLimit = optionalFlag(cmd, "max-deposit", openDeposit)
			return call(cmd, opts, http.MethodPost, "/api/v1/accounts", &open)
		},
	}
	openCmd.Flags().StringVar(&open.Kind, "kind", "", "Account kind: standard or business")
	openCmd.Flags().StringVar(&open.Category, "category", "", "Account category: CHECKING or SAVINGS")
	openCmd.Flags().StringVar(&open.InitialBalance, "balance", "", "Initial balance")
	openCmd.Flags().StringVar(&openWithdrawal, "max-withdrawal", "", "Maximum single withdrawal")
	openCmd.Flags().StringVar(&openDeposit, "max-deposit", "", "Maximum single deposit")

	getCmd := &cobra.Command{
		Use:   "get ACCOUNT_ID",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodGet, accountPath(args[0], ""), nil)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/accounts", nil)
			if err != nil {
				return err
			}
			var resp dto.ListAccountsResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return printAccounts(cmd.OutOrStdout(), resp)
		},
	}

	statusCmd := func(action, short string) *cobra.Command {
		return &cobra.Command{
			Use:   action + " ACCOUNT_ID",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return call(cmd, opts, http.MethodPost, accountPath(args[0], "/"+action), nil)
			},
		}
	}
	freezeCmd := statusCmd("freeze", "Freeze an account")
	unfreezeCmd := statusCmd("unfreeze", "Unfreeze an account")

	var limitWithdrawal, limitDeposit string
	limitsCmd := &cobra.Command{
		Use:   "limits ACCOUNT_ID",
		Short: "Update account limits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.UpdateLimitsRequest{
				MaxWithdrawalLimit: optionalFlag(cmd, "max-withdrawal", limitWithdrawal),
				MaxDepositLimit:    optionalFlag(cmd, "max-deposit", limitDeposit),
			}
			if req.MaxWithdrawalLimit == nil && req.MaxDepositLimit == nil {
				return errors.New("set --max-withdrawal or --max-deposit")
			}
			return call(cmd, opts, http.MethodPut, accountPath(args[0], "/limits"), &req)
		},
	}
	limitsCmd.Flags().StringVar(&limitWithdrawal, "max-withdrawal", "", "Maximum single withdrawal")
	limitsCmd.Flags().StringVar(&limitDeposit, "max-deposit", "", "Maximum single deposit")

	clearCmd := &cobra.Command{
		Use:   "clear-history ACCOUNT_ID",
		Short: "Clear the transaction history of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodDelete, accountPath(args[0], "/transactions"), nil)
		},
	}

	cmd.AddCommand(openCmd, getCmd, listCmd, freezeCmd, unfreezeCmd, limitsCmd, historyCmd(opts), clearCmd)
	return cmd
}

func historyCmd(opts *options) *cobra.Command {
	var types []string
	cmd := &cobra.Command{
		Use:   "history ACCOUNT_ID",
		Short: "Show the transaction history of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := accountPath(args[0], "/transactions")
			if len(types) > 0 {
				path += "?" + url.Values{"type": types}.Encode()
			}
			body, err := opts.client().do(cmd.Context(), http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			var resp struct {
				Transactions []dto.TransactionResponse `json:"transactions"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return printTransactions(cmd.OutOrStdout(), resp.Transactions)
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "Only show these transaction types (repeatable)")

	return cmd
}

func depositCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit ACCOUNT_ID AMOUNT",
		Short: "Deposit money into an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodPost, accountPath(args[0], "/deposit"), &dto.AmountRequest{Amount: args[1]})
		},
	}
}

func withdrawCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw ACCOUNT_ID AMOUNT",
		Short: "Withdraw money from an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodPost, accountPath(args[0], "/withdraw"), &dto.AmountRequest{Amount: args[1]})
		},
	}
}

func transferCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer FROM_ACCOUNT_ID TO_ACCOUNT_ID AMOUNT",
		Short: "Transfer money between accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.TransferRequest{FromAccountID: args[0], ToAccountID: args[1], Amount: args[2]}
			return call(cmd, opts, http.MethodPost, "/api/v1/transfers", &req)
		},
	}
}

func paymentCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Recurring payment operations",
	}

	var schedule dto.SchedulePaymentRequest
	scheduleCmd := &cobra.Command{
		Use:   "schedule ACCOUNT_ID",
		Short: "Schedule a recurring payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodPost, accountPath(args[0], "/recurring-payments"), &schedule)
		},
	}
	scheduleCmd.Flags().StringVar(&schedule.Amount, "amount", "", "Amount per run")
	scheduleCmd.Flags().StringVar(&schedule.RecipientID, "to", "", "Recipient account ID")
	scheduleCmd.Flags().StringVar(&schedule.Frequency, "frequency", "MONTHLY", "DAILY, WEEKLY, MONTHLY or YEARLY")
	scheduleCmd.Flags().StringVar(&schedule.StartDate, "start", "", "First due date (YYYY-MM-DD)")
	scheduleCmd.Flags().StringVar(&schedule.Description, "description", "", "Payment description")
	_ = scheduleCmd.MarkFlagRequired("amount")
	_ = scheduleCmd.MarkFlagRequired("to")
	_ = scheduleCmd.MarkFlagRequired("start")

	listCmd := &cobra.Command{
		Use:   "list ACCOUNT_ID",
		Short: "List recurring payments of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.client().do(cmd.Context(), http.MethodGet, accountPath(args[0], "/recurring-payments"), nil)
			if err != nil {
				return err
			}
			var resp struct {
				Payments []dto.RecurringPaymentResponse `json:"payments"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return printPayments(cmd.OutOrStdout(), resp.Payments)
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel ACCOUNT_ID PAYMENT_ID",
		Short: "Cancel a recurring payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodDelete, accountPath(args[0], "/recurring-payments/"+url.PathEscape(args[1])), nil)
		},
	}

	processCmd := &cobra.Command{
		Use:   "process ACCOUNT_ID",
		Short: "Run the due recurring payments of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodPost, accountPath(args[0], "/recurring-payments/process"), nil)
		},
	}

	cmd.AddCommand(scheduleCmd, listCmd, cancelCmd, processCmd)
	return cmd
}

func scheduledCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduled",
		Short: "Scheduled transfer operations",
	}

	var schedule dto.ScheduleTransferRequest
	createCmd := &cobra.Command{
		Use:   "create FROM_ACCOUNT_ID TO_ACCOUNT_ID AMOUNT",
		Short: "Schedule a one-shot transfer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule.FromAccountID, schedule.ToAccountID, schedule.Amount = args[0], args[1], args[2]
			return call(cmd, opts, http.MethodPost, "/api/v1/scheduled-transfers", &schedule)
		},
	}
	createCmd.Flags().StringVar(&schedule.ExecuteOn, "on", "", "Execution date (YYYY-MM-DD)")
	createCmd.Flags().StringVar(&schedule.Description, "description", "", "Transfer description")
	_ = createCmd.MarkFlagRequired("on")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodGet, "/api/v1/scheduled-transfers", nil)
		},
	}

	getCmd := &cobra.Command{
		Use:   "get TRANSFER_ID",
		Short: "Show a scheduled transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodGet, "/api/v1/scheduled-transfers/"+url.PathEscape(args[0]), nil)
		},
	}

	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Execute the due scheduled transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodPost, "/api/v1/scheduled-transfers/process", nil)
		},
	}

	cmd.AddCommand(createCmd, listCmd, getCmd, processCmd)
	return cmd
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConsistency(cmd.Context(), cmd.OutOrStdout(), opts.client())
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

func checkConsistency(ctx context.Context, w io.Writer, client *apiClient) error {
	body, err := client.do(ctx, http.MethodGet, "/api/v1/ledger/consistency", nil)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		body = apiErr.Body
	} else if err != nil {
		return err
	}

	var report dto.ConsistencyResponse
	if err := json.Unmarshal(body, &report); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if !report.Consistent {
		fmt.Fprintf(w, "Consistency check FAILED\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(w, "  %s: %s\n", issue.AccountID, issue.Reason)
		}
		return errors.New("ledger is inconsistent")
	}

	fmt.Fprintf(w, "Consistency check PASSED\n")
	fmt.Fprintf(w, "Accounts checked: %d\n", report.AccountsChecked)
	fmt.Fprintf(w, "Entries checked: %d\n", report.EntriesChecked)
	fmt.Fprintf(w, "Total balance: %s\n", report.TotalBalance)
	return nil
}

// call sends a request and pretty-prints the JSON response, if any.
func call(cmd *cobra.Command, opts *options, method, path string, body any) error {
	resp, err := opts.client().do(cmd.Context(), method, path, body)
	if err != nil {
		return err
	}
	if len(resp) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	}

	var v any
	if err := json.Unmarshal(resp, &v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), v)
}

func accountPath(id, suffix string) string {
	return "/api/v1/accounts/" + url.PathEscape(id) + suffix
}

// optionalFlag returns nil unless the flag was set explicitly.
func optionalFlag(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAccounts(w io.Writer, resp dto.ListAccountsResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tCATEGORY\tBALANCE\tACTIVE")
	for _, a := range resp.Accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\n", a.ID, a.Kind, a.Category, a.Balance, a.Active)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d accounts (%d active, %d frozen)\n", resp.Total, resp.Active, resp.Frozen)
	return err
}

func printTransactions(w io.Writer, txs []dto.TransactionResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tAMOUNT\tDESCRIPTION")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", tx.Timestamp.Format(time.RFC3339), tx.Type, tx.Amount, truncate(tx.Description, 40))
	}
	return tw.Flush()
}

func printPayments(w io.Writer, payments []dto.RecurringPaymentResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECIPIENT\tAMOUNT\tFREQUENCY\tNEXT DUE\tDESCRIPTION")
	for _, p := range payments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.RecipientID, p.Amount, p.Frequency, p.NextDueDate, truncate(p.Description, 30))
	}
	return tw.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
