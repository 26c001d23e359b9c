package cli

import (
	"fmt"
	"strconv"
	"strings"

	"fiscal-engine/internal/app"
	"fiscal-engine/internal/core"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	seriesName   string
	seriesCode   string
	seriesYear   int
	seriesManual bool
	seriesUsers  []int

	receiveQty  string
	receiveNote string
)

var (
	partyKind    string
	partyName    string
	partyTaxID   string
	partyEmail   string
	partyPhone   string
	partyAddress string
)

var partiesCmd = &cobra.Command{
	Use:   "parties",
	Short: "List clients or suppliers",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.ListParties(cmd.Context(), core.PartyKind(partyKind))
		if err != nil {
			return err
		}
		return printJSON(result.Parties)
	},
}

var partyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a client or supplier",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.CreateParty(cmd.Context(), app.CreatePartyRequest{
			Kind:    core.PartyKind(partyKind),
			Name:    partyName,
			TaxID:   partyTaxID,
			Email:   partyEmail,
			Phone:   partyPhone,
			Address: partyAddress,
		})
		if err != nil {
			return err
		}
		return printJSON(result.Party)
	},
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "List active numbering series",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.ListSeries(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(result.Series)
	},
}

var seriesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new numbering series",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.CreateSeries(cmd.Context(), app.CreateSeriesRequest{
			Name:       seriesName,
			Code:       seriesCode,
			FiscalYear: seriesYear,
			Manual:     seriesManual,
			UserIDs:    seriesUsers,
		})
		if err != nil {
			return err
		}
		return printJSON(result.Series)
	},
}

var statementCmd = &cobra.Command{
	Use:   "statement <party-id>",
	Short: "Print a party's ledger with running balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid party id %q", args[0])
		}
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.GetPartyStatement(cmd.Context(), id)
		if err != nil {
			return err
		}
		printStatement(result.Statement)
		return nil
	},
}

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Product catalog and stock operations",
}

var stockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the product catalog with on-hand quantities",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.ListProducts(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(result.Products)
	},
}

var stockReceiveCmd = &cobra.Command{
	Use:   "receive <product-id>",
	Short: "Record a goods entry outside the document flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}
		qty, err := decimal.NewFromString(receiveQty)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", receiveQty)
		}

		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.ReceiveStock(cmd.Context(), app.ReceiveStockRequest{
			ProductID: id,
			Quantity:  qty,
			Note:      receiveNote,
		})
		if err != nil {
			return err
		}
		return printJSON(result.Product)
	},
}

var registersCmd = &cobra.Command{
	Use:   "registers",
	Short: "List cash registers",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.ListRegisters(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(result.Registers)
	},
}

func registerStateCmd(use, short string, run func(*cobra.Command, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <register-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid register id %q", args[0])
			}
			return run(cmd, id)
		},
	}
}

func printStatement(stmt *core.PartyStatement) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("  %s — %s (NIF %s)\n", stmt.Party.Kind, stmt.Party.Name, stmt.Party.TaxID)
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("  %-12s %-24s %8s %14s %12s\n", "DATE", "DESCRIPTION", "DIR", "AMOUNT", "BALANCE")
	fmt.Println(strings.Repeat("-", 72))
	running := decimal.Zero
	for _, tr := range stmt.Transactions {
		if tr.Direction == core.DirectionDebit {
			running = running.Add(tr.Amount)
		} else {
			running = running.Sub(tr.Amount)
		}
		fmt.Printf("  %-12s %-24s %8s %14s %12s\n",
			tr.EntryDate.Format("2006-01-02"), truncate(tr.Description, 24),
			tr.Direction, tr.Amount.StringFixed(2), running.StringFixed(2))
	}
	fmt.Println(strings.Repeat("-", 72))
	fmt.Printf("  %-46s %24s\n", "BALANCE", stmt.Party.Balance.StringFixed(2))
	fmt.Println()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func init() {
	partiesCmd.PersistentFlags().StringVar(&partyKind, "kind", "CLIENT", "party kind (CLIENT or SUPPLIER)")
	partyCreateCmd.Flags().StringVar(&partyName, "name", "", "party name (required)")
	partyCreateCmd.Flags().StringVar(&partyTaxID, "nif", "", "tax identification number")
	partyCreateCmd.Flags().StringVar(&partyEmail, "email", "", "contact email")
	partyCreateCmd.Flags().StringVar(&partyPhone, "phone", "", "contact phone")
	partyCreateCmd.Flags().StringVar(&partyAddress, "address", "", "postal address")
	_ = partyCreateCmd.MarkFlagRequired("name")
	partiesCmd.AddCommand(partyCreateCmd)

	seriesCreateCmd.Flags().StringVar(&seriesName, "name", "", "series display name (required)")
	seriesCreateCmd.Flags().StringVar(&seriesCode, "code", "", "series code, e.g. A (required)")
	seriesCreateCmd.Flags().IntVar(&seriesYear, "year", 0, "fiscal year (required)")
	seriesCreateCmd.Flags().BoolVar(&seriesManual, "manual", false, "manual series (paper books)")
	seriesCreateCmd.Flags().IntSliceVar(&seriesUsers, "users", nil, "operator ids allowed to issue (empty means open)")
	_ = seriesCreateCmd.MarkFlagRequired("name")
	_ = seriesCreateCmd.MarkFlagRequired("code")
	_ = seriesCreateCmd.MarkFlagRequired("year")
	seriesCmd.AddCommand(seriesCreateCmd)

	stockReceiveCmd.Flags().StringVar(&receiveQty, "qty", "", "quantity received (required)")
	stockReceiveCmd.Flags().StringVar(&receiveNote, "note", "", "movement description")
	_ = stockReceiveCmd.MarkFlagRequired("qty")
	stockCmd.AddCommand(stockListCmd, stockReceiveCmd)

	openCmd := registerStateCmd("open", "Open a cash register", func(cmd *cobra.Command, id int) error {
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		result, err := svc.OpenRegister(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(result.Register)
	})
	closeCmd := registerStateCmd("close", "Close a cash register", func(cmd *cobra.Command, id int) error {
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		result, err := svc.CloseRegister(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(result.Register)
	})
	registersCmd.AddCommand(openCmd, closeCmd)

	rootCmd.AddCommand(partiesCmd, seriesCmd, statementCmd, stockCmd, registersCmd)
}
