package cli

import (
	"fmt"
	"strconv"

	"fiscal-engine/internal/app"
	"fiscal-engine/internal/core"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	certifyNumber string
	certifyHash   string
	certifyUser   int

	cancelReason string

	payAmount   string
	payMethod   string
	payRegister int

	listStatus string
	listParty  int
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List documents, optionally filtered by status and party",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		var status *core.DocumentStatus
		if listStatus != "" {
			st := core.DocumentStatus(listStatus)
			status = &st
		}
		var partyID *int
		if listParty > 0 {
			partyID = &listParty
		}

		result, err := svc.ListDocuments(cmd.Context(), status, partyID)
		if err != nil {
			return err
		}
		return printJSON(result.Documents)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Show one document with its lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid document id %q", args[0])
		}
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.GetDocument(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(result.Document)
	},
}

var certifyCmd = &cobra.Command{
	Use:   "certify <document-id>",
	Short: "Certify a draft: assign its fiscal number, sign it and post it",
	Example: `  # Automatic series
  fiscal certify 42

  # Manual series — the paper document's literals
  fiscal certify 42 --number "FT M 2024/7" --hash <signature>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid document id %q", args[0])
		}
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.CertifyDocument(cmd.Context(), id, app.CertifyRequest{
			ManualNumber: certifyNumber,
			ManualHash:   certifyHash,
			UserID:       certifyUser,
		})
		if err != nil {
			return err
		}
		return printJSON(result.Document)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <document-id>",
	Short: "Cancel a document; certified ones get a reversing credit note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid document id %q", args[0])
		}
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.CancelDocument(cmd.Context(), id, cancelReason)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var payCmd = &cobra.Command{
	Use:   "pay <document-id>",
	Short: "Apply a payment; a receipt is minted for the amount",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid document id %q", args[0])
		}
		amount, err := decimal.NewFromString(payAmount)
		if err != nil {
			return fmt.Errorf("invalid amount %q", payAmount)
		}

		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		var registerID *int
		if payRegister > 0 {
			registerID = &payRegister
		}
		result, err := svc.LiquidateDocument(cmd.Context(), id, app.LiquidateRequest{
			Amount:        amount,
			PaymentMethod: payMethod,
			RegisterID:    registerID,
		})
		if err != nil {
			return err
		}
		return printJSON(result.Document)
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the supported document types and their posting behavior",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.ListDocumentTypes(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(result.Types)
	},
}

func init() {
	documentsCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (DRAFT, PENDING, PARTIAL, PAID, CANCELLED)")
	documentsCmd.Flags().IntVar(&listParty, "party", 0, "filter by party id")

	certifyCmd.Flags().StringVar(&certifyNumber, "number", "", "manual-series literal fiscal number")
	certifyCmd.Flags().StringVar(&certifyHash, "hash", "", "manual-series literal signature")
	certifyCmd.Flags().IntVar(&certifyUser, "user", 0, "issuing operator id (for allowlisted series)")

	cancelCmd.Flags().StringVar(&cancelReason, "reason", "", "cancellation reason (required)")
	_ = cancelCmd.MarkFlagRequired("reason")

	payCmd.Flags().StringVar(&payAmount, "amount", "", "payment amount (required)")
	payCmd.Flags().StringVar(&payMethod, "method", "NUMERARIO", "payment method")
	payCmd.Flags().IntVar(&payRegister, "register", 0, "cash register id")
	_ = payCmd.MarkFlagRequired("amount")

	rootCmd.AddCommand(documentsCmd, showCmd, certifyCmd, cancelCmd, payCmd, typesCmd)
}
