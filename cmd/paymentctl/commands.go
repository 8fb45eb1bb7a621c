package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/app"
	circuitbreaker "github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/circuit-breaker"
	paymentgateway "github.com/alimikegami/crispy-cravings/payment-service/internal/infrastructure/payment-gateway"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/repository"
	"github.com/alimikegami/crispy-cravings/payment-service/internal/service"
	pkgdto "github.com/alimikegami/crispy-cravings/payment-service/pkg/dto"
	"github.com/spf13/cobra"
)

// services holds what a command needs against the configured store.
type services struct {
	payments    service.PaymentService
	paymentRepo repository.PaymentRepository
	close       func()
}

func openServices(conf *config.Config) (*services, error) {
	if conf.MongoDBConfig.URI == "" {
		return nil, errors.New("MONGODB_URI is required")
	}

	orderRepo, paymentRepo, closeStorage, err := app.OpenStorage(conf)
	if err != nil {
		return nil, err
	}

	publisher, closePublisher := app.CreatePublisher(conf)
	gateway := paymentgateway.CreatePaystackClient(conf.PaystackConfig, circuitbreaker.CreateCircuitBreaker("paystack"))

	return &services{
		payments:    service.CreatePaymentService(orderRepo, paymentRepo, gateway, publisher, app.CreateMailer(conf), conf),
		paymentRepo: paymentRepo,
		close: func() {
			closePublisher()
			closeStorage()
		},
	}, nil
}

func verifyCmd(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [reference]",
		Short: "Verify a transaction with Paystack and reconcile its order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(conf)
			if err != nil {
				return err
			}
			defer svc.close()

			if err = svc.payments.VerifyPayment(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: payment verified and order updated\n", args[0])
			return nil
		},
	}
}

func sweepCmd(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Re-verify pending mobile money orders once",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(conf)
			if err != nil {
				return err
			}
			defer svc.close()

			return svc.payments.SweepPendingPayments(cmd.Context())
		},
	}
}

func unmatchedCmd(conf *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unmatched",
		Short: "List successful payments that matched no order",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			svc, err := openServices(conf)
			if err != nil {
				return err
			}
			defer svc.close()

			payments, err := svc.paymentRepo.GetUnmatchedPayments(cmd.Context(), pkgdto.Filter{Limit: limit})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(payments) == 0 {
				fmt.Fprintln(out, "No unmatched payments")
				return nil
			}

			for _, p := range payments {
				fmt.Fprintf(out, "%-24s %10d  %-14s %-8s %s\n", p.Reference, p.Amount, p.Channel, p.Source, p.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 50, "Maximum results")

	return cmd
}

// signCmd prints the signature header value for a webhook payload, for
// replaying events against a local server.
func signCmd(conf *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [file]",
		Short: "Compute the X-Paystack-Signature for a webhook payload",
		Long:  "Reads the payload from file, or from stdin when file is - or omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := cmd.Flags().GetString("secret")
			if err != nil {
				return err
			}
			if secret == "" {
				secret = conf.PaystackConfig.SecretKey
			}
			if secret == "" {
				return errors.New("no secret: set PAYSTACK_SECRET_KEY or pass --secret")
			}

			var body []byte
			if len(args) == 0 || args[0] == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			if !json.Valid(body) {
				return errors.New("payload is not valid JSON")
			}

			fmt.Fprintln(cmd.OutOrStdout(), paymentgateway.ComputeSignature(secret, body))
			return nil
		},
	}

	cmd.Flags().String("secret", "", "Paystack secret key (defaults to PAYSTACK_SECRET_KEY)")

	return cmd
}
