package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"donasi-be/internal/payment"

	"github.com/spf13/cobra"
)

func newSignCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Compute a gateway signature",
	}

	cmd.AddCommand(
		newSignIpaymuCommand(),
		newSignMidtransCommand(),
	)

	return cmd
}

type signIpaymuOptions struct {
	va        string
	apiKey    string
	method    string
	file      string
	canonical bool
}

func newSignIpaymuCommand() *cobra.Command {
	opts := &signIpaymuOptions{}

	cmd := &cobra.Command{
		Use:   "ipaymu",
		Short: "Sign an iPaymu request or callback body",
		Long: `Print the iPaymu signature of a JSON body:
HMAC-SHA256(apiKey, METHOD:va:lower(hex(sha256(body))):apiKey).

With --canonical the body is re-encoded with sorted keys first, the way
incoming callbacks are checked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignIpaymu(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.va, "va", os.Getenv("IPAYMU_VA"), "iPaymu virtual account (default $IPAYMU_VA)")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", os.Getenv("IPAYMU_API_KEY"), "iPaymu API key (default $IPAYMU_API_KEY)")
	cmd.Flags().StringVar(&opts.method, "method", http.MethodPost, "HTTP method")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "body file, - for stdin")
	cmd.Flags().BoolVar(&opts.canonical, "canonical", false, "re-encode the body with sorted keys before signing")

	return cmd
}

func runSignIpaymu(cmd *cobra.Command, opts *signIpaymuOptions) error {
	if opts.va == "" || opts.apiKey == "" {
		return fmt.Errorf("--va and --api-key are required")
	}

	body, err := readInput(cmd, opts.file)
	if err != nil {
		return err
	}
	body = bytes.TrimRight(body, "\r\n")

	if opts.canonical {
		payload, err := decodePayload(body, false)
		if err != nil {
			return err
		}
		if body, err = payment.CanonicalBody(payload); err != nil {
			return err
		}
	} else if !json.Valid(body) {
		return fmt.Errorf("invalid JSON body")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "body:      %s\n", body)
	fmt.Fprintf(out, "sha256:    %s\n", payment.SHA256Hex(body))
	fmt.Fprintf(out, "signature: %s\n", payment.IpaymuSignature(strings.ToUpper(opts.method), opts.va, body, opts.apiKey))
	return nil
}

type signMidtransOptions struct {
	orderID     string
	statusCode  string
	grossAmount string
	serverKey   string
}

func newSignMidtransCommand() *cobra.Command {
	opts := &signMidtransOptions{}

	cmd := &cobra.Command{
		Use:   "midtrans",
		Short: "Compute a Midtrans notification signature_key",
		Long: `Print SHA512(order_id + status_code + gross_amount + server_key).
gross_amount must be passed exactly as Midtrans sends it, e.g. 50000.00.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.serverKey == "" {
				return fmt.Errorf("--server-key is required")
			}
			fmt.Fprintln(cmd.OutOrStdout(), payment.MidtransSignature(opts.orderID, opts.statusCode, opts.grossAmount, opts.serverKey))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.orderID, "order-id", "", "order_id (required)")
	cmd.Flags().StringVar(&opts.statusCode, "status-code", "", "status_code (required)")
	cmd.Flags().StringVar(&opts.grossAmount, "gross-amount", "", "gross_amount as sent, e.g. 50000.00 (required)")
	cmd.Flags().StringVar(&opts.serverKey, "server-key", os.Getenv("MIDTRANS_SERVER_KEY"), "Midtrans server key (default $MIDTRANS_SERVER_KEY)")
	cmd.MarkFlagRequired("order-id")
	cmd.MarkFlagRequired("status-code")
	cmd.MarkFlagRequired("gross-amount")

	return cmd
}
