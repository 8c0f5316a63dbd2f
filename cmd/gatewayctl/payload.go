package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"donasi-be/internal/payment"

	"github.com/spf13/cobra"
)

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return b, nil
}

// decodePayload reads a JSON object, or a urlencoded form when form is set.
func decodePayload(raw []byte, form bool) (payment.WebhookPayload, error) {
	if form {
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		payload := make(payment.WebhookPayload, len(values))
		for k := range values {
			payload[k] = values.Get(k)
		}
		return payload, nil
	}

	var payload payment.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("payload must be a JSON object")
	}
	return payload, nil
}
