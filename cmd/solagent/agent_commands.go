package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"

	"github.com/michealimuse777/solana-ai-agent/client"
)

func executeCommand() *cli.Command {
	return &cli.Command{
		Name:      "execute",
		Usage:     "Turn a natural-language prompt into an unsigned transaction",
		ArgsUsage: "PROMPT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "User wallet public key (base58)",
				EnvVars:  []string{"SOLAGENT_USER_PUBKEY"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "network",
				Aliases: []string{"n"},
				Usage:   "Target network (devnet or mainnet)",
				Value:   "devnet",
			},
			&cli.StringFlag{
				Name:    "payment-sig",
				Aliases: []string{"p"},
				Usage:   "Payment proof signature (or the dev bypass token)",
				EnvVars: []string{"SOLAGENT_PAYMENT_SIG"},
			},
			&cli.StringSliceFlag{
				Name:    "must-jq",
				Usage:   "jq filter expression that must evaluate to true against the response (can be specified multiple times, all must match)",
				Aliases: []string{"jq"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   60 * time.Second,
				Usage:   "Request timeout",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("prompt is required")
			}

			prompt := c.Args().Get(0)
			serverURL := c.String("server-url")
			jqFilters := c.StringSlice("must-jq")
			jsonOutput := c.Bool("json")

			// Compile jq filters up front so a typo fails before the call
			compiledJQFilters := make([]*gojq.Code, len(jqFilters))
			for i, filter := range jqFilters {
				query, err := gojq.Parse(filter)
				if err != nil {
					return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
				}
				compiledJQFilters[i], err = gojq.Compile(query)
				if err != nil {
					return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
				}
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelError, // Only errors to stderr
			}))

			cl := client.NewClient(serverURL, &http.Client{Timeout: c.Duration("timeout")}, logger)

			ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
			defer cancel()

			resp, err := cl.Execute(ctx, client.ExecuteParams{
				Prompt:     prompt,
				UserPubkey: c.String("user"),
				Network:    c.String("network"),
				PaymentSig: c.String("payment-sig"),
			})
			if err != nil {
				var payErr *client.PaymentRequiredError
				if errors.As(err, &payErr) {
					fmt.Fprintf(os.Stderr, "Payment required.\n")
					fmt.Fprintf(os.Stderr, "  Address: %s\n", payErr.Address)
					fmt.Fprintf(os.Stderr, "  Amount:  %d lamports\n", payErr.Amount)
					if payErr.PaymentURL != "" {
						fmt.Fprintf(os.Stderr, "  Pay URL: %s\n", payErr.PaymentURL)
					}
				}
				return fmt.Errorf("execute failed: %w", err)
			}

			if err := checkJQFilters(resp, compiledJQFilters, jqFilters); err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal response: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			printExecuteResponse(resp)
			return nil
		},
	}
}

// checkJQFilters runs every compiled filter against the response rendered as
// generic JSON; each one must produce a truthy first value.
func checkJQFilters(resp *client.ExecuteResponse, compiled []*gojq.Code, sources []string) error {
	if len(compiled) == 0 {
		return nil
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response for jq: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal response for jq: %w", err)
	}

	for i, code := range compiled {
		iter := code.Run(doc)
		v, ok := iter.Next()
		if !ok {
			return fmt.Errorf("jq filter %q produced no result", sources[i])
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("jq filter %q failed: %w", sources[i], err)
		}
		if !isTruthy(v) {
			return fmt.Errorf("jq filter %q did not match", sources[i])
		}
	}
	return nil
}

func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	// Everything else (numbers, strings, objects, arrays) is truthy
	return true
}

func printExecuteResponse(resp *client.ExecuteResponse) {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("✓ %s\n", resp.ActionType)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Message:     %s\n", resp.Message)

	if resp.TxBase64 != nil {
		fmt.Printf("Transaction: %s\n", *resp.TxBase64)
	}
	if len(resp.Meta) > 0 && string(resp.Meta) != "null" {
		fmt.Printf("Meta:        %s\n", string(resp.Meta))
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}
