package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/michealimuse777/solana-ai-agent/service/registry"
)

func tokensCommand() *cli.Command {
	return &cli.Command{
		Name:  "tokens",
		Usage: "List the tokens the agent can build transactions for",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "network",
				Aliases: []string{"n"},
				Usage:   "Network to list tokens for (devnet or mainnet)",
				Value:   "devnet",
			},
		},
		Action: func(c *cli.Context) error {
			network := c.String("network")
			if network != "devnet" && network != "mainnet" {
				return fmt.Errorf("invalid network %q: must be devnet or mainnet", network)
			}

			reg := registry.ForNetwork(network)

			if c.Bool("json") {
				type tokenInfo struct {
					Symbol   string `json:"symbol"`
					Mint     string `json:"mint"`
					Decimals uint8  `json:"decimals"`
					Native   bool   `json:"native"`
				}
				out := make([]tokenInfo, 0)
				for _, sym := range reg.Symbols() {
					tok, err := reg.Resolve(sym)
					if err != nil {
						return err
					}
					out = append(out, tokenInfo{
						Symbol:   tok.Symbol,
						Mint:     tok.Mint.String(),
						Decimals: tok.Decimals,
						Native:   tok.Native,
					})
				}
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Tokens on %s:\n", network)
			for _, sym := range reg.Symbols() {
				tok, err := reg.Resolve(sym)
				if err != nil {
					return err
				}
				kind := "spl-token"
				if tok.Native {
					kind = "native"
				}
				fmt.Printf("  %-6s %-10s decimals=%d  mint=%s\n", tok.Symbol, kind, tok.Decimals, tok.Mint)
			}
			return nil
		},
	}
}
