// Package intent turns natural-language prompts into validated, typed
// commands the agent can execute.
package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Parser turns a user prompt into a structured Intent.
type Parser interface {
	Parse(ctx context.Context, prompt string) (*Intent, error)
}

// Action is the closed set of operations the agent supports.
type Action string

const (
	ActionSwap     Action = "SWAP"
	ActionTransfer Action = "TRANSFER"
	ActionMintNFT  Action = "MINT_NFT"
	ActionUnknown  Action = "UNKNOWN"
)

// ParseAction normalizes a model-produced action string into the closed set.
func ParseAction(s string) Action {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SWAP":
		return ActionSwap
	case "TRANSFER":
		return ActionTransfer
	case "MINT_NFT":
		return ActionMintNFT
	default:
		return ActionUnknown
	}
}

// Intent is the model's raw interpretation of a prompt. Fields are only
// meaningful for the actions that use them; Command validates and narrows.
type Intent struct {
	Action    string  `json:"action"`
	Amount    float64 `json:"amount,omitempty"`
	TokenIn   string  `json:"token_in,omitempty"`
	TokenOut  string  `json:"token_out,omitempty"`
	Recipient string  `json:"recipient,omitempty"`
	NFTName   string  `json:"nft_name,omitempty"`
}

// Command is the validated, typed form of an Intent. Each concrete command
// carries exactly the fields its action needs.
type Command interface {
	Action() Action
}

// SwapCommand exchanges one token for another.
type SwapCommand struct {
	Amount   float64
	TokenIn  string
	TokenOut string
}

func (SwapCommand) Action() Action { return ActionSwap }

// TransferCommand sends tokens to a recipient. An empty Token means native SOL.
type TransferCommand struct {
	Amount    float64
	Token     string
	Recipient string
}

func (TransferCommand) Action() Action { return ActionTransfer }

// MintNFTCommand mints an NFT. An empty Name gets a default downstream.
type MintNFTCommand struct {
	Name string
}

func (MintNFTCommand) Action() Action { return ActionMintNFT }

// ErrMissingRecipient indicates a transfer intent without a destination.
var ErrMissingRecipient = errors.New("transfer requires a recipient")

// UnknownActionError indicates an action outside the supported set.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Action)
}

// Command validates the intent and returns its typed command.
func (in *Intent) Command() (Command, error) {
	switch ParseAction(in.Action) {
	case ActionSwap:
		if in.Amount <= 0 {
			return nil, fmt.Errorf("swap amount must be positive, got %v", in.Amount)
		}
		if in.TokenIn == "" || in.TokenOut == "" {
			return nil, errors.New("swap requires both token_in and token_out")
		}
		return SwapCommand{Amount: in.Amount, TokenIn: in.TokenIn, TokenOut: in.TokenOut}, nil

	case ActionTransfer:
		if in.Recipient == "" {
			return nil, ErrMissingRecipient
		}
		if in.Amount <= 0 {
			return nil, fmt.Errorf("transfer amount must be positive, got %v", in.Amount)
		}
		return TransferCommand{Amount: in.Amount, Token: in.TokenIn, Recipient: in.Recipient}, nil

	case ActionMintNFT:
		return MintNFTCommand{Name: in.NFTName}, nil

	default:
		return nil, &UnknownActionError{Action: in.Action}
	}
}
