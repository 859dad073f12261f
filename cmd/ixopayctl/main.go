package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/term"

	"github.com/kevin07696/ixopay-gateway/internal/adapters/ixopay"
	"github.com/kevin07696/ixopay-gateway/internal/adapters/ports"
	"github.com/kevin07696/ixopay-gateway/internal/adapters/secrets"
	"github.com/kevin07696/ixopay-gateway/internal/config"
	"github.com/kevin07696/ixopay-gateway/pkg/security"
)

const usage = `Usage: ixopayctl -action=<action> [options]
Actions:
  purchase  - Authorize and capture -amount on a card
  authorize - Reserve -amount on a card
  verify    - Authorize the verification amount and void it
  capture   - Capture -authorization (not supported by the processor)
  refund    - Refund -authorization (not supported by the processor)
  void      - Void -authorization (not supported by the processor)

Credentials come from the same IXOPAY_* environment as the server.`

type cliOptions struct {
	action        string
	amount        decimal.Decimal
	currency      string
	authorization string
	card          ports.PaymentMethod
	opts          ports.TransactionOptions
	timeout       time.Duration
}

func main() {
	options, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if needsCard(options.action) && options.card.VerificationValue == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "CVV: ")
		cvv, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			log.Fatal("Failed to read CVV: ", err)
		}
		options.card.VerificationValue = strings.TrimSpace(string(cvv))
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger, err := security.NewZapLoggerFromLevel(cfg.Logger.Level, true)
	if err != nil {
		log.Fatal("Failed to init logger: ", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), options.timeout)
	defer cancel()

	if err := resolveCredentials(ctx, cfg, logger); err != nil {
		log.Fatal("Failed to resolve credentials: ", err)
	}

	gateway, err := ixopay.NewGatewayAdapterWithDefaults(cfg.IxopayConfig(), logger)
	if err != nil {
		log.Fatal("Failed to create gateway: ", err)
	}

	if err := execute(ctx, gateway, options, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// resolveCredentials supports the local file backend; the env backend needs nothing
func resolveCredentials(ctx context.Context, cfg *config.Config, logger *security.ZapLoggerAdapter) error {
	switch cfg.Secrets.Backend {
	case "env":
		return nil
	case "local":
		return cfg.ResolveSecrets(ctx, secrets.NewLocalSecretProvider(cfg.Secrets.LocalBasePath, logger.Zap()))
	default:
		return fmt.Errorf("secret backend %q is only supported by the server", cfg.Secrets.Backend)
	}
}

func parseArgs(args []string, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("ixopayctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		action        = fs.String("action", "", "Action to perform: purchase, authorize, verify, capture, refund, void")
		amount        = fs.String("amount", "", "Amount in major units, e.g. 10.00")
		currency      = fs.String("currency", "", "ISO 4217 currency (default from IXOPAY_DEFAULT_CURRENCY)")
		authorization = fs.String("authorization", "", "Authorization returned by a previous call")
		number        = fs.String("card", "", "Card number")
		holder        = fs.String("holder", "", "Card holder name")
		expiry        = fs.String("expiry", "", "Card expiry as MM/YYYY")
		cvv           = fs.String("cvv", "", "Card verification value (prompted when omitted)")
		email         = fs.String("email", "", "Customer email")
		ip            = fs.String("ip", "", "Customer IP")
		description   = fs.String("description", "", "Transaction description")
		timeout       = fs.Duration("timeout", 60*time.Second, "Overall deadline")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o := &cliOptions{
		action:        strings.ToLower(*action),
		currency:      strings.ToUpper(*currency),
		authorization: *authorization,
		timeout:       *timeout,
		opts: ports.TransactionOptions{
			Email:       *email,
			IP:          *ip,
			Description: *description,
		},
	}

	switch o.action {
	case "":
		return nil, errors.New("-action is required")
	case "purchase", "authorize", "verify", "capture", "refund", "void":
	default:
		return nil, fmt.Errorf("unknown action: %s", o.action)
	}

	if needsAmount(o.action) {
		if *amount == "" {
			return nil, fmt.Errorf("-amount is required for %s", o.action)
		}
		d, err := decimal.NewFromString(*amount)
		if err != nil {
			return nil, fmt.Errorf("invalid -amount %q: %w", *amount, err)
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("-amount must be positive, got %s", *amount)
		}
		o.amount = d
	}

	if needsCard(o.action) {
		if *number == "" || *expiry == "" {
			return nil, fmt.Errorf("-card and -expiry are required for %s", o.action)
		}
		var month, year int
		if _, err := fmt.Sscanf(*expiry, "%d/%d", &month, &year); err != nil || month < 1 || month > 12 || year < 1000 {
			return nil, fmt.Errorf("invalid -expiry %q, want MM/YYYY", *expiry)
		}
		o.card = ports.PaymentMethod{
			HolderName:        *holder,
			Number:            strings.ReplaceAll(*number, " ", ""),
			VerificationValue: *cvv,
			Month:             month,
			Year:              year,
		}
	} else if o.authorization == "" {
		return nil, fmt.Errorf("-authorization is required for %s", o.action)
	}

	return o, nil
}

func needsCard(action string) bool {
	return action == "purchase" || action == "authorize" || action == "verify"
}

func needsAmount(action string) bool {
	return action == "purchase" || action == "authorize" || action == "capture" || action == "refund"
}

type outcomeView struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message"`
	Authorization *string           `json:"authorization,omitempty"`
	ErrorCode     *string           `json:"error_code,omitempty"`
	Raw           map[string]string `json:"raw,omitempty"`
}

// execute runs one action and prints the outcome as JSON
func execute(ctx context.Context, gateway ports.TransactionGateway, o *cliOptions, out io.Writer) error {
	money := ports.Money{Amount: o.amount, Currency: o.currency}

	var (
		outcome *ports.Outcome
		err     error
	)
	switch o.action {
	case "purchase":
		outcome, err = gateway.Purchase(ctx, money, &o.card, o.opts)
	case "authorize":
		outcome, err = gateway.Authorize(ctx, money, &o.card, o.opts)
	case "verify":
		outcome, err = gateway.Verify(ctx, &o.card, o.opts)
	case "capture":
		outcome, err = gateway.Capture(ctx, money, o.authorization, o.opts)
	case "refund":
		outcome, err = gateway.Refund(ctx, money, o.authorization, o.opts)
	case "void":
		outcome, err = gateway.Void(ctx, o.authorization, o.opts)
	default:
		return fmt.Errorf("unknown action: %s", o.action)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", o.action, err)
	}
	if outcome == nil {
		return fmt.Errorf("%s returned no outcome", o.action)
	}

	view := outcomeView{
		Success:       outcome.Success,
		Message:       outcome.Message,
		Authorization: outcome.Authorization,
		ErrorCode:     outcome.ErrorCode,
	}
	if outcome.Raw.Len() > 0 {
		view.Raw = make(map[string]string, outcome.Raw.Len())
		for _, key := range outcome.Raw.Keys() {
			if text, ok := outcome.Raw.Text(key); ok {
				view.Raw[key] = text
			}
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
