// cmd/pumptrader/commands.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/pump-trader/internal/config"
	"github.com/rovshanmuradov/pump-trader/internal/events"
	"github.com/rovshanmuradov/pump-trader/internal/logger"
	"github.com/rovshanmuradov/pump-trader/internal/trade"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "pumptrader",
		Short:         "Trade pump.fun tokens on the bonding curve and in PumpSwap pools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (json, yaml or toml)")

	root.AddCommand(
		newModeCmd(&cfgPath),
		newQuoteCmd(&cfgPath),
		newBalanceCmd(&cfgPath),
		newBuyCmd(&cfgPath),
		newSellCmd(&cfgPath),
		newWatchCmd(&cfgPath),
	)
	return root
}

// withApp создаёт app на время одной команды.
func withApp(cfgPath *string, needSigner bool, fn func(context.Context, *app, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(*cfgPath, needSigner)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd.Context(), a, args)
	}
}

func parseMint(raw string) (solana.PublicKey, error) {
	mint, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid mint %q: %w", raw, err)
	}
	return mint, nil
}

func newModeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mode <mint>",
		Short: "Show whether the token trades on the curve or in the pool",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgPath, false, func(ctx context.Context, a *app, args []string) error {
			mint, err := parseMint(args[0])
			if err != nil {
				return err
			}
			phase, err := a.engine.TradeMode(ctx, mint)
			if err != nil {
				return err
			}
			program, err := a.engine.DetectTokenProgram(ctx, mint)
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s\t%s\n", mint, phase, program.Kind)
			return nil
		}),
	}
}

func newQuoteCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <mint>",
		Short: "Show the current token price in SOL",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(cfgPath, false, func(ctx context.Context, a *app, args []string) error {
			mint, err := parseMint(args[0])
			if err != nil {
				return err
			}
			price, err := a.engine.QuotePrice(ctx, mint)
			if err != nil {
				return err
			}
			name := mint.String()
			if md, err := a.engine.TokenMetadata(ctx, mint); err == nil && md.Symbol != "" {
				name = md.Symbol
			} else if err != nil {
				a.log.Debug("Metadata unavailable", zap.Error(err))
			}
			fmt.Printf("%s\t%s SOL\n", name, price.String())
			return nil
		}),
	}
}

func newBalanceCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [mint]",
		Short: "Show wallet SOL balance and, optionally, the token balance",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, args []string) error {
			lamports, err := a.engine.SolBalance(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("SOL\t%d\n", lamports)
			if len(args) == 0 {
				return nil
			}
			mint, err := parseMint(args[0])
			if err != nil {
				return err
			}
			tokens, err := a.engine.TokenBalance(ctx, mint)
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%d\n", mint, tokens)
			return nil
		}),
	}
}

func newBuyCmd(cfgPath *string) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "buy <mint> <sol>",
		Short: "Buy tokens for the given SOL amount, split into sub-orders",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, args []string) error {
			mint, err := parseMint(args[0])
			if err != nil {
				return err
			}
			lamports, err := config.SOLToLamports(args[1])
			if err != nil {
				return err
			}
			defer a.log.TrackPerformance("buy")()
			outcome, err := a.engine.PlanAndExecuteBuy(ctx, mint, lamports)
			if err != nil {
				return err
			}
			return report(ctx, a, outcome, wait)
		}),
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for confirmation of every sent sub-order")
	return cmd
}

func newSellCmd(cfgPath *string) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "sell <mint> <tokens|all>",
		Short: "Sell raw token units (or the whole balance), split into sub-orders",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(cfgPath, true, func(ctx context.Context, a *app, args []string) error {
			mint, err := parseMint(args[0])
			if err != nil {
				return err
			}
			tokens, err := parseTokenAmount(ctx, a, mint, args[1])
			if err != nil {
				return err
			}
			defer a.log.TrackPerformance("sell")()
			outcome, err := a.engine.PlanAndExecuteSell(ctx, mint, tokens)
			if err != nil {
				return err
			}
			return report(ctx, a, outcome, wait)
		}),
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for confirmation of every sent sub-order")
	return cmd
}

func parseTokenAmount(ctx context.Context, a *app, mint solana.PublicKey, raw string) (uint64, error) {
	if strings.EqualFold(raw, "all") {
		return a.engine.TokenBalance(ctx, mint)
	}
	tokens, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token amount %q: %w", raw, err)
	}
	return tokens, nil
}

// report печатает результат и при wait дожидается подтверждений.
func report(ctx context.Context, a *app, outcome *trade.TradeOutcome, wait bool) error {
	for _, f := range outcome.Failed {
		fmt.Printf("#%d\t%d\tFAILED\t%v\n", f.Index, f.Amount, f.Err)
	}
	var confirmErrs []error
	for _, p := range outcome.Pending {
		status := "sent"
		if wait {
			if _, err := a.engine.WaitForConfirmation(ctx, p); err != nil {
				status = "not confirmed"
				confirmErrs = append(confirmErrs, err)
				a.log.WithTransaction(p.Signature.String()).Warn("Sub-order not confirmed", zap.Error(err))
			} else {
				status = "confirmed"
			}
		}
		fmt.Printf("#%d\t%d\t%s\t%s\n", p.Index, p.Amount, logger.ShortenSignature(p.Signature.String()), status)
	}
	if outcome.AllFailed() {
		return fmt.Errorf("all %d %s sub-orders failed", len(outcome.Failed), outcome.Side)
	}
	return errors.Join(confirmErrs...)
}

func newWatchCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [mint]",
		Short: "Stream trade events for one mint or for the whole program",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(cfgPath, false, func(ctx context.Context, a *app, args []string) error {
			var filter *solana.PublicKey
			if len(args) == 1 {
				mint, err := parseMint(args[0])
				if err != nil {
					return err
				}
				filter = &mint
			}
			return watch(ctx, a, filter)
		}),
	}
}

func watch(ctx context.Context, a *app, filter *solana.PublicKey) error {
	log := a.log.WithOperation("watch")
	g, gctx := errgroup.WithContext(ctx)

	if a.cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              a.cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			err := srv.ListenAndServe()
			if err == nil || errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			log.Error("Metrics server failed", zap.String("addr", a.cfg.MetricsAddr), zap.Error(err))
			return fmt.Errorf("metrics server: %w", err)
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			return nil
		})
	}

	sub, err := a.engine.SubscribeTrades(gctx, filter, func(ev *events.TradeEvent) {
		side := "SELL"
		if ev.IsBuy {
			side = "BUY"
		}
		fmt.Printf("%s\t%s\t%s\tsol=%d\ttokens=%d\t%s\n",
			ev.Timestamp().Format(time.RFC3339), side,
			logger.ShortenAddress(ev.Mint.String()), ev.SolAmount, ev.TokenAmount,
			logger.ShortenSignature(ev.Signature.String()))
	})
	if err != nil {
		if errors.Is(err, trade.ErrNoLogSource) {
			return fmt.Errorf("%w: set ws_url", err)
		}
		return err
	}
	log.Info("Watching trade events", zap.Bool("filtered", filter != nil))

	g.Go(func() error {
		<-gctx.Done()
		sub.Unsubscribe()
		log.Info("Stopped watching trade events")
		return nil
	})
	return g.Wait()
}
