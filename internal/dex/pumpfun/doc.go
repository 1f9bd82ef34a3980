// Package pumpfun implements the bonding-curve phase of a pump.fun token.
//
// This package provides:
// - PDA derivation for the curve program (global, bonding-curve, creator vault, volume accumulators, fee config).
// - Decoding of the global and bonding-curve accounts.
// - Exact integer pricing of buys and sells against the virtual reserves.
// - Construction of buy and sell instructions in the account order the program expects.
//
// Files:
//   - accounts.go: address derivation and TradeAccounts resolution.
//   - global_account.go, bonding_curve.go: account layouts and fetch helpers.
//   - token_calc.go: CalcBuy, CalcSell and the spot price quote.
//   - instructions.go: BuildBuyInstruction, BuildSellInstruction.
//
// Usage example:
//
//	curve, err := pumpfun.FetchBondingCurve(ctx, client, mint)
//	if err != nil {
//	    return err
//	}
//	accounts, err := pumpfun.ResolveTradeAccounts(mint, user, global, curve, solana.TokenProgramID)
//	if err != nil {
//	    return err
//	}
//	tokens := curve.QuoteBuy(10_000_000)
//	ix, err := pumpfun.BuildBuyInstruction(curve, accounts, tokens, 10_500_000)
package pumpfun
