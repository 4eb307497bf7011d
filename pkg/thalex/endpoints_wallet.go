package thalex

import "context"

// VerifyWithdrawal checks a withdrawal without executing it.
func (c *Client) VerifyWithdrawal(ctx context.Context, assetName string, amount float64, targetAddress string, opts ...CallOption) error {
	return c.send(ctx, "private/verify_withdrawal", Params{
		"asset_name":     assetName,
		"amount":         amount,
		"target_address": targetAddress,
	}, opts...)
}

func (c *Client) Withdraw(ctx context.Context, assetName string, amount float64, targetAddress, label string, opts ...CallOption) error {
	return c.send(ctx, "private/withdraw", Params{
		"asset_name":     assetName,
		"amount":         amount,
		"target_address": targetAddress,
		"label":          label,
	}, opts...)
}

// The wallet listings below are served under the public/ prefix by the
// exchange but still require a logged in session.

func (c *Client) CryptoWithdrawals(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "public/crypto_withdrawals", nil, opts...)
}

func (c *Client) CryptoDeposits(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "public/crypto_deposits", nil, opts...)
}

func (c *Client) BTCDepositAddress(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "public/btc_deposit_address", nil, opts...)
}

func (c *Client) ETHDepositAddress(ctx context.Context, opts ...CallOption) error {
	return c.send(ctx, "public/eth_deposit_address", nil, opts...)
}

// VerifyInternalTransfer checks a transfer of assets and positions to another
// account without executing it.
func (c *Client) VerifyInternalTransfer(ctx context.Context, destinationAccount string, assets []Asset, positions []Position, opts ...CallOption) error {
	return c.send(ctx, "private/verify_internal_transfer", Params{
		"destination_account_number": destinationAccount,
		"assets":                     assets,
		"positions":                  positions,
	}, opts...)
}

func (c *Client) InternalTransfer(ctx context.Context, destinationAccount string, assets []Asset, positions []Position, label string, opts ...CallOption) error {
	return c.send(ctx, "private/internal_transfer", Params{
		"destination_account_number": destinationAccount,
		"assets":                     assets,
		"positions":                  positions,
		"label":                      label,
	}, opts...)
}
