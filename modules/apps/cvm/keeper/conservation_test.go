package keeper_test

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"pgregory.net/rapid"

	"github.com/ComposableFi/centauri/modules/apps/cvm/types"
)

// Transfer-only programs move funds out of the interpreter without creating
// or losing any.
func (suite *KeeperTestSuite) TestTransferProgramsConserveFunds() {
	recipients := []sdk.AccAddress{bob, tip, echo}

	rapid.Check(suite.T(), func(t *rapid.T) {
		ctx, _ := suite.ctx.CacheContext()
		interpreter := suite.keeper.InterpreterAddress(ctx, suite.aliceOrigin(""))
		start := suite.fungibles.Balance(ctx, "stake", interpreter)
		incoming := rapid.Int64Range(1, 1000).Draw(t, "incoming").(int64)

		var program types.Program
		n := rapid.IntRange(1, 5).Draw(t, "instructions").(int)
		for i := 0; i < n; i++ {
			to := recipients[rapid.IntRange(0, len(recipients)-1).Draw(t, "to").(int)]
			amount := types.Ratio(types.NewU128(rapid.Uint64Min(1).Draw(t, "share").(uint64)))
			if rapid.Bool().Draw(t, "fixed").(bool) {
				amount = types.Fixed(types.NewU128(rapid.Uint64Range(1, 100).Draw(t, "amount").(uint64)))
			}
			program.Instructions = append(program.Instructions, transferTo(to, stake, amount))
		}

		before := make([]sdk.Int, len(recipients))
		for i, recipient := range recipients {
			before[i] = suite.fungibles.Balance(ctx, "stake", recipient)
		}

		_, err := suite.keeper.ExecuteProgram(ctx, alice, program, sdk.NewCoins(sdk.NewInt64Coin("stake", incoming)), "")
		if err != nil {
			// zero or uncovered amounts abort the whole program
			return
		}

		outflows := sdk.ZeroInt()
		for i, recipient := range recipients {
			outflows = outflows.Add(suite.fungibles.Balance(ctx, "stake", recipient).Sub(before[i]))
		}
		end := suite.fungibles.Balance(ctx, "stake", interpreter)
		if !outflows.Add(end).Equal(start.AddRaw(incoming)) {
			t.Fatalf("outflows %s + end %s != start %s + incoming %d", outflows, end, start, incoming)
		}
	})
}
