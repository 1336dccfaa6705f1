package host

import (
	"context"
	"math/big"
	"path/filepath"
	"sync"
	"testing"

	"github.com/blues/crowdfund/internal/campaign"
	"github.com/blues/crowdfund/internal/model"
	"github.com/blues/crowdfund/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

const deadline = uint64(2_000)

type manualClock struct {
	mu  sync.Mutex
	now uint64
}

func (c *manualClock) Now(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now, nil
}

func (c *manualClock) Set(now uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.Open(sqlite.Open(filepath.Join(t.TempDir(), "host.db")))
	require.NoError(t, err)
	return db
}

func deployed(t *testing.T, target int64) (*Runtime, *manualClock, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	clock := &manualClock{now: 100}
	rt := NewRuntime(db, clock)

	err := rt.Deploy(context.Background(), owner, DeployParams{
		Target:   big.NewInt(target),
		Deadline: deadline,
		Alloc: map[common.Address]*big.Int{
			alice: big.NewInt(5_000),
			bob:   big.NewInt(5_000),
		},
	})
	require.NoError(t, err)
	return rt, clock, db
}

func fund(ctx context.Context, rt *Runtime, caller common.Address, payment *big.Int) error {
	_, err := rt.Fund(ctx, caller, payment)
	return err
}

func balance(t *testing.T, rt *Runtime, addr common.Address) string {
	t.Helper()
	v, err := rt.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return v.String()
}

func TestDeploy(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	clock := &manualClock{now: 100}
	rt := NewRuntime(db, clock)

	ok, err := rt.Deployed(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = rt.Status(ctx)
	require.ErrorIs(t, err, ErrNotDeployed)

	require.ErrorIs(t, rt.Deploy(ctx, owner, DeployParams{Target: big.NewInt(0), Deadline: deadline}), campaign.ErrInvalidTarget)
	require.ErrorIs(t, rt.Deploy(ctx, owner, DeployParams{Target: big.NewInt(10), Deadline: 100}), campaign.ErrInvalidDeadline)

	// 失败的部署不留下初始余额
	require.ErrorIs(t, rt.Deploy(ctx, owner, DeployParams{
		Target:   big.NewInt(0),
		Deadline: deadline,
		Alloc:    map[common.Address]*big.Int{alice: big.NewInt(1)},
	}), campaign.ErrInvalidTarget)
	assert.Equal(t, "0", balance(t, rt, alice))

	require.NoError(t, rt.Deploy(ctx, owner, DeployParams{Target: big.NewInt(1000), Deadline: deadline}))
	require.ErrorIs(t, rt.Deploy(ctx, owner, DeployParams{Target: big.NewInt(5), Deadline: deadline}), ErrAlreadyDeployed)

	info, err := rt.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner, info.Owner)
	assert.Equal(t, ContractAddress(owner), info.Contract)
	assert.Equal(t, "1000", info.Target.String())
	assert.Equal(t, deadline, info.Deadline)
	assert.Nil(t, info.MaxPerWallet)
	assert.Equal(t, campaign.FundingPeriod, info.Status)
}

func TestFundMovesPaymentIntoContract(t *testing.T) {
	ctx := context.Background()
	rt, _, _ := deployed(t, 1000)
	contract := ContractAddress(owner)

	require.ErrorIs(t, fund(ctx, rt, alice, big.NewInt(0)), ErrNoPayment)
	require.ErrorIs(t, fund(ctx, rt, alice, nil), ErrNoPayment)

	require.NoError(t, fund(ctx, rt, alice, big.NewInt(600)))
	require.NoError(t, fund(ctx, rt, alice, big.NewInt(500)))

	dep, err := rt.Deposit(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "1100", dep.String())
	assert.Equal(t, "3900", balance(t, rt, alice))
	assert.Equal(t, "1100", balance(t, rt, contract))

	funds, err := rt.CurrentFunds(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1100", funds.String())

	// 余额不足由宿主拒绝
	require.ErrorIs(t, fund(ctx, rt, bob, big.NewInt(10_000)), repository.ErrInsufficientBalance)
}

func TestFundRejectedRollsBackPayment(t *testing.T) {
	ctx := context.Background()
	rt, clock, _ := deployed(t, 1000)
	contract := ContractAddress(owner)

	require.NoError(t, rt.SetMaxPerWallet(ctx, owner, big.NewInt(500)))
	require.ErrorIs(t, fund(ctx, rt, alice, big.NewInt(600)), campaign.ErrWalletCapExceeded)

	dep, err := rt.Deposit(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, dep.Sign())
	assert.Equal(t, "5000", balance(t, rt, alice))
	assert.Equal(t, "0", balance(t, rt, contract))

	clock.Set(deadline)
	require.ErrorIs(t, fund(ctx, rt, alice, big.NewInt(100)), campaign.ErrCampaignClosed)
	assert.Equal(t, "5000", balance(t, rt, alice))

	status, err := rt.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, campaign.FundingPeriod, status)
}

func TestSetMaxPerWallet(t *testing.T) {
	ctx := context.Background()
	rt, _, _ := deployed(t, 1000)

	require.ErrorIs(t, rt.SetMaxPerWallet(ctx, alice, big.NewInt(10)), campaign.ErrUnauthorized)
	require.ErrorIs(t, rt.SetMaxPerWallet(ctx, owner, big.NewInt(0)), campaign.ErrInvalidCap)

	require.NoError(t, rt.SetMaxPerWallet(ctx, owner, big.NewInt(10)))
	max, err := rt.MaxPerWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", max.String())
}

func TestSuccessfulCampaignPaysOwner(t *testing.T) {
	ctx := context.Background()
	rt, clock, db := deployed(t, 1000)

	require.NoError(t, fund(ctx, rt, alice, big.NewInt(600)))
	require.NoError(t, fund(ctx, rt, alice, big.NewInt(500)))

	_, err := rt.Claim(ctx, owner)
	require.ErrorIs(t, err, campaign.ErrTooEarly)

	clock.Set(deadline + 1)
	status, err := rt.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, campaign.Successful, status)

	_, err = rt.Claim(ctx, alice)
	require.ErrorIs(t, err, campaign.ErrUnauthorized)

	s, err := rt.Claim(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, campaign.SettlementPayout, s.Kind)
	assert.Equal(t, "1100", s.Amount.String())
	assert.Equal(t, "1100", balance(t, rt, owner))
	assert.Equal(t, "0", balance(t, rt, ContractAddress(owner)))

	// 提款后余额为 0，阶段变为失败；贡献者的退款因合约无余额被整体回滚
	_, err = rt.Claim(ctx, alice)
	require.ErrorIs(t, err, repository.ErrInsufficientBalance)
	dep, err := rt.Deposit(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "1100", dep.String())
	assert.Equal(t, "3900", balance(t, rt, alice))

	events, total, err := repository.NewEventStore(db).List(ctx, model.EventTypePayout, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, owner.Hex(), events[0].Caller)
	assert.NotEmpty(t, events[0].CallId)
}

func TestFailedCampaignRefundsOnce(t *testing.T) {
	ctx := context.Background()
	rt, clock, db := deployed(t, 1000)

	require.NoError(t, fund(ctx, rt, alice, big.NewInt(300)))
	clock.Set(deadline + 1)

	status, err := rt.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, campaign.Failed, status)

	s, err := rt.Claim(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, campaign.SettlementRefund, s.Kind)
	assert.Equal(t, "300", s.Amount.String())
	assert.Equal(t, "5000", balance(t, rt, alice))

	s, err = rt.Claim(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, campaign.SettlementNone, s.Kind)
	assert.Equal(t, "5000", balance(t, rt, alice))

	_, total, err := repository.NewEventStore(db).List(ctx, model.EventTypeRefunded, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestDirectTransferCanResolveCampaign(t *testing.T) {
	ctx := context.Background()
	rt, clock, _ := deployed(t, 1000)
	contract := ContractAddress(owner)

	require.NoError(t, fund(ctx, rt, alice, big.NewInt(400)))
	require.ErrorIs(t, rt.Send(ctx, bob, contract, big.NewInt(0)), ErrInvalidAmount)
	require.NoError(t, rt.Send(ctx, bob, contract, big.NewInt(600)))

	clock.Set(deadline + 1)
	status, err := rt.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, campaign.Successful, status)

	dep, err := rt.Deposit(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, dep.Sign())
}

func TestContractBalanceCannotBeSentDirectly(t *testing.T) {
	ctx := context.Background()
	rt, clock, _ := deployed(t, 1000)
	contract := ContractAddress(owner)

	deposit, err := rt.Fund(ctx, alice, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "1000", deposit.String())

	require.ErrorIs(t, rt.Send(ctx, contract, bob, big.NewInt(1000)), ErrContractAccount)
	assert.Equal(t, "1000", balance(t, rt, contract))
	assert.Equal(t, "5000", balance(t, rt, bob))

	clock.Set(deadline + 1)
	status, err := rt.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, campaign.Successful, status)

	s, err := rt.Claim(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "1000", s.Amount.String())
}

func TestFundReturnsDeposit(t *testing.T) {
	ctx := context.Background()
	rt, _, _ := deployed(t, 1000)

	deposit, err := rt.Fund(ctx, alice, big.NewInt(600))
	require.NoError(t, err)
	assert.Equal(t, "600", deposit.String())

	deposit, err = rt.Fund(ctx, alice, big.NewInt(500))
	require.NoError(t, err)
	assert.Equal(t, "1100", deposit.String())

	_, err = rt.Fund(ctx, alice, big.NewInt(0))
	require.ErrorIs(t, err, ErrNoPayment)
}

func TestResolveStatusRecordsOnce(t *testing.T) {
	ctx := context.Background()
	rt, clock, db := deployed(t, 1000)

	status, recorded, err := rt.ResolveStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, campaign.FundingPeriod, status)
	assert.False(t, recorded)

	clock.Set(deadline + 1)
	status, recorded, err = rt.ResolveStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, campaign.Failed, status)
	assert.True(t, recorded)

	_, recorded, err = rt.ResolveStatus(ctx)
	require.NoError(t, err)
	assert.False(t, recorded)

	events, err := repository.NewEventStore(db).All(ctx, model.EventTypeStatusResolved)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.JSONEq(t, `{"status":"Failed"}`, events[0].Data)
}

func TestEventsCarryCallId(t *testing.T) {
	ctx := context.Background()
	rt, _, db := deployed(t, 1000)
	require.NoError(t, fund(ctx, rt, alice, big.NewInt(10)))
	require.NoError(t, fund(ctx, rt, alice, big.NewInt(10)))

	all, total, err := repository.NewEventStore(db).List(ctx, "", 1, 100)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	seen := make(map[string]struct{})
	for _, event := range all {
		require.Len(t, event.CallId, 36)
		seen[event.CallId] = struct{}{}
	}
	assert.Len(t, seen, 3)
}

func TestConcurrentFundsAreSerialized(t *testing.T) {
	ctx := context.Background()
	rt, _, _ := deployed(t, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, fund(ctx, rt, alice, big.NewInt(10)))
		}()
	}
	wg.Wait()

	dep, err := rt.Deposit(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "100", dep.String())
	assert.Equal(t, "100", balance(t, rt, ContractAddress(owner)))
}
