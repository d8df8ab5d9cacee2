package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/symphony-service/internal/compiler"
	"github.com/yourorg/symphony-service/internal/kafka"
	"github.com/yourorg/symphony-service/internal/model"
)

type fakeClient struct {
	mu       sync.Mutex
	deploys  int
	failWith error
}

func (f *fakeClient) DeploySymphony(ctx context.Context, doc *model.SymphonyDocument, color, tag string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deploys++
	if f.failWith != nil {
		return "", f.failWith
	}
	return fmt.Sprintf("symph-%d", f.deploys), nil
}

type fakeStore struct {
	mu      sync.Mutex
	records []model.DeploymentRecord
}

func (f *fakeStore) Create(ctx context.Context, record *model.DeploymentRecord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *record)
	return len(f.records), nil
}

func (f *fakeStore) List(ctx context.Context, page, limit int) ([]model.DeploymentRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, len(f.records), nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []kafka.DeploymentEvent
}

func (f *fakeEvents) PublishDeploymentEvent(ctx context.Context, event kafka.DeploymentEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func newTestService(client PlatformClient) (*DeployService, *fakeStore, *fakeEvents) {
	store := &fakeStore{}
	events := &fakeEvents{}
	svc := NewDeployService(compiler.New(zap.NewNop()), client, store, events, 0, zap.NewNop())
	return svc, store, events
}

func validStrategy(name string) model.Strategy {
	return model.Strategy{
		Name:      name,
		Assets:    []string{"SPY", "QQQ"},
		Rebalance: model.CadenceWeekly,
	}
}

func TestDeployStrategyPersistsAndPublishes(t *testing.T) {
	client := &fakeClient{}
	svc, store, events := newTestService(client)

	strategy := validStrategy("Core")
	record, err := svc.DeployStrategy(context.Background(), &model.DeployRequest{
		Strategy: strategy,
		Color:    "#112233",
		Tag:      "gen-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "symph-1", record.SymphonyID)

	require.Len(t, store.records, 1)
	assert.Equal(t, "Core", store.records[0].StrategyName)
	assert.Equal(t, "#112233", store.records[0].Color)

	require.Len(t, events.events, 1)
	assert.Equal(t, "deployed", events.events[0].Status)
}

func TestDeployStrategyValidationFailureSkipsNetwork(t *testing.T) {
	client := &fakeClient{}
	svc, store, _ := newTestService(client)

	strategy := validStrategy("Broken")
	strategy.Weights = map[string]float64{"SPY": 0.5, "QQQ": 0.4}

	_, err := svc.DeployStrategy(context.Background(), &model.DeployRequest{Strategy: strategy})
	require.Error(t, err)

	assert.Equal(t, 0, client.deploys, "invalid document must never reach the platform")
	assert.Empty(t, store.records)
}

func TestDeployBatchIsolatesFailures(t *testing.T) {
	client := &fakeClient{}
	svc, store, _ := newTestService(client)

	bad := validStrategy("Bad Condition")
	bad.LogicTree = &model.LogicTreeNode{
		Type:        model.NodeConditional,
		Condition:   "VIXY_banana > 5",
		TrueBranch:  &model.LogicTreeNode{Type: model.NodeAllocation, Assets: []string{"BIL"}},
		FalseBranch: &model.LogicTreeNode{Type: model.NodeAllocation, Assets: []string{"SPY"}},
	}

	outcomes := svc.DeployBatch(context.Background(), []model.DeployRequest{
		{Strategy: validStrategy("First")},
		{Strategy: bad},
		{Strategy: validStrategy("Third")},
	})
	require.Len(t, outcomes, 3)

	assert.NotEmpty(t, outcomes[0].SymphonyID)
	assert.Empty(t, outcomes[0].Error)

	assert.Empty(t, outcomes[1].SymphonyID)
	assert.Equal(t, "unsupported_operand_format", outcomes[1].ErrorKind)
	assert.Contains(t, outcomes[1].Error, "VIXY_banana")

	assert.NotEmpty(t, outcomes[2].SymphonyID)
	assert.Empty(t, outcomes[2].Error)

	assert.Equal(t, 2, client.deploys)
	assert.Len(t, store.records, 2)
}

func TestDeployBatchReportsPlatformRejections(t *testing.T) {
	client := &fakeClient{failWith: &model.PlatformRejectionError{
		RemoteMessage: "not valid under any of the given schemas",
		PreflightOK:   true,
	}}
	svc, store, events := newTestService(client)

	outcomes := svc.DeployBatch(context.Background(), []model.DeployRequest{
		{Strategy: validStrategy("Only")},
	})
	require.Len(t, outcomes, 1)
	assert.Equal(t, "platform_rejection", outcomes[0].ErrorKind)
	assert.Contains(t, outcomes[0].Error, "not valid under any of the given schemas")
	assert.Empty(t, store.records)

	require.Len(t, events.events, 1)
	assert.Equal(t, "rejected", events.events[0].Status)
}

func TestListDeploymentsClampsPagination(t *testing.T) {
	svc, store, _ := newTestService(&fakeClient{})
	store.records = []model.DeploymentRecord{{StrategyName: "a"}}

	records, total, err := svc.ListDeployments(context.Background(), -1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, records, 1)
}
