package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yourorg/symphony-service/internal/compiler"
	"github.com/yourorg/symphony-service/internal/kafka"
	"github.com/yourorg/symphony-service/internal/model"
	preflight "github.com/yourorg/symphony-service/internal/validator"
)

// PlatformClient defines the calls made against the execution platform.
type PlatformClient interface {
	DeploySymphony(ctx context.Context, doc *model.SymphonyDocument, color, tag string) (string, error)
}

// DeploymentStore defines the persistence needed by the service.
type DeploymentStore interface {
	Create(ctx context.Context, record *model.DeploymentRecord) (int, error)
	List(ctx context.Context, page, limit int) ([]model.DeploymentRecord, int, error)
}

// EventPublisher defines the event feed for deployment outcomes.
type EventPublisher interface {
	PublishDeploymentEvent(ctx context.Context, event kafka.DeploymentEvent) error
}

// DeployService compiles, validates and deploys strategies. Compilation is
// pure and runs concurrently across a batch; deployments are sequenced with a
// minimum interval between submissions because the platform rate-limits and
// gives no partial-success semantics.
type DeployService struct {
	compiler       *compiler.Compiler
	client         PlatformClient
	store          DeploymentStore
	events         EventPublisher
	deployInterval time.Duration
	deployMu       sync.Mutex
	validate       *validator.Validate
	logger         *zap.Logger
}

// NewDeployService creates a new deployment service.
func NewDeployService(
	comp *compiler.Compiler,
	client PlatformClient,
	store DeploymentStore,
	events EventPublisher,
	deployInterval time.Duration,
	logger *zap.Logger,
) *DeployService {
	return &DeployService{
		compiler:       comp,
		client:         client,
		store:          store,
		events:         events,
		deployInterval: deployInterval,
		validate:       newValidate(),
		logger:         logger,
	}
}

// newValidate builds a validator reading the same `binding` tags gin uses,
// so batch items and directly-bound requests obey identical shape rules.
func newValidate() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// CompileStrategy compiles one strategy and runs the preflight validator.
// It never touches the network, so it serves as the preview endpoint.
func (s *DeployService) CompileStrategy(strategy *model.Strategy) (*model.SymphonyDocument, error) {
	// Batch items bypass gin's binding, so shape checks run here too.
	if err := s.validate.Struct(strategy); err != nil {
		return nil, &model.SchemaInvariantViolationError{Path: "strategy", Reason: err.Error()}
	}
	doc, err := s.compiler.Compile(strategy)
	if err != nil {
		return nil, err
	}
	if err := preflight.ValidateSymphony(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DeployStrategy compiles, validates and submits one strategy. The preflight
// validator runs unconditionally before the network call; a validation
// failure is a distinct outcome from a platform rejection.
func (s *DeployService) DeployStrategy(ctx context.Context, req *model.DeployRequest) (*model.DeploymentRecord, error) {
	doc, err := s.CompileStrategy(&req.Strategy)
	if err != nil {
		s.logger.Warn("Strategy failed local compilation",
			zap.String("strategy", req.Strategy.Name),
			zap.Error(err))
		return nil, err
	}
	return s.deployCompiled(ctx, req, doc)
}

// deployCompiled submits an already-validated document and records the
// outcome.
func (s *DeployService) deployCompiled(ctx context.Context, req *model.DeployRequest, doc *model.SymphonyDocument) (*model.DeploymentRecord, error) {
	s.deployMu.Lock()
	symphonyID, err := s.client.DeploySymphony(ctx, doc, req.Color, req.Tag)
	s.deployMu.Unlock()
	if err != nil {
		s.publishOutcome(ctx, model.DeployOutcome{
			StrategyName: req.Strategy.Name,
			Error:        err.Error(),
			ErrorKind:    errorKind(err),
		})
		return nil, err
	}

	record := &model.DeploymentRecord{
		StrategyName: req.Strategy.Name,
		SymphonyID:   symphonyID,
		Color:        req.Color,
		Tag:          req.Tag,
		Document:     *doc,
		DeployedAt:   time.Now().UTC(),
	}
	if _, err := s.store.Create(ctx, record); err != nil {
		// The platform accepted the document; losing the local record is
		// logged but does not undo the deployment.
		s.logger.Error("Failed to persist deployment record",
			zap.String("strategy", req.Strategy.Name),
			zap.String("symphony_id", symphonyID),
			zap.Error(err))
	}

	s.publishOutcome(ctx, model.DeployOutcome{
		StrategyName: req.Strategy.Name,
		SymphonyID:   symphonyID,
	})

	s.logger.Info("Strategy deployed",
		zap.String("strategy", req.Strategy.Name),
		zap.String("symphony_id", symphonyID))
	return record, nil
}

// DeployBatch deploys a batch of independent strategies. Every strategy gets
// its own outcome; a failure in one never aborts its siblings. Compilation
// runs in parallel, deployments in input order with the configured interval
// between network calls.
func (s *DeployService) DeployBatch(ctx context.Context, requests []model.DeployRequest) []model.DeployOutcome {
	type compiled struct {
		doc *model.SymphonyDocument
		err error
	}

	results := make([]compiled, len(requests))
	var wg sync.WaitGroup
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := s.CompileStrategy(&requests[i].Strategy)
			results[i] = compiled{doc: doc, err: err}
		}(i)
	}
	wg.Wait()

	outcomes := make([]model.DeployOutcome, len(requests))
	deployedAny := false
	for i := range requests {
		name := requests[i].Strategy.Name
		if results[i].err != nil {
			outcomes[i] = model.DeployOutcome{
				StrategyName: name,
				Error:        results[i].err.Error(),
				ErrorKind:    errorKind(results[i].err),
			}
			s.publishOutcome(ctx, outcomes[i])
			continue
		}

		if deployedAny && s.deployInterval > 0 {
			select {
			case <-ctx.Done():
				outcomes[i] = model.DeployOutcome{
					StrategyName: name,
					Error:        ctx.Err().Error(),
					ErrorKind:    "context",
				}
				continue
			case <-time.After(s.deployInterval):
			}
		}
		deployedAny = true

		record, err := s.deployCompiled(ctx, &requests[i], results[i].doc)
		if err != nil {
			outcomes[i] = model.DeployOutcome{
				StrategyName: name,
				Error:        err.Error(),
				ErrorKind:    errorKind(err),
			}
			continue
		}
		outcomes[i] = model.DeployOutcome{
			StrategyName: name,
			SymphonyID:   record.SymphonyID,
		}
	}
	return outcomes
}

// ListDeployments returns persisted deployment records.
func (s *DeployService) ListDeployments(ctx context.Context, page, limit int) ([]model.DeploymentRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.store.List(ctx, page, limit)
}

func (s *DeployService) publishOutcome(ctx context.Context, outcome model.DeployOutcome) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishDeploymentEvent(ctx, kafka.EventForOutcome(outcome)); err != nil {
		s.logger.Warn("Failed to publish deployment event",
			zap.String("strategy", outcome.StrategyName),
			zap.Error(err))
	}
}

// errorKind maps the error taxonomy to a stable string for outcomes and
// events.
func errorKind(err error) string {
	var operandErr *model.UnsupportedOperandFormatError
	var weightErr *model.WeightSumMismatchError
	var schemaErr *model.SchemaInvariantViolationError
	var platformErr *model.PlatformRejectionError

	switch {
	case errors.As(err, &operandErr):
		return "unsupported_operand_format"
	case errors.As(err, &weightErr):
		return "weight_sum_mismatch"
	case errors.As(err, &schemaErr):
		return "schema_invariant_violation"
	case errors.As(err, &platformErr):
		return "platform_rejection"
	default:
		return "internal"
	}
}
