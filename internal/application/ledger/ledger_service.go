package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/identity"
	"github.com/agency/backend/internal/domain/ledger"
	"github.com/agency/backend/internal/domain/shared"
	"github.com/agency/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultIdempotencyTTL bounds how long a replayed Idempotency-Key is rejected
const DefaultIdempotencyTTL = 24 * time.Hour

// Ledger operation names used for metrics
const (
	OperationRecord = "record"
	OperationAmend  = "amend"
	OperationRemove = "remove"
)

// MetricsRecorder receives ledger activity for business metrics
type MetricsRecorder interface {
	RecordLedgerOperation(ctx context.Context, tenantID uuid.UUID, operation string, category string, net decimal.Decimal)
}

// LedgerService records, amends and removes client transactions.
// Every write updates the transaction row and the client's due amount in one database
// transaction, and the client row is saved under its optimistic-lock version.
type LedgerService struct {
	txScope         TransactionScope
	b2cRepo         client.B2CClientRepository
	b2bRepo         client.B2BClientRepository
	transactionRepo ledger.TransactionRepository
	idempotency     shared.IdempotencyStore
	idempotencyTTL  time.Duration
	metrics         MetricsRecorder
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	txScope TransactionScope,
	b2cRepo client.B2CClientRepository,
	b2bRepo client.B2BClientRepository,
	transactionRepo ledger.TransactionRepository,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		txScope:         txScope,
		b2cRepo:         b2cRepo,
		b2bRepo:         b2bRepo,
		transactionRepo: transactionRepo,
		idempotencyTTL:  DefaultIdempotencyTTL,
		logger:          logger,
	}
}

// SetIdempotencyStore enables Idempotency-Key handling on RecordTransaction
func (s *LedgerService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetMetrics sets the business metrics recorder
func (s *LedgerService) SetMetrics(metrics MetricsRecorder) {
	s.metrics = metrics
}

// SetEventPublisher sets the publisher for balance-change events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RecordTransaction persists a transaction and lowers the client's due amount by its net
func (s *LedgerService) RecordTransaction(ctx context.Context, principal identity.Principal, req RecordTransactionRequest) (_ *LedgerWriteResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "record_transaction")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrClientID, req.ClientID.String(),
		telemetry.SpanAttrClientType, req.TransactionType,
	)
	if req.IdempotencyKey != "" {
		telemetry.SetAttribute(span, telemetry.SpanAttrIdempotencyKey, req.IdempotencyKey)
	}

	scope, err := principal.ResolveScope(nil)
	if err != nil {
		return nil, err
	}
	category := client.Category(req.TransactionType)
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Transaction type must be B2B or B2C")
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if req.ReceivedAmount == nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "received_amount is required")
	}
	refund := decimal.Zero
	if req.RefundAmount != nil {
		refund = *req.RefundAmount
	}

	idemKey := ""
	if req.IdempotencyKey != "" && s.idempotency != nil {
		idemKey = idempotencyKey(principal, req.IdempotencyKey)
		fresh, err := s.idempotency.MarkProcessed(ctx, idemKey, s.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			telemetry.AddEvent(span, "idempotent_replay", telemetry.SpanAttrIdempotencyKey, req.IdempotencyKey)
			return nil, shared.ErrDuplicateRequest
		}
	}

	var (
		tx      *ledger.Transaction
		account client.LedgerAccount
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		account, err = loadAccount(ctx, repos, scope, category, req.ClientID)
		if err != nil {
			return err
		}
		tx, err = ledger.NewTransaction(account, date, *req.ReceivedAmount, refund, req.Notes)
		if err != nil {
			return err
		}
		if err := repos.TransactionRepo().Save(ctx, tx); err != nil {
			return err
		}
		account.ApplyNetPayment(tx.ID, tx.Net(), client.BalanceChangeRecorded)
		return saveAccount(ctx, repos, account)
	})
	if err != nil {
		if idemKey != "" {
			if ferr := s.idempotency.Forget(ctx, idemKey); ferr != nil {
				s.logger.Warn("failed to release idempotency key", zap.Error(ferr))
			}
		}
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, tx.ID.String())
	telemetry.SetAttribute(span, telemetry.SpanAttrAmount, tx.Net().String())
	s.afterWrite(ctx, account, OperationRecord, tx.Net())
	return toWriteResponse(tx, account), nil
}

// AmendTransaction applies a partial edit and moves the client's due amount by the change in net
func (s *LedgerService) AmendTransaction(ctx context.Context, principal identity.Principal, id uuid.UUID, req AmendTransactionRequest) (_ *LedgerWriteResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "amend_transaction")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, id.String())

	scope, err := principal.ResolveScope(nil)
	if err != nil {
		return nil, err
	}
	amendment := ledger.Amendment{
		ReceivedAmount: req.ReceivedAmount,
		RefundAmount:   req.RefundAmount,
		Notes:          req.Notes,
	}
	if req.Date != nil {
		date, err := ledger.ParseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		amendment.Date = &date
	}

	var (
		tx      *ledger.Transaction
		account client.LedgerAccount
		delta   decimal.Decimal
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		tx, err = repos.TransactionRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		account, err = loadAccount(ctx, repos, scope, tx.ClientCategory, tx.ClientID)
		if err != nil {
			return err
		}
		delta, err = tx.Amend(amendment)
		if err != nil {
			return err
		}
		if err := repos.TransactionRepo().Save(ctx, tx); err != nil {
			return err
		}
		account.ApplyNetPayment(tx.ID, delta, client.BalanceChangeAmended)
		return saveAccount(ctx, repos, account)
	})
	if err != nil {
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrAmount, delta.String())
	s.afterWrite(ctx, account, OperationAmend, delta)
	return toWriteResponse(tx, account), nil
}

// RemoveTransaction deletes a transaction and reverses its effect on the client's due amount
func (s *LedgerService) RemoveTransaction(ctx context.Context, principal identity.Principal, id uuid.UUID) (_ *LedgerWriteResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "remove_transaction")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, id.String())

	scope, err := principal.ResolveScope(nil)
	if err != nil {
		return nil, err
	}

	var (
		tx      *ledger.Transaction
		account client.LedgerAccount
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		tx, err = repos.TransactionRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		account, err = loadAccount(ctx, repos, scope, tx.ClientCategory, tx.ClientID)
		if err != nil {
			return err
		}
		if err := repos.TransactionRepo().Delete(ctx, tx.ID); err != nil {
			return err
		}
		account.ApplyNetPayment(tx.ID, tx.Net().Neg(), client.BalanceChangeRemoved)
		return saveAccount(ctx, repos, account)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, account, OperationRemove, tx.Net().Neg())
	return toWriteResponse(tx, account), nil
}

// GetTransaction retrieves one transaction if its owning client is visible to the caller
func (s *LedgerService) GetTransaction(ctx context.Context, principal identity.Principal, id uuid.UUID) (*TransactionResponse, error) {
	scope, err := principal.ResolveScope(nil)
	if err != nil {
		return nil, err
	}
	tx, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveAccount(ctx, scope, tx.ClientCategory, tx.ClientID); err != nil {
		return nil, err
	}
	response := ToTransactionResponse(tx)
	return &response, nil
}

// ListForClient lists a client's transactions newest first. Tenant isolation is
// inherited from the owning client.
func (s *LedgerService) ListForClient(ctx context.Context, principal identity.Principal, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	scope, err := principal.ResolveScope(nil)
	if err != nil {
		return nil, 0, err
	}
	account, err := s.resolveAccount(ctx, scope, client.Category(filter.TransactionType), filter.ClientID)
	if err != nil {
		return nil, 0, err
	}

	domainFilter := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	txs, err := s.transactionRepo.FindByClient(ctx, account.GetID(), domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactionRepo.CountByClient(ctx, account.GetID())
	if err != nil {
		return nil, 0, err
	}
	return ToTransactionResponses(txs), total, nil
}

// GetClientBalance compares the stored due amount with the sum of the client's ledger
func (s *LedgerService) GetClientBalance(ctx context.Context, principal identity.Principal, clientID uuid.UUID, transactionType string) (*ClientBalanceResponse, error) {
	scope, err := principal.ResolveScope(nil)
	if err != nil {
		return nil, err
	}
	account, err := s.resolveAccount(ctx, scope, client.Category(transactionType), clientID)
	if err != nil {
		return nil, err
	}

	net, err := s.transactionRepo.SumNetByClient(ctx, account.GetID())
	if err != nil {
		return nil, err
	}
	count, err := s.transactionRepo.CountByClient(ctx, account.GetID())
	if err != nil {
		return nil, err
	}

	balance := account.CurrentBalance()
	expected := balance.ExpectedDue(net)
	return &ClientBalanceResponse{
		ClientID:         account.GetID(),
		ClientType:       string(account.Category()),
		ContractAmount:   balance.ContractAmount,
		InitialPayment:   balance.InitialPayment,
		LedgerNet:        net,
		DueAmount:        balance.DueAmount,
		ExpectedDue:      expected,
		TransactionCount: count,
		Consistent:       expected.Equal(balance.DueAmount),
	}, nil
}

// resolveAccount finds a client outside a transaction. An empty category tries B2C then B2B.
func (s *LedgerService) resolveAccount(ctx context.Context, scope shared.Scope, category client.Category, id uuid.UUID) (client.LedgerAccount, error) {
	return findAccount(ctx, s.b2cRepo, s.b2bRepo, scope, category, id)
}

func (s *LedgerService) afterWrite(ctx context.Context, account client.LedgerAccount, operation string, net decimal.Decimal) {
	if err := shared.PublishPending(ctx, s.eventPublisher, account); err != nil {
		s.logger.Warn("failed to publish ledger events",
			zap.String("client_id", account.GetID().String()),
			zap.Error(err),
		)
	}
	if s.metrics != nil {
		s.metrics.RecordLedgerOperation(ctx, account.OwnerTenantID(), operation, string(account.Category()), net)
	}
}

func loadAccount(ctx context.Context, repos TransactionalRepositories, scope shared.Scope, category client.Category, id uuid.UUID) (client.LedgerAccount, error) {
	return findAccount(ctx, repos.B2CClientRepo(), repos.B2BClientRepo(), scope, category, id)
}

func findAccount(
	ctx context.Context,
	b2cRepo client.B2CClientRepository,
	b2bRepo client.B2BClientRepository,
	scope shared.Scope,
	category client.Category,
	id uuid.UUID,
) (client.LedgerAccount, error) {
	switch category {
	case client.CategoryB2C:
		c, err := b2cRepo.FindByID(ctx, scope, id)
		if err != nil {
			return nil, err
		}
		return c, nil
	case client.CategoryB2B:
		c, err := b2bRepo.FindByID(ctx, scope, id)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "":
		account, err := findAccount(ctx, b2cRepo, b2bRepo, scope, client.CategoryB2C, id)
		if !errors.Is(err, shared.ErrNotFound) {
			return account, err
		}
		return findAccount(ctx, b2cRepo, b2bRepo, scope, client.CategoryB2B, id)
	}
	return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Transaction type must be B2B or B2C")
}

func saveAccount(ctx context.Context, repos TransactionalRepositories, account client.LedgerAccount) error {
	switch a := account.(type) {
	case *client.B2CClient:
		return repos.B2CClientRepo().SaveWithLock(ctx, a)
	case *client.B2BClient:
		return repos.B2BClientRepo().SaveWithLock(ctx, a)
	}
	return shared.NewDomainError("INVALID_CLIENT", "Unsupported client type")
}

func toWriteResponse(tx *ledger.Transaction, account client.LedgerAccount) *LedgerWriteResponse {
	return &LedgerWriteResponse{
		Transaction:     ToTransactionResponse(tx),
		ClientDueAmount: account.CurrentBalance().DueAmount,
	}
}

func idempotencyKey(principal identity.Principal, key string) string {
	owner := "admin"
	if principal.TenantID != nil {
		owner = principal.TenantID.String()
	}
	return "ledger:record:" + owner + ":" + key
}
