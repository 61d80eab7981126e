package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"time"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/audit"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/cache"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/store"
)

// InvalidationPolicy selects which cache scopes a write invalidates.
type InvalidationPolicy int

const (
	// OwnerAwareInvalidation invalidates the affected entry's owner scope
	// and the administrator aggregate on every write.
	OwnerAwareInvalidation InvalidationPolicy = iota
	// LegacyInvalidation invalidates only the creator's scope on create,
	// and only the acting caller's own scope on update and delete. An
	// administrator editing someone else's entry leaves that owner's
	// cached view stale until it expires.
	LegacyInvalidation
)

func ParseInvalidationPolicy(s string) (InvalidationPolicy, error) {
	switch s {
	case "", "owner_aware":
		return OwnerAwareInvalidation, nil
	case "legacy":
		return LegacyInvalidation, nil
	default:
		return 0, fmt.Errorf("unknown cache invalidation policy %q", s)
	}
}

type ExpenseServiceConfig struct {
	Policy       InvalidationPolicy
	StoreTimeout time.Duration
	Audit        *audit.Logger
}

// ExpenseService applies owner/administrator visibility to the ledger
// and keeps the scoped cache coherent with writes.
type ExpenseService struct {
	store   store.LedgerStore
	cache   *cache.ScopedCache
	audit   *audit.Logger
	policy  InvalidationPolicy
	timeout time.Duration
}

func NewExpenseService(ledger store.LedgerStore, scoped *cache.ScopedCache, cfg ExpenseServiceConfig) *ExpenseService {
	auditLogger := cfg.Audit
	if auditLogger == nil {
		auditLogger = audit.NewLogger()
	}
	return &ExpenseService{
		store:   ledger,
		cache:   scoped,
		audit:   auditLogger,
		policy:  cfg.Policy,
		timeout: cfg.StoreTimeout,
	}
}

func (s *ExpenseService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// ListVisible returns every entry for an administrator, otherwise the
// caller's own entries, served from the caller's cache scope.
func (s *ExpenseService) ListVisible(ctx context.Context, identity string, isAdmin bool) ([]models.Expense, error) {
	key := cache.ScopeKey(identity, isAdmin)
	expenses, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) ([]models.Expense, error) {
		ctx, cancel := s.storeContext(ctx)
		defer cancel()

		var (
			expenses []models.Expense
			err      error
		)
		if isAdmin {
			expenses, err = s.store.ListAll(ctx)
		} else {
			expenses, err = s.store.ListByOwner(ctx, identity)
		}
		return expenses, asStoreError("list expenses", err)
	})
	if err != nil {
		log.Printf("[EXPENSE] List failed for scope %s: %v", key, err)
		return nil, err
	}
	return expenses, nil
}

// GetOne always reads the store. A missing entry and another owner's
// entry are both ErrNotFound.
func (s *ExpenseService) GetOne(ctx context.Context, id int64, identity string, isAdmin bool) (*models.Expense, error) {
	return s.findAuthorized(ctx, id, identity, isAdmin)
}

func (s *ExpenseService) Create(ctx context.Context, draft models.ExpenseDraft, identity string) (*models.Expense, error) {
	e := models.Expense{UserID: identity}
	applyDraft(&e, draft)

	sctx, cancel := s.storeContext(ctx)
	saved, err := s.store.Insert(sctx, e)
	cancel()
	if err != nil {
		err = asStoreError("insert expense", err)
		log.Printf("[EXPENSE] Create failed for %s: %v", identity, err)
		s.audit.LogError("EXPENSE_CREATE", identity, err)
		return nil, err
	}

	s.invalidateAfterCreate(identity)
	s.audit.LogExpense("EXPENSE_CREATE", identity, saved.ID, saved.UserID)
	return &saved, nil
}

func (s *ExpenseService) Update(ctx context.Context, id int64, draft models.ExpenseDraft, identity string, isAdmin bool) (*models.Expense, error) {
	e, err := s.findAuthorized(ctx, id, identity, isAdmin)
	if err != nil {
		return nil, err
	}
	applyDraft(e, draft)

	sctx, cancel := s.storeContext(ctx)
	err = s.store.Update(sctx, *e)
	cancel()
	if err != nil {
		err = asStoreError("update expense", err)
		if !errors.Is(err, models.ErrNotFound) {
			log.Printf("[EXPENSE] Update of %d failed: %v", id, err)
			s.audit.LogError("EXPENSE_UPDATE", identity, err)
		}
		return nil, err
	}

	s.invalidateAfterMutation(e.UserID, identity, isAdmin)
	s.audit.LogExpense("EXPENSE_UPDATE", identity, e.ID, e.UserID)
	return e, nil
}

// Delete reports false when no entry the caller may see has the id.
func (s *ExpenseService) Delete(ctx context.Context, id int64, identity string, isAdmin bool) (bool, error) {
	e, err := s.findAuthorized(ctx, id, identity, isAdmin)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	sctx, cancel := s.storeContext(ctx)
	err = s.store.Remove(sctx, id)
	cancel()
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		err = asStoreError("remove expense", err)
		log.Printf("[EXPENSE] Delete of %d failed: %v", id, err)
		s.audit.LogError("EXPENSE_DELETE", identity, err)
		return false, err
	}

	s.invalidateAfterMutation(e.UserID, identity, isAdmin)
	s.audit.LogExpense("EXPENSE_DELETE", identity, e.ID, e.UserID)
	return true, nil
}

func (s *ExpenseService) findAuthorized(ctx context.Context, id int64, identity string, isAdmin bool) (*models.Expense, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	e, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, asStoreError("find expense", err)
	}
	if !isAdmin && e.UserID != identity {
		return nil, models.ErrNotFound
	}
	return e, nil
}

func (s *ExpenseService) invalidateAfterCreate(creator string) {
	s.cache.Invalidate(creator)
	if s.policy == OwnerAwareInvalidation {
		s.cache.Invalidate(cache.AllScope)
	}
}

func (s *ExpenseService) invalidateAfterMutation(owner, actor string, isAdmin bool) {
	if s.policy == LegacyInvalidation {
		s.cache.Invalidate(cache.ScopeKey(actor, isAdmin))
		return
	}
	s.cache.Invalidate(owner)
	s.cache.Invalidate(cache.AllScope)
}

func applyDraft(e *models.Expense, draft models.ExpenseDraft) {
	e.Amount = draft.Amount
	e.Category = draft.Category
	e.Description = sanitizeInput(draft.Description)
	e.Date = draft.Date.UTC()
}

// sanitizeInput HTML-encodes free text before it is stored.
func sanitizeInput(input string) string {
	return html.EscapeString(input)
}

// asStoreError keeps ErrNotFound and existing store errors as they are and
// wraps anything else as a store failure.
func asStoreError(op string, err error) error {
	if err == nil || errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrStoreUnavailable) {
		return err
	}
	return models.NewStoreError(op, err)
}
