package fakeuserrepo

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/users"
)

var _ users.AccountRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	accounts map[string]*users.Account
	emailIds map[string]string // email to account id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		accounts: make(map[string]*users.Account),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(account *users.Account) error {
	if account == nil || account.Email == "" {
		return hrerrors.Wrapf(hrerrors.ErrInvalidArgument, "account email is required")
	}

	ur.lock.Lock()
	defer ur.lock.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if other, ok := ur.emailIds[strings.ToLower(account.Email)]; ok && other != account.ID {
		return hrerrors.Wrapf(hrerrors.ErrInvalidArgument, "email %q is already in use", account.Email)
	}
	if previous, ok := ur.accounts[account.ID]; ok && previous.Email != account.Email {
		delete(ur.emailIds, strings.ToLower(previous.Email))
	}
	cp := *account
	ur.accounts[account.ID] = &cp
	ur.emailIds[strings.ToLower(account.Email)] = account.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[strings.ToLower(email)]
	if !ok {
		return nil, hrerrors.Wrapf(hrerrors.ErrNotFound, "account %q", email)
	}
	cp := *ur.accounts[id]
	return &cp, nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.accounts[id]; !ok {
		return nil, hrerrors.Wrapf(hrerrors.ErrNotFound, "account %q", id)
	}
	cp := *ur.accounts[id]
	return &cp, nil
}

func (ur *FakeUserRepo) List(offset, limit int) ([]*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	all := make([]*users.Account, 0, len(ur.accounts))
	for _, a := range ur.accounts {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Email < all[j].Email
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}
