package storagefake

import (
	"sync"

	"github.com/jrsteele09/go-hr-portal/storage"
)

var _ storage.Storage = (*FakeStorage)(nil)

// FakeStorage is an in-memory Storage. Failures can be injected per key and operation.
type FakeStorage struct {
	values map[string]string
	lock   sync.RWMutex

	getErrs    map[string]error
	setErrs    map[string]error
	removeErrs map[string]error
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		values:     make(map[string]string),
		getErrs:    make(map[string]error),
		setErrs:    make(map[string]error),
		removeErrs: make(map[string]error),
	}
}

// Seed stores values directly, bypassing injected failures
func (fs *FakeStorage) Seed(values map[string]string) *FakeStorage {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	for k, v := range values {
		fs.values[k] = v
	}
	return fs
}

// FailGet makes Get(key) return err. A nil err clears the failure.
func (fs *FakeStorage) FailGet(key string, err error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	setOrClear(fs.getErrs, key, err)
}

// FailSet makes Set(key, ...) return err. A nil err clears the failure.
func (fs *FakeStorage) FailSet(key string, err error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	setOrClear(fs.setErrs, key, err)
}

// FailRemove makes Remove(key) return err. A nil err clears the failure.
func (fs *FakeStorage) FailRemove(key string, err error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	setOrClear(fs.removeErrs, key, err)
}

func (fs *FakeStorage) Get(key string) (string, bool, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	if err := fs.getErrs[key]; err != nil {
		return "", false, err
	}
	v, ok := fs.values[key]
	return v, ok, nil
}

func (fs *FakeStorage) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if err := fs.setErrs[key]; err != nil {
		return err
	}
	fs.values[key] = value
	return nil
}

func (fs *FakeStorage) Remove(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if err := fs.removeErrs[key]; err != nil {
		return err
	}
	delete(fs.values, key)
	return nil
}

// Has reports whether key is present, ignoring injected failures
func (fs *FakeStorage) Has(key string) bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	_, ok := fs.values[key]
	return ok
}

// Value returns the raw stored value, ignoring injected failures
func (fs *FakeStorage) Value(key string) string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.values[key]
}

func setOrClear(m map[string]error, key string, err error) {
	if err == nil {
		delete(m, key)
		return
	}
	m[key] = err
}
