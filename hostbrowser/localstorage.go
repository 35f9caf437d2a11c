package hostbrowser

import "fmt"

// LocalStorage satisfies identity.Store by reading and writing the host
// page's own localStorage through page.Eval, the direct analogue of the
// browser SDK's window.localStorage: when a real Page is present, identity
// persistence rides on the same storage a JS analytics snippet would use,
// instead of falling back to identity.Manager's in-memory store.
type LocalStorage struct {
	page *Page
}

// NewLocalStorage wraps page's localStorage as an identity.Store.
func NewLocalStorage(page *Page) *LocalStorage {
	return &LocalStorage{page: page}
}

func (l *LocalStorage) Get(key string) (string, bool, error) {
	res, err := l.page.page.Eval(fmt.Sprintf(`() => {
		const v = localStorage.getItem(%q);
		return v === null ? "" : v;
	}`, key))
	if err != nil {
		return "", false, fmt.Errorf("hostbrowser: localStorage.getItem: %w", err)
	}
	ok, err := l.page.page.Eval(fmt.Sprintf(`() => localStorage.getItem(%q) !== null`, key))
	if err != nil {
		return "", false, fmt.Errorf("hostbrowser: localStorage.getItem presence check: %w", err)
	}
	return res.Value.Str(), ok.Value.Bool(), nil
}

func (l *LocalStorage) Set(key, value string) error {
	_, err := l.page.page.Eval(fmt.Sprintf(`() => { localStorage.setItem(%q, %q); }`, key, value))
	if err != nil {
		return fmt.Errorf("hostbrowser: localStorage.setItem: %w", err)
	}
	return nil
}

func (l *LocalStorage) Delete(key string) error {
	_, err := l.page.page.Eval(fmt.Sprintf(`() => { localStorage.removeItem(%q); }`, key))
	if err != nil {
		return fmt.Errorf("hostbrowser: localStorage.removeItem: %w", err)
	}
	return nil
}
