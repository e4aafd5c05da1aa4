// Package organization keeps the group organization chart: one row per
// unit with its counterpart in each affiliate.
package organization

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/sources/external"
	"github.com/hmgdev/hmg-index/internal/store"
)

// StorageKey is where the whole table lives.
const StorageKey = "organizationData"

const importLimit = 10

type Item struct {
	ID        int    `json:"id"`
	Category  string `json:"category"`
	Chonggwal string `json:"chonggwal"`
	Hyundai   string `json:"hyundai"`
	Kia       string `json:"kia"`
	Group     string `json:"group"`

	// Set only on rows imported from the external directory.
	Phone      string `json:"phone,omitempty"`
	Website    string `json:"website,omitempty"`
	Address    string `json:"address,omitempty"`
	Department string `json:"department,omitempty"`
}

// Patch holds the fields to change on an existing row. Nil fields are kept.
type Patch struct {
	Category  *string `json:"category,omitempty"`
	Chonggwal *string `json:"chonggwal,omitempty"`
	Hyundai   *string `json:"hyundai,omitempty"`
	Kia       *string `json:"kia,omitempty"`
	Group     *string `json:"group,omitempty"`
}

func (p Patch) apply(it Item) Item {
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Chonggwal != nil {
		it.Chonggwal = *p.Chonggwal
	}
	if p.Hyundai != nil {
		it.Hyundai = *p.Hyundai
	}
	if p.Kia != nil {
		it.Kia = *p.Kia
	}
	if p.Group != nil {
		it.Group = *p.Group
	}
	return it
}

var builtinDefaults = []Item{
	{ID: 1, Category: "조직", Chonggwal: "(C) ICT본부", Hyundai: "(H) CEO 직속", Kia: "(K) CEO 직속", Group: "42dot"},
	{ID: 2, Category: "조직", Chonggwal: "(C) 통합보안센터", Hyundai: "(H) 글로벌사업관리본부", Kia: "(K) 글로벌사업관리본부"},
	{ID: 3, Category: "조직", Chonggwal: "(C) 기획조정본부", Hyundai: "(H) Global Sales and Marketing", Kia: "(K) 기업전략실"},
}

// Directory serializes read-modify-write cycles on the stored table.
type Directory struct {
	mu       sync.Mutex
	store    store.Store
	defaults []Item
	users    external.Placeholder
}

// New builds a Directory. seeds replaces the built-in default rows when
// non-empty. users may be nil, which disables ImportExternal.
func New(s store.Store, seeds []config.OrganizationSeed, users external.Placeholder) *Directory {
	defaults := builtinDefaults
	if len(seeds) > 0 {
		defaults = make([]Item, 0, len(seeds))
		for _, seed := range seeds {
			defaults = append(defaults, Item{
				ID:        seed.ID,
				Category:  seed.Category,
				Chonggwal: seed.Chonggwal,
				Hyundai:   seed.Hyundai,
				Kia:       seed.Kia,
				Group:     seed.Group,
			})
		}
	}
	return &Directory{store: s, defaults: defaults, users: users}
}

// Get returns the stored table, writing the defaults on first use.
func (d *Directory) Get(ctx context.Context) ([]Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var items []Item
	ok, err := d.store.Get(ctx, StorageKey, &items)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if ok {
		return items, nil
	}
	core.LoggerFromContext(ctx).Info("seeding default organization data", "rows", len(d.defaults))
	items = d.defaultsCopy()
	if err := d.store.Set(ctx, StorageKey, items); err != nil {
		return nil, fmt.Errorf("seed organization: %w", err)
	}
	return items, nil
}

// Save replaces the whole table.
func (d *Directory) Save(ctx context.Context, items []Item) error {
	if items == nil {
		return fmt.Errorf("organization data must be a list")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Set(ctx, StorageKey, items)
}

// Update applies patch to the row with id. Unknown ids leave the table
// unchanged.
func (d *Directory) Update(ctx context.Context, id int, patch Patch) ([]Item, error) {
	return d.mutate(ctx, func(items []Item) []Item {
		for i := range items {
			if items[i].ID == id {
				items[i] = patch.apply(items[i])
			}
		}
		return items
	})
}

// Add appends item with id one above the current maximum.
func (d *Directory) Add(ctx context.Context, item Item) ([]Item, error) {
	return d.mutate(ctx, func(items []Item) []Item {
		maxID := 0
		for _, it := range items {
			maxID = max(maxID, it.ID)
		}
		item.ID = maxID + 1
		return append(items, item)
	})
}

func (d *Directory) Delete(ctx context.Context, id int) ([]Item, error) {
	return d.mutate(ctx, func(items []Item) []Item {
		out := items[:0]
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out
	})
}

// ImportExternal maps the first ten directory users to organization rows.
// The stored table is not modified.
func (d *Directory) ImportExternal(ctx context.Context) ([]Item, error) {
	if d.users == nil {
		return nil, fmt.Errorf("external directory is not configured")
	}
	users, err := d.users.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch external users: %w", err)
	}
	if len(users) > importLimit {
		users = users[:importLimit]
	}
	out := make([]Item, 0, len(users))
	for _, u := range users {
		out = append(out, fromUser(u))
	}
	return out, nil
}

func fromUser(u external.User) Item {
	company, phrase := "", ""
	if u.Company != nil {
		company, phrase = u.Company.Name, u.Company.CatchPhrase
	}
	localPart, _, _ := strings.Cut(u.Email, "@")

	it := Item{
		ID:         u.ID,
		Category:   "조직",
		Chonggwal:  "(C) " + orDefault(company, "ICT본부"),
		Hyundai:    "(H) " + u.Name,
		Kia:        "(K) " + localPart,
		Group:      orDefault(phrase, "42dot"),
		Phone:      u.Phone,
		Website:    u.Website,
		Department: orDefault(company, "미정"),
	}
	if u.Address != nil {
		it.Address = strings.TrimSpace(u.Address.City + " " + u.Address.Street)
	}
	return it
}

func (d *Directory) mutate(ctx context.Context, fn func([]Item) []Item) ([]Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var items []Item
	ok, err := d.store.Get(ctx, StorageKey, &items)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if !ok {
		items = d.defaultsCopy()
	}
	items = fn(items)
	if err := d.store.Set(ctx, StorageKey, items); err != nil {
		return nil, fmt.Errorf("save organization: %w", err)
	}
	return items, nil
}

func (d *Directory) defaultsCopy() []Item {
	return append([]Item(nil), d.defaults...)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
