package subtask

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/pagecache"
	"github.com/unkn0wn-root/pagecache/codec"
	pr "github.com/unkn0wn-root/pagecache/provider"
	"github.com/unkn0wn-root/pagecache/store"
)

type (
	Page       = pagecache.Page[Subtask]
	collection = pagecache.Collection[Subtask]
	createdSet = pagecache.MaxIDCollection[Subtask, string]
)

// Options configure a Model. Store is required.
type Options struct {
	Store *store.Store[Subtask]

	Logger pagecache.Logger // if nil, NopLogger is used
	Hooks  pagecache.Hooks  // if nil, NopHooks is used
}

// Model owns the subtask collections of one session. Each view is created on
// first write with the filter parameters of that call; later writes to the
// same view reuse it. Destroy drops every view.
type Model struct {
	reg   *pagecache.Registry[Subtask]
	store *store.Store[Subtask]
	log   pagecache.Logger
	hooks pagecache.Hooks
}

func NewModel(opts Options) (*Model, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("subtask: store is required")
	}
	m := &Model{store: opts.Store, log: opts.Logger, hooks: opts.Hooks}
	if m.log == nil {
		m.log = pagecache.NopLogger{}
	}
	if m.hooks == nil {
		m.hooks = pagecache.NopHooks{}
	}
	m.reg = pagecache.NewRegistry[Subtask](pagecache.RegistryOptions{Logger: m.log, Hooks: m.hooks})
	return m, nil
}

// NewStore builds the subtask entity store over p.
func NewStore(p pr.Provider, c codec.Codec[Subtask], ttl time.Duration, log pagecache.Logger, hooks pagecache.Hooks) (*store.Store[Subtask], error) {
	return store.New(store.Options[Subtask]{
		Namespace: "subtask",
		Provider:  p,
		Codec:     c,
		IDOf:      IDOf,
		TTL:       ttl,
		Logger:    log,
		Hooks:     hooks,
	})
}

func taskKey(taskID string) pagecache.Key {
	return pagecache.Key{Feature: "task", Scope: "subtasks", ID: taskID}
}

func orgKey(k Kind, orgID string) pagecache.Key {
	key := pagecache.Key{Feature: "organization", Scope: "subtasks", ID: orgID}
	if k != Open {
		key.Qualifier = k.String()
	}
	return key
}

// AddOne normalizes s and stores it as the latest version of its id.
func (m *Model) AddOne(ctx context.Context, s Subtask) (Subtask, error) {
	n, err := Normalize(s)
	if err != nil {
		return Subtask{}, err
	}
	if err := m.store.Upsert(ctx, n); err != nil {
		return Subtask{}, fmt.Errorf("subtask: add one: %w", err)
	}
	return n, nil
}

func (m *Model) GetOne(ctx context.Context, id string) (Subtask, bool, error) {
	return m.store.Get(ctx, id)
}

// AddToTask replaces the subtask list of a task. The list is not paginated
// and lives on page 0.
func (m *Model) AddToTask(ctx context.Context, taskID string, subs []Subtask) (Page, error) {
	batch, err := m.ingest(ctx, subs)
	if err != nil {
		return Page{}, fmt.Errorf("subtask: add to task %s: %w", taskID, err)
	}
	c, err := m.collection(taskKey(taskID), Filter{Kind: OfTask, TaskID: taskID})
	if err != nil {
		return Page{}, err
	}
	return c.AddPage(0, batch), nil
}

func (m *Model) GetFromTask(taskID string) (Page, bool) {
	return m.page(taskKey(taskID), 0)
}

func (m *Model) AddOrgMySubtasks(ctx context.Context, userID string, org Organization, subs []Subtask, page int) (Page, error) {
	return m.addOrg(ctx, Open, userID, org, subs, page)
}

func (m *Model) GetOrgMySubtasks(orgID string, page int) (Page, bool) {
	return m.page(orgKey(Open, orgID), page)
}

func (m *Model) AddOrgMyDueSubtasks(ctx context.Context, userID string, org Organization, subs []Subtask, page int) (Page, error) {
	return m.addOrg(ctx, Due, userID, org, subs, page)
}

func (m *Model) GetOrgMyDueSubtasks(orgID string, page int) (Page, bool) {
	return m.page(orgKey(Due, orgID), page)
}

func (m *Model) AddOrgMyDoneSubtasks(ctx context.Context, userID string, org Organization, subs []Subtask, page int) (Page, error) {
	return m.addOrg(ctx, Done, userID, org, subs, page)
}

func (m *Model) GetOrgMyDoneSubtasks(orgID string, page int) (Page, bool) {
	return m.page(orgKey(Done, orgID), page)
}

// AddOrgMyCreatedSubtasks stores a page of the created feed and advances its
// watermark over the whole batch, including subtasks the filter drops.
func (m *Model) AddOrgMyCreatedSubtasks(ctx context.Context, userID string, org Organization, subs []Subtask, page int) (Page, error) {
	batch, err := m.ingest(ctx, subs)
	if err != nil {
		return Page{}, fmt.Errorf("subtask: add created for org %s: %w", org.ID, err)
	}
	key := orgKey(Created, org.ID)
	c, ok, err := pagecache.LookupAs[Subtask, *createdSet](m.reg, key)
	if err != nil {
		return Page{}, err
	}
	if !ok {
		fresh, err := pagecache.NewMaxID(pagecache.MaxIDOptions[Subtask, string]{
			Options: m.options(key, orgFilter(Created, userID, org)),
			IDOf:    IDOf,
			CheckID: ValidID,
		})
		if err != nil {
			return Page{}, err
		}
		if c, err = pagecache.GetOrCreateAs[Subtask](m.reg, key, func() *createdSet { return fresh }); err != nil {
			return Page{}, err
		}
	}
	return c.MaxAddPage(page, batch)
}

func (m *Model) GetOrgMyCreatedSubtasks(orgID string, page int) (Page, bool) {
	return m.page(orgKey(Created, orgID), page)
}

// GetOrgMyCreatedMaxID returns the newest subtask id seen in the created
// feed of orgID, for fetching only what came after it.
func (m *Model) GetOrgMyCreatedMaxID(orgID string) (string, bool) {
	key := orgKey(Created, orgID)
	c, ok, err := pagecache.LookupAs[Subtask, *createdSet](m.reg, key)
	if err != nil {
		m.log.Error("created view has the wrong collection type", pagecache.Fields{"key": key.String(), "err": err})
		return "", false
	}
	if !ok {
		return "", false
	}
	return c.MaxID()
}

// Destroy drops every view. Pages already returned stay valid.
func (m *Model) Destroy() {
	m.reg.Clear()
}

func (m *Model) addOrg(ctx context.Context, k Kind, userID string, org Organization, subs []Subtask, page int) (Page, error) {
	batch, err := m.ingest(ctx, subs)
	if err != nil {
		return Page{}, fmt.Errorf("subtask: add %s for org %s: %w", k, org.ID, err)
	}
	c, err := m.collection(orgKey(k, org.ID), orgFilter(k, userID, org))
	if err != nil {
		return Page{}, err
	}
	return c.AddPage(page, batch), nil
}

// ingest normalizes a fetched batch and upserts every record, matching or
// not, into the entity store.
func (m *Model) ingest(ctx context.Context, subs []Subtask) ([]Subtask, error) {
	batch, err := NormalizeAll(subs)
	if err != nil {
		return nil, err
	}
	if err := m.store.UpsertMany(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (m *Model) collection(key pagecache.Key, f Filter) (*collection, error) {
	c, ok, err := pagecache.LookupAs[Subtask, *collection](m.reg, key)
	if ok || err != nil {
		return c, err
	}
	fresh, err := pagecache.New(m.options(key, f))
	if err != nil {
		return nil, err
	}
	return pagecache.GetOrCreateAs[Subtask](m.reg, key, func() *collection { return fresh })
}

func (m *Model) options(key pagecache.Key, f Filter) pagecache.Options[Subtask] {
	return pagecache.Options[Subtask]{
		Name:   SchemaName,
		Filter: f,
		Index:  key.String(),
		Logger: m.log,
		Hooks:  m.hooks,
	}
}

func (m *Model) page(key pagecache.Key, page int) (Page, bool) {
	c, ok := m.reg.Get(key)
	if !ok {
		return Page{}, false
	}
	return c.Get(page)
}
