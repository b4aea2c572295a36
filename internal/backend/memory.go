package backend

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// MemoryRows is an in-process Rows, used for local runs without a database and in tests
type MemoryRows struct {
	mu       sync.Mutex
	users    map[string]model.User
	uploads  map[string]model.Upload
	consents map[string]model.Consent

	// InsertErr, when set, fails every insert
	InsertErr error
	// UpdateErr, when set, fails every update
	UpdateErr error
	// FailUpdates limits UpdateErr to the next n updates
	FailUpdates int
	inserts     int
	updates     int
}

// NewMemoryRows creates an empty MemoryRows
func NewMemoryRows() *MemoryRows {
	return &MemoryRows{
		users:    make(map[string]model.User),
		uploads:  make(map[string]model.Upload),
		consents: make(map[string]model.Consent),
	}
}

func (m *MemoryRows) InsertUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.inserts++
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryRows) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryRows) InsertUpload(_ context.Context, u *model.Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.inserts++
	m.uploads[u.ID] = *u
	return nil
}

func (m *MemoryRows) GetUpload(_ context.Context, id string) (*model.Upload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.uploads[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryRows) ListUploads(_ context.Context, userID string) ([]model.Upload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Upload, 0)
	for _, u := range m.uploads {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRows) InsertConsent(_ context.Context, c *model.Consent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.inserts++
	m.consents[c.ID] = *c
	return nil
}

func (m *MemoryRows) GetConsent(_ context.Context, id string) (*model.Consent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.consents[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &c, nil
}

func (m *MemoryRows) ListConsents(_ context.Context, userID string) ([]model.Consent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Consent, 0)
	for _, c := range m.consents {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRows) ListConsentsByStatus(_ context.Context, statuses ...model.ConsentStatus) ([]model.Consent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Consent, 0)
	for _, c := range m.consents {
		if slices.Contains(statuses, c.Status) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryRows) UpdateConsent(_ context.Context, id string, upd model.ConsentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpdateErr; err != nil {
		if m.FailUpdates > 0 {
			m.FailUpdates--
			if m.FailUpdates == 0 {
				m.UpdateErr = nil
			}
		}
		return err
	}
	c, ok := m.consents[id]
	if !ok {
		return model.ErrNotFound
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	if upd.AppID != nil {
		appID := *upd.AppID
		c.AppID = &appID
	}
	if upd.AppAddress != nil {
		c.AppAddress = *upd.AppAddress
	}
	if upd.AnchorTxID != nil {
		c.AnchorTxID = *upd.AnchorTxID
	}
	m.updates++
	m.consents[c.ID] = c
	return nil
}

// Inserts returns how many inserts succeeded
func (m *MemoryRows) Inserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserts
}

// Updates returns how many updates succeeded
func (m *MemoryRows) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}
