package session

import (
	"sync"

	"github.com/teataster/teataster/internal/repository"
)

// CreateStep enumerates the tasting wizard's states in asking order.
type CreateStep int

const (
	StepName CreateStep = iota
	StepYear
	StepRegion
	StepCategory
	StepCategoryText // free-text category after "other"
	StepGrams
	StepTemp
	StepTastedAt
	StepGear
	StepAromaDry
	StepAromaWarmed
	StepInfSeconds
	StepInfColor
	StepInfTaste
	StepInfSpecial
	StepInfBody
	StepInfAftertaste
	StepMoreInfusions
	StepEffects
	StepScenarios
	StepRating
	StepSummary
	StepPhotos
)

// InfusionDraft accumulates one infusion while its sub-cycle runs.
type InfusionDraft struct {
	Seconds      *int
	LiquorColor  *string
	Taste        []string
	SpecialNotes *string
	Body         *string
	Aftertaste   []string
}

// Draft holds everything collected by the creation wizard before commit.
type Draft struct {
	Name        string
	Year        *int
	Region      *string
	Category    *string
	Grams       *float64
	TempC       *int
	TastedAt    *string
	Gear        *string
	AromaDry    *string
	AromaWarmed *string
	Effects     []string
	Scenarios   []string
	Rating      int
	Summary     *string
	PhotoIDs    []string
	Infusions   []InfusionDraft
	Current     *InfusionDraft
}

// CreateFlow is the active wizard state for one user.
type CreateFlow struct {
	Step  CreateStep
	Draft Draft

	// Sel buffers the aroma multi-select of the current step; taste,
	// aftertaste, effects and scenarios accumulate in the draft itself.
	Sel []string

	// AwaitingCustom is set when an "Other" button on the current
	// multi-select step asked for free text.
	AwaitingCustom bool
}

// CurrentInfusion returns the infusion being collected, creating a fresh
// one when a stale inline button landed the flow on an infusion step after
// the previous infusion was already stored.
func (f *CreateFlow) CurrentInfusion() *InfusionDraft {
	if f.Draft.Current == nil {
		f.Draft.Current = &InfusionDraft{}
	}
	return f.Draft.Current
}

// EditFlow tracks a single pending field edit.
type EditFlow struct {
	TastingID    int64
	SeqNo        int
	Field        string // target column; empty until a field is chosen
	AwaitingText bool
	CtxWarned    bool // "context lost" notice already shown once
}

// SearchFlow waits for the argument of a chosen search kind.
type SearchFlow struct {
	Kind repository.SearchKind
}

// Session is one user's dialog state. At most one flow is active at a time.
type Session struct {
	Create *CreateFlow
	Edit   *EditFlow
	Search *SearchFlow
}

// Active reports whether any flow is running.
func (s *Session) Active() bool {
	return s != nil && (s.Create != nil || s.Edit != nil || s.Search != nil)
}

// Manager owns all per-user dialog state. All methods are safe for
// concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	locksMu   sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions:  make(map[int64]*Session),
		userLocks: make(map[int64]*sync.Mutex),
	}
}

func (m *Manager) userLock(userID int64) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.userLocks[userID] = l
	}
	return l
}

// Lock serializes work on one user's dialog state. Updates arrive on
// separate goroutines and the album buffer flushes on a timer goroutine;
// flows hold no locks of their own.
func (m *Manager) Lock(userID int64) { m.userLock(userID).Lock() }

// Unlock releases the user's dialog lock.
func (m *Manager) Unlock(userID int64) { m.userLock(userID).Unlock() }

// Get returns the user's session, or nil when no flow is active.
func (m *Manager) Get(userID int64) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[userID]
}

// StartCreate replaces any active flow with a fresh wizard.
func (m *Manager) StartCreate(userID int64) *CreateFlow {
	m.mu.Lock()
	defer m.mu.Unlock()
	flow := &CreateFlow{Step: StepName}
	m.sessions[userID] = &Session{Create: flow}
	return flow
}

// StartEdit replaces any active flow with an edit of one tasting.
func (m *Manager) StartEdit(userID, tastingID int64, seqNo int) *EditFlow {
	m.mu.Lock()
	defer m.mu.Unlock()
	flow := &EditFlow{TastingID: tastingID, SeqNo: seqNo}
	m.sessions[userID] = &Session{Edit: flow}
	return flow
}

// StartSearch replaces any active flow with an argument prompt for kind.
func (m *Manager) StartSearch(userID int64, kind repository.SearchKind) *SearchFlow {
	m.mu.Lock()
	defer m.mu.Unlock()
	flow := &SearchFlow{Kind: kind}
	m.sessions[userID] = &Session{Search: flow}
	return flow
}

// Clear drops the user's session entirely.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Toggle flips v's membership in list, preserving first-selection order.
func Toggle(list []string, v string) []string {
	for i, x := range list {
		if x == v {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return append(list, v)
}

// Has reports whether v is currently selected.
func Has(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
