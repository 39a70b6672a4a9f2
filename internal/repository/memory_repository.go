package repository

import (
	"sort"
	"sync"

	"github.com/ajharbinger/guest-risk-scorer/internal/models"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
)

// memoryRepository implements ReservationRepository in process memory
type memoryRepository struct {
	mu    sync.RWMutex
	items map[string]StoredReservation
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{items: make(map[string]StoredReservation)}
}

// NewMemoryRepositories creates a repository collection backed by memory
func NewMemoryRepositories() *Repositories {
	repo := newMemoryRepository()
	return &Repositories{
		Reservations: repo,
		Tx:           &memoryTransactionManager{repo: repo},
	}
}

func (r *memoryRepository) Save(id string, reservation models.NormalizedReservation, report scoring.RiskReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(id, reservation, report)
}

func (r *memoryRepository) saveLocked(id string, reservation models.NormalizedReservation, report scoring.RiskReport) error {
	if id == "" {
		return errRequiredID
	}
	now := timeNow()
	createdAt := now
	if existing, ok := r.items[id]; ok {
		createdAt = existing.CreatedAt
	}
	report.MatchedRules = matchedRules(report)
	r.items[id] = StoredReservation{
		Reservation: reservation,
		RiskReport:  report,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
	return nil
}

func (r *memoryRepository) Get(id string) (*StoredReservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &stored, nil
}

// GetForUpdate is Get; a memory transaction already holds the store lock
func (r *memoryRepository) GetForUpdate(id string) (*StoredReservation, error) {
	return r.Get(id)
}

func (r *memoryRepository) List() ([]StoredReservation, error) {
	r.mu.RLock()
	result := make([]StoredReservation, 0, len(r.items))
	for _, stored := range r.items {
		result = append(result, stored)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].Reservation.ID > result[j].Reservation.ID
	})
	return result, nil
}

func (r *memoryRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

// memoryTransactionManager stages writes on a copy and swaps it in on success
type memoryTransactionManager struct {
	repo *memoryRepository
}

func (tm *memoryTransactionManager) WithTransaction(fn func(repos *Repositories) error) error {
	tm.repo.mu.Lock()
	defer tm.repo.mu.Unlock()

	staged := newMemoryRepository()
	for id, stored := range tm.repo.items {
		staged.items[id] = stored
	}

	if err := fn(&Repositories{Reservations: staged, Tx: &memoryTransactionManager{repo: staged}}); err != nil {
		return err
	}

	tm.repo.items = staged.items
	return nil
}
