package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/league-bracket/models"
)

// MemoryStore - хранилище сетки в памяти для тестов и локальной разработки.
// Повторяет ограничения схемы Postgres (единственный финал, FK, feeder_count <= 2),
// а InTx откатывает изменения при ошибке. Транзакции сериализуются одним мьютексом.
type MemoryStore struct {
	mu            sync.RWMutex
	matches       map[int]*models.Match
	teams         map[int]*models.Team
	championships map[int]*models.Championship
	lastMatchID   int
	lastTeamID    int
	lastChampID   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches:       make(map[int]*models.Match),
		teams:         make(map[int]*models.Team),
		championships: make(map[int]*models.Championship),
	}
}

func (s *MemoryStore) Matches() MatchRepository               { return memoryMatches{s} }
func (s *MemoryStore) Teams() TeamRepository                  { return memoryTeams{s} }
func (s *MemoryStore) Championships() ChampionshipRepository { return memoryChampionships{s} }

// AddTeam сохраняет команду; нулевой ID назначается автоматически.
func (s *MemoryStore) AddTeam(team models.Team) *models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	if team.ID == 0 {
		s.lastTeamID++
		team.ID = s.lastTeamID
	} else if team.ID > s.lastTeamID {
		s.lastTeamID = team.ID
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	s.teams[team.ID] = &team
	out := team
	return &out
}

func (s *MemoryStore) AddChampionship(c models.Championship) *models.Championship {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		s.lastChampID++
		c.ID = s.lastChampID
	} else if c.ID > s.lastChampID {
		s.lastChampID = c.ID
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.championships[c.ID] = &c
	out := c
	return &out
}

// PutMatch записывает матч как есть, минуя ограничения схемы. Нужен, чтобы
// воспроизводить испорченные данные при проверке аудитора целостности.
func (s *MemoryStore) PutMatch(m models.Match) *models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		s.lastMatchID++
		m.ID = s.lastMatchID
	} else if m.ID > s.lastMatchID {
		s.lastMatchID = m.ID
	}
	stored := m.Clone()
	s.matches[m.ID] = stored
	return stored.Clone()
}

func (s *MemoryStore) InTx(ctx context.Context, key models.BracketKey, fn func(tx BracketTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[int]*models.Match, len(s.matches))
	for id, m := range s.matches {
		snapshot[id] = m.Clone()
	}
	lastID := s.lastMatchID

	if err := fn(&memoryBracketTx{s: s}); err != nil {
		s.matches = snapshot
		s.lastMatchID = lastID
		return err
	}
	return nil
}

type memoryBracketTx struct {
	s *MemoryStore
}

func (t *memoryBracketTx) FindClaimableMatch(ctx context.Context, key models.BracketKey, stage models.Stage) (*models.Match, error) {
	for _, m := range t.s.sortedBracket(key) {
		if m.Stage == stage && m.FeederCount < 2 {
			return m.Clone(), nil
		}
	}
	return nil, nil
}

func (t *memoryBracketTx) FindFinal(ctx context.Context, key models.BracketKey) (*models.Match, error) {
	for _, m := range t.s.sortedBracket(key) {
		if m.Stage == models.StageFinals {
			return m.Clone(), nil
		}
	}
	return nil, nil
}

func (t *memoryBracketTx) ClaimSlot(ctx context.Context, matchID int) (bool, error) {
	m, ok := t.s.matches[matchID]
	if !ok || m.FeederCount >= 2 {
		return false, nil
	}
	m.FeederCount++
	m.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (t *memoryBracketTx) InsertMatch(ctx context.Context, match *models.Match) error {
	s := t.s
	if _, ok := s.championships[match.ChampionshipID]; !ok {
		return ErrMatchChampionshipInvalid
	}
	for _, teamID := range []*int{match.TeamAID, match.TeamBID} {
		if teamID == nil {
			continue
		}
		if _, ok := s.teams[*teamID]; !ok {
			return ErrMatchTeamInvalid
		}
	}
	if match.NextMatchID != nil {
		if _, ok := s.matches[*match.NextMatchID]; !ok {
			return ErrMatchNextInvalid
		}
	}
	if match.FeederCount < 0 || match.FeederCount > 2 {
		return ErrFeederLimit
	}
	if match.Stage == models.StageFinals {
		if match.NextMatchID != nil {
			return ErrMatchNextInvalid
		}
		for _, m := range s.matches {
			if m.Stage == models.StageFinals && m.Key() == match.Key() {
				return ErrFinalsConflict
			}
		}
	}
	if match.WinnerID != nil && (match.Status != models.MatchStatusPlayed || !match.HasTeam(*match.WinnerID)) {
		return ErrMatchWinnerInvalid
	}

	s.lastMatchID++
	now := time.Now().UTC()
	match.ID = s.lastMatchID
	match.CreatedAt = now
	match.UpdatedAt = now
	s.matches[match.ID] = match.Clone()
	return nil
}

func (t *memoryBracketTx) GetMatchForUpdate(ctx context.Context, id int) (*models.Match, error) {
	m, ok := t.s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (t *memoryBracketTx) SetResult(ctx context.Context, matchID, winnerID int, scoreA, scoreB *int) error {
	m, ok := t.s.matches[matchID]
	if !ok || m.WinnerID != nil || !m.HasTeam(winnerID) {
		return ErrMatchWinnerInvalid
	}
	m.Status = models.MatchStatusPlayed
	m.WinnerID = &winnerID
	if scoreA != nil {
		v := *scoreA
		m.ScoreA = &v
	}
	if scoreB != nil {
		v := *scoreB
		m.ScoreB = &v
	}
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *memoryBracketTx) FillSlot(ctx context.Context, matchID, teamID int) (models.Slot, error) {
	m, ok := t.s.matches[matchID]
	if !ok {
		return models.SlotNone, nil
	}
	slot := models.SlotNone
	switch {
	case m.TeamAID == nil:
		m.TeamAID = &teamID
		slot = models.SlotA
	case m.TeamBID == nil:
		m.TeamBID = &teamID
		slot = models.SlotB
	default:
		return models.SlotNone, nil
	}
	m.UpdatedAt = time.Now().UTC()
	return slot, nil
}

// sortedBracket возвращает матчи сетки по возрастанию id. Вызывать под мьютексом.
func (s *MemoryStore) sortedBracket(key models.BracketKey) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range s.matches {
		if m.Key() == key {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memoryMatches struct{ s *MemoryStore }

func (r memoryMatches) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (r memoryMatches) ListByBracket(ctx context.Context, key models.BracketKey, filter MatchFilter) ([]*models.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*models.Match, 0)
	for _, m := range r.s.sortedBracket(key) {
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.Stage != nil && m.Stage != *filter.Stage {
			continue
		}
		out = append(out, m.Clone())
	}
	return out, nil
}

type memoryTeams struct{ s *MemoryStore }

func (r memoryTeams) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	team, ok := r.s.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	out := *team
	return &out, nil
}

type memoryChampionships struct{ s *MemoryStore }

func (r memoryChampionships) GetByID(ctx context.Context, id int) (*models.Championship, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.championships[id]
	if !ok {
		return nil, ErrChampionshipNotFound
	}
	out := *c
	return &out, nil
}
