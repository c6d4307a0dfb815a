package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/league-bracket/models"
)

var (
	ErrNotEnoughTeams = errors.New("not enough teams to seed a bracket (minimum 2)")
	ErrOddTeamCount   = errors.New("team count must be even to pair the first stage")
	ErrDuplicateTeam  = errors.New("team listed more than once")
)

// Pairing - одна пара первой стадии.
type Pairing struct {
	Order   int
	TeamAID int
	TeamBID int
}

// PairTeams разбивает список команд на пары в порядке посева: 1-2, 3-4, ...
// Byes не поддерживаются: первая стадия всегда состоит из полных матчей.
func PairTeams(teamIDs []int) ([]Pairing, error) {
	n := len(teamIDs)
	if n < 2 {
		return nil, ErrNotEnoughTeams
	}
	if n%2 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrOddTeamCount, n)
	}

	seen := make(map[int]struct{}, n)
	for _, id := range teamIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: team %d", ErrDuplicateTeam, id)
		}
		seen[id] = struct{}{}
	}

	pairings := make([]Pairing, 0, n/2)
	for i := 0; i < n; i += 2 {
		pairings = append(pairings, Pairing{
			Order:   i/2 + 1,
			TeamAID: teamIDs[i],
			TeamBID: teamIDs[i+1],
		})
	}
	return pairings, nil
}

// MaxFirstStageMatches - сколько матчей первой стадии вмещает сетка пола:
// каждый матч следующей стадии принимает двоих, финал один.
func MaxFirstStageMatches(gender models.Gender) int {
	ladder := ladders[gender]
	if len(ladder) == 0 {
		return 0
	}
	return 1 << uint(len(ladder)-1)
}
