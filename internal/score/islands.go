package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/regions"
)

// weightTolerance bounds the float drift allowed when checking that a
// group's population fractions sum to 1.
const weightTolerance = 1e-9

// MissingIslandError reports an island group member with no scored series.
// The group cannot be aggregated without every member, so this is fatal for
// the whole group; callers skip the group and continue with the next one.
type MissingIslandError struct {
	Group  string
	Island string
}

func (e *MissingIslandError) Error() string {
	return fmt.Sprintf("island group %q: no scores for member island %q", e.Group, e.Island)
}

// AggregateIslands recombines per-island field tables into the parent
// province's table as the population-weighted sum of the members. Member
// series are outer-joined with zero fill, so islands whose observed date
// spans differ do not truncate each other.
func AggregateIslands(group regions.IslandGroup, members map[string]*domain.Table) (*domain.Table, error) {
	total := 0.0
	for _, w := range group.Members {
		total += w
	}
	if math.Abs(total-1) > weightTolerance {
		return nil, fmt.Errorf("island group %q: member weights sum to %v, want 1", group.Parent, total)
	}

	names := make([]string, 0, len(group.Members))
	for name := range group.Members {
		names = append(names, name)
	}
	sort.Strings(names)

	var out *domain.Table
	for _, name := range names {
		table, ok := members[name]
		if !ok {
			return nil, &MissingIslandError{Group: group.Parent, Island: name}
		}
		out = domain.AddTables(out, table.Scale(group.Members[name]))
	}
	return out, nil
}
