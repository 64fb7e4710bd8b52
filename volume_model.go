package selections

import (
	"fmt"
	"slices"
)

// VolumeModel is the read-only tabular data source the engine queries.
// Distinct values are returned in a stable order.
type VolumeModel interface {
	Responses() []string
	Selectors() []string
	Parameters() []string
	Columns() []string
	Realizations() []int
	Distinct(column string) []string
	DistinctWhere(column string, where map[string][]string) []string
}

func sourceValues(model VolumeModel, source OptionSource) []string {
	switch source {
	case SourceResponses:
		return model.Responses()
	case SourceSelectors:
		return model.Selectors()
	case SourceParameters:
		return model.Parameters()
	case SourceColumns:
		return model.Columns()
	}
	return nil
}

// validatePartition checks that every FIPNUM maps to exactly one
// (REGION, ZONE) pair. Models without the region columns are accepted.
func validatePartition(model VolumeModel, policy RegionPolicy) error {
	columns := model.Columns()
	for _, column := range []string{policy.FIPNUM, policy.Region, policy.Zone} {
		if !slices.Contains(columns, column) {
			return nil
		}
	}
	for _, fipnum := range model.Distinct(policy.FIPNUM) {
		where := map[string][]string{policy.FIPNUM: {fipnum}}
		regions := model.DistinctWhere(policy.Region, where)
		zones := model.DistinctWhere(policy.Zone, where)
		if len(regions) != 1 || len(zones) != 1 {
			return fmt.Errorf("%w: %s %s maps to %s %v and %s %v",
				ErrInconsistentPartition, policy.FIPNUM, fipnum, policy.Region, regions, policy.Zone, zones)
		}
	}
	return nil
}
