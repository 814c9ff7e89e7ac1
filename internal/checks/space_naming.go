package checks

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"

	"github.com/spboyer/ifccheck/internal/ifc"
	"github.com/spboyer/ifccheck/internal/utils"
)

// SpaceNamingRule is the registered name of the space naming rule.
const SpaceNamingRule = "check_spaces"

const (
	spaceRequiredValue   = "Named space"
	spaceMissingName     = "No name"
	spaceMissingComment  = "IfcSpace must have a Name for identification"
	spaceSummaryName     = "Space Name Check"
	spaceSummaryRequired = "All spaces named"
)

// SpaceNamingChecker verifies that every IfcSpace carries a Name.
type SpaceNamingChecker struct{}

var _ ComplianceChecker = (*SpaceNamingChecker)(nil)

func (*SpaceNamingChecker) Name() string { return SpaceNamingRule }

func (*SpaceNamingChecker) Description() string {
	return "Check that all IfcSpace elements have a name"
}

func (*SpaceNamingChecker) Check(model ifc.Model, opts Options) ([]Result, error) {
	return CheckSpaces(model, opts)
}

// CheckSpaces returns one row per IfcSpace, in model order, followed by a
// summary row. opts is accepted for uniformity with other rules and is not
// read.
func CheckSpaces(model ifc.Model, _ Options) ([]Result, error) {
	spaces, err := model.ByType(ifc.TypeSpace)
	if err != nil {
		return nil, fmt.Errorf("listing %s entities: %w", ifc.TypeSpace, err)
	}

	results := make([]Result, 0, len(spaces)+1)
	for _, space := range spaces {
		results = append(results, spaceResult(space))
	}

	unnamed := CountFailed(results)
	results = append(results, Result{
		ElementType:   ElementTypeSummary,
		ElementName:   spaceSummaryName,
		CheckStatus:   StatusOf(unnamed == 0),
		ActualValue:   strconv.Itoa(len(spaces)),
		RequiredValue: spaceSummaryRequired,
		Comment:       utils.Ptr(fmt.Sprintf("Found %d space(s); %d unnamed", len(spaces), unnamed)),
	})

	slog.Debug("Space naming check finished", "spaces", len(spaces), "unnamed", unnamed)
	return results, nil
}

func spaceResult(space *ifc.Entity) Result {
	name, hasName := spaceName(space)

	r := Result{
		ElementID:     utils.Ptr(space.GlobalID),
		ElementType:   ifc.TypeSpace,
		ElementName:   name,
		CheckStatus:   StatusOf(hasName),
		ActualValue:   name,
		RequiredValue: spaceRequiredValue,
	}
	if longName, ok := space.StringAttr(ifc.AttrLongName); ok {
		r.ElementNameLong = utils.Ptr(longName)
	}
	if !hasName {
		r.ElementName = "Space #" + strconv.Itoa(space.ID)
		r.ActualValue = spaceMissingName
		r.Comment = utils.Ptr(spaceMissingComment)
	}

	utils.DebugResult(space.Label(), string(r.CheckStatus), r.ElementNameLong, r.Comment)
	return r
}

// spaceName returns the display form of a space's Name and whether it counts
// as a name. Missing, unset, false, numeric zero, "" and empty lists do not;
// any other value is rendered with fmt.Sprint.
func spaceName(space *ifc.Entity) (string, bool) {
	if s, ok := space.StringAttr(ifc.AttrName); ok {
		return s, s != ""
	}
	v, ok := space.Attr(ifc.AttrName)
	if !ok || v == nil {
		return "", false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if rv.IsZero() {
			return "", false
		}
	case reflect.String, reflect.Slice, reflect.Map:
		if rv.Len() == 0 {
			return "", false
		}
	}
	return fmt.Sprint(v), true
}
