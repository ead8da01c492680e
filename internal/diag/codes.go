package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Компиляция
	CompileResourceExhausted Code = 1001
	CompileInvalidTree       Code = 1002

	// Спекуляция
	SpeculationInfo     Code = 2000
	SpeculationDiverged Code = 2001
	SpeculationPersist  Code = 2002

	// Линковка
	LinkResolutionFailure Code = 3001
	LinkMegamorphic       Code = 3002

	InternalError Code = 9000
)

var codeName = map[Code]string{
	UnknownCode:              "UNKNOWN",
	CompileResourceExhausted: "COMPILE_RESOURCE_EXHAUSTED",
	CompileInvalidTree:       "COMPILE_INVALID_TREE",
	SpeculationInfo:          "SPEC_INFO",
	SpeculationDiverged:      "SPEC_DIVERGED",
	SpeculationPersist:       "SPEC_PERSIST",
	LinkResolutionFailure:    "LINK_RESOLUTION_FAILURE",
	LinkMegamorphic:          "LINK_MEGAMORPHIC",
	InternalError:            "INTERNAL_ERROR",
}

var codeDescription = map[Code]string{
	UnknownCode:              "Unknown error",
	CompileResourceExhausted: "Function has more speculative operations than a compile generation can address",
	CompileInvalidTree:       "Tree violates a structural requirement of the compiler",
	SpeculationInfo:          "Speculation failed after an irreversible effect; the store was widened without a restart",
	SpeculationDiverged:      "Invocation did not converge after repeated deoptimization",
	SpeculationPersist:       "Speculation snapshot could not be read or written",
	LinkResolutionFailure:    "No linking strategy can handle the receiver",
	LinkMegamorphic:          "Call site exceeded its chain bound and now resolves on every call",
	InternalError:            "Internal engine error",
}

// ID is the stable short form: C1001, S2001, L3001, E9000.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("C%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("S%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("L%04d", ic)
	}
	return fmt.Sprintf("E%04d", int(c))
}

func (c Code) String() string {
	if name, ok := codeName[c]; ok {
		return name
	}
	return codeName[UnknownCode]
}

// Title is a one-line description for listings.
func (c Code) Title() string {
	if d, ok := codeDescription[c]; ok {
		return d
	}
	return codeDescription[UnknownCode]
}
