package highlights

// Wire values of the highlight edit action
const (
	ActionKeepOnlyHighlights = "keep_only_highlights"
	TransitionFade           = "fade"
	FilterDramatic           = "dramatic"
)

// Range is a [Start, End] interval of the source timeline, in seconds
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start
func (r Range) Duration() float64 {
	return r.End - r.Start
}

// TotalDuration sums the length of ranges
func TotalDuration(ranges []Range) float64 {
	var total float64
	for _, r := range ranges {
		total += r.Duration()
	}
	return total
}

// Action is an edit instruction consumed by the editor:
//
//	{"action": "keep_only_highlights",
//	 "parameters": {"ranges": [{"start": 9.5, "end": 15}], "transition": "fade", "filter": "dramatic"}}
type Action struct {
	Action     string           `json:"action"`
	Parameters ActionParameters `json:"parameters"`
}

// ActionParameters carries the ranges to keep and how to join them
type ActionParameters struct {
	Ranges     []Range `json:"ranges"`
	Transition string  `json:"transition"`
	Filter     string  `json:"filter"`
}

// KeepOnly builds a keep_only_highlights action for ranges
func KeepOnly(ranges []Range) Action {
	if ranges == nil {
		ranges = []Range{}
	}
	return Action{
		Action: ActionKeepOnlyHighlights,
		Parameters: ActionParameters{
			Ranges:     ranges,
			Transition: TransitionFade,
			Filter:     FilterDramatic,
		},
	}
}
