package bridge

// FlowPolicy selects which direction(s) may enter the bridge; it is
// independent of the scheduling policy, which only orders cars within a
// side's queue.
type FlowPolicy int

const (
	FIFO FlowPolicy = iota
	Equity
	Signal
)

func (f FlowPolicy) String() string {
	switch f {
	case FIFO:
		return "FIFO"
	case Equity:
		return "EQUITY"
	case Signal:
		return "SIGNAL"
	default:
		return "UNKNOWN"
	}
}

func ParseFlowPolicy(s string) (FlowPolicy, error) {
	switch s {
	case "FIFO":
		return FIFO, nil
	case "EQUITY":
		return Equity, nil
	case "SIGNAL":
		return Signal, nil
	default:
		return 0, ErrUnknownFlowPolicy
	}
}

// eligible implements the three per-policy admission predicates from
// spec §4.5 step 2. isFront reports whether car sits at the head of its
// own side's queue; every policy requires it.
func eligible(flow FlowPolicy, car *Car, isFront bool, state *arbiterState, equityWindow int) bool {
	if !isFront {
		return false
	}
	switch flow {
	case FIFO:
		return true
	case Equity:
		sameDirWithinWindow := car.Direction == state.currentDirection && state.carsInWindow < equityWindow
		currentSideDrained := state.remaining(state.currentDirection) == 0
		return sameDirWithinWindow || currentSideDrained
	case Signal:
		return car.Direction == state.currentDirection
	default:
		return false
	}
}

// canEnter implements the safety predicate from spec §4.5 step 2: the
// bridge is empty, or already occupied exclusively by car's own direction.
func canEnter(dir Direction, state *arbiterState) bool {
	if state.carsOnBridgeLeft == 0 && state.carsOnBridgeRight == 0 {
		return true
	}
	if dir == Left {
		return state.carsOnBridgeLeft > 0 && state.carsOnBridgeRight == 0
	}
	return state.carsOnBridgeRight > 0 && state.carsOnBridgeLeft == 0
}
