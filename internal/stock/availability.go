package stock

// Mode selects which capacity a requested quantity is checked against.
type Mode string

const (
	ModeAvailable Mode = "available"
	ModePreorder  Mode = "preorder_capacity"
)

type Availability struct {
	OnHand   int64
	Reserved int64
	Incoming int64
}

func (a Availability) Available() int64 { return a.OnHand - a.Reserved }

func (a Availability) PreorderCapacity() int64 { return a.OnHand + a.Incoming }

func (a Availability) Limit(m Mode) int64 {
	if m == ModePreorder {
		return a.PreorderCapacity()
	}
	return a.Available()
}

// Allows reports whether requested fits the capacity for mode, together with
// the capacity it was compared to.
func (a Availability) Allows(m Mode, requested int64) (limit int64, ok bool) {
	limit = a.Limit(m)
	return limit, requested <= limit
}
