package collect

// Family is a kind of simulation output file. Each family has its own
// filename prefix and grouping rule.
type Family int

const (
	// Pov files are per-receiver outputs named qcmPov.<type><id>.json.
	Pov Family = iota
	// Trace files are per tx/rx pair outputs named qcmTrace.<tx>-<rx>.json.
	Trace
)

// Families lists every family in processing order.
var Families = []Family{Pov, Trace}

func (f Family) String() string {
	switch f {
	case Pov:
		return "pov"
	case Trace:
		return "trace"
	}
	return "unknown"
}

// Prefix returns the fixed filename prefix of the family.
func (f Family) Prefix() string {
	switch f {
	case Pov:
		return "qcmPov"
	case Trace:
		return "qcmTrace"
	}
	return ""
}

// Pattern returns the glob that matches input and output files of the family.
func (f Family) Pattern() string {
	return f.Prefix() + ".*.json"
}

// Parse extracts the group key and member id from a base filename.
func (f Family) Parse(name string) (Entry, error) {
	if f == Trace {
		return ParseTrace(name)
	}
	return ParsePov(name)
}

// Key identifies one merged output file.
type Key struct {
	Family Family
	Group  string
}

// Filename is the merged output name, <prefix>.<group>.json.
func (k Key) Filename() string {
	return k.Family.Prefix() + "." + k.Group + ".json"
}

func (k Key) String() string {
	return k.Family.String() + ":" + k.Group
}

// Entry places a single input file in the aggregate.
type Entry struct {
	Key    Key
	Member string
}
