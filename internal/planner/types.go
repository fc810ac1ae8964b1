package planner

// Plan is the fully synthesized ffmpeg invocation for one file. It is built
// before anything runs and owned by a single orchestrator iteration.
type Plan struct {
	Input       string
	Args        []string // Everything between the input and -vf, in order.
	FilterChain string   // Comma-joined; empty means no -vf.
	Output      string   // Temporary output path.
}

// Argv returns the complete ffmpeg argument list (without the binary).
func (p *Plan) Argv() []string {
	argv := make([]string, 0, len(p.Args)+5)
	argv = append(argv, "-i", p.Input)
	argv = append(argv, p.Args...)
	if p.FilterChain != "" {
		argv = append(argv, "-vf", p.FilterChain)
	}
	return append(argv, p.Output)
}

// Decision is the classifier's verdict on one file. Reasons is empty when
// Compliant is true.
type Decision struct {
	Compliant bool
	Reasons   []string
}

// Reason returns the first reason, or "" for a compliant file.
func (d Decision) Reason() string {
	if len(d.Reasons) == 0 {
		return ""
	}
	return d.Reasons[0]
}
