package config

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Line grammar of the text format. Values after "experiment" are tried in turn.
const (
	intRx       = `\d+`
	floatRx     = `(?:\d+(?:\.\d*)?|\.\d+)`
	intListRx   = intRx + `(?: ` + intRx + `)*`
	floatListRx = floatRx + `(?: ` + floatRx + `)*`
)

var (
	routeRx = regexp.MustCompile(`^route (?P<id>` + intRx + `) stops (?P<stops>` + intListRx + `)` +
		` buses (?:(?P<buses>` + intRx + `)|experiment (?P<ex_buses>` + intListRx + `))` +
		` capacity (?:(?P<cap>` + intRx + `)|experiment (?P<ex_cap>` + intListRx + `))$`)
	roadRx = regexp.MustCompile(`^road (?P<from>` + intRx + `) (?P<to>` + intRx + `)` +
		` (?:(?P<rate>` + floatRx + `)|experiment (?P<ex_rate>` + floatListRx + `))$`)
	stopTimeRx = regexp.MustCompile(`^stop time (?P<time>` + floatRx + `)$`)
	rateRxs    = map[string]*regexp.Regexp{}
)

func init() {
	var rs RateSpec
	for _, r := range rs.named() {
		rateRxs[r.name] = regexp.MustCompile(`^` + r.name +
			` (?:(?P<rate>` + floatRx + `)|experiment (?P<ex_rate>` + floatListRx + `))$`)
	}
}

// groups returns the named groups of rx in line, or nil when it does not match.
func groups(rx *regexp.Regexp, line string) map[string]string {
	m := rx.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for i, name := range rx.SubexpNames() {
		if name != "" {
			out[name] = m[i]
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	fields := strings.Fields(s)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

// pick returns the single value if present, otherwise the experiment list.
func pick(single, list string) string {
	if single != "" {
		return single
	}
	return list
}

// textParser accumulates a Config line by line.
type textParser struct {
	cfg       Config
	routes    map[int]bool
	roads     map[[2]int]bool
	rates     map[string]bool
	stopTime  bool
	ignoreSet bool
	optimSet  bool
}

// ParseText reads the line-oriented configuration format from r. name is
// used in error messages. Duplicate declarations and unrecognised lines
// are reported as ErrInvalidInput; semantic checks are left to Validate.
func ParseText(r io.Reader, name string) (*Config, error) {
	p := &textParser{
		routes: make(map[int]bool),
		roads:  make(map[[2]int]bool),
		rates:  make(map[string]bool),
	}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := p.parseLine(line); err != nil {
			return nil, fmt.Errorf("%w: line %d of file %s: %w", ErrInvalidInput, lineNo, name, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return &p.cfg, nil
}

func (p *textParser) parseLine(line string) error {
	if g := groups(routeRx, line); g != nil {
		return p.route(g)
	}
	if g := groups(roadRx, line); g != nil {
		return p.road(g)
	}
	for _, nr := range p.cfg.Rates.named() {
		if g := groups(rateRxs[nr.name], line); g != nil {
			if p.rates[nr.name] {
				return fmt.Errorf("rate %s specified twice", nr.name)
			}
			p.rates[nr.name] = true
			vals, err := parseFloats(pick(g["rate"], g["ex_rate"]))
			if err != nil {
				return err
			}
			*nr.values = vals
			return nil
		}
	}
	if g := groups(stopTimeRx, line); g != nil {
		if p.stopTime {
			return fmt.Errorf("stop time specified twice")
		}
		p.stopTime = true
		t, err := strconv.ParseFloat(g["time"], 64)
		if err != nil {
			return err
		}
		p.cfg.StopTime = &t
		return nil
	}
	switch line {
	case "ignore warnings":
		if p.ignoreSet {
			return fmt.Errorf("ignore warnings specified twice")
		}
		p.ignoreSet = true
		p.cfg.IgnoreWarnings = true
		return nil
	case "optimise parameters":
		if p.optimSet {
			return fmt.Errorf("optimise parameters specified twice")
		}
		p.optimSet = true
		p.cfg.Optimise = true
		return nil
	}
	return fmt.Errorf("unrecognised input %q", line)
}

func (p *textParser) route(g map[string]string) error {
	id, err := strconv.Atoi(g["id"])
	if err != nil {
		return err
	}
	if p.routes[id] {
		return fmt.Errorf("route %d specified twice", id)
	}
	p.routes[id] = true

	stops, err := parseInts(g["stops"])
	if err != nil {
		return err
	}
	buses, err := parseInts(pick(g["buses"], g["ex_buses"]))
	if err != nil {
		return err
	}
	capacity, err := parseInts(pick(g["cap"], g["ex_cap"]))
	if err != nil {
		return err
	}
	p.cfg.Routes = append(p.cfg.Routes, RouteSpec{ID: id, Stops: stops, Buses: buses, Capacity: capacity})
	return nil
}

func (p *textParser) road(g map[string]string) error {
	from, err := strconv.Atoi(g["from"])
	if err != nil {
		return err
	}
	to, err := strconv.Atoi(g["to"])
	if err != nil {
		return err
	}
	key := [2]int{from, to}
	if p.roads[key] {
		return fmt.Errorf("road rate %d - %d specified twice", from, to)
	}
	p.roads[key] = true
	rate, err := parseFloats(pick(g["rate"], g["ex_rate"]))
	if err != nil {
		return err
	}
	p.cfg.Roads = append(p.cfg.Roads, RoadSpec{From: from, To: to, Rate: rate})
	return nil
}

// WriteText writes cfg in the text format ParseText accepts.
func WriteText(w io.Writer, cfg *Config) error {
	bw := bufio.NewWriter(w)
	for _, r := range cfg.Routes {
		fmt.Fprintf(bw, "route %d stops %s buses %s capacity %s\n",
			r.ID, joinInts(r.Stops), textValues(r.Buses, strconv.Itoa), textValues(r.Capacity, strconv.Itoa))
	}
	for _, r := range cfg.Roads {
		fmt.Fprintf(bw, "road %d %d %s\n", r.From, r.To, textValues(r.Rate, formatFloat))
	}
	for _, nr := range cfg.Rates.named() {
		if len(*nr.values) > 0 {
			fmt.Fprintf(bw, "%s %s\n", nr.name, textValues(*nr.values, formatFloat))
		}
	}
	if cfg.StopTime != nil {
		fmt.Fprintf(bw, "stop time %s\n", formatFloat(*cfg.StopTime))
	}
	if cfg.IgnoreWarnings {
		fmt.Fprintln(bw, "ignore warnings")
	}
	if cfg.Optimise {
		fmt.Fprintln(bw, "optimise parameters")
	}
	return bw.Flush()
}

// formatFloat renders x so that floatRx accepts it.
func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " ")
}

func textValues[T any](vals []T, format func(T) string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = format(v)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "experiment " + strings.Join(parts, " ")
}
