package solver

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const dispHeader = "displacements (vx,vy,vz)"

// ParseDAT reads the displacement tables CalculiX writes for *NODE PRINT.
// When several increments are printed, the last table wins.
func ParseDAT(r io.Reader) (*Result, error) {
	sc := bufio.NewScanner(r)

	var (
		res     *Result
		current []Displacement
		inTable bool
		time    float64
		line    int
	)
	flush := func() {
		if inTable && len(current) > 0 {
			res = &Result{Time: time, Displacements: current}
		}
		inTable = false
		current = nil
	}

	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(text, dispHeader) {
			flush()
			inTable = true
			time = headerTime(text)
			continue
		}
		if !inTable {
			continue
		}
		if text == "" {
			if len(current) > 0 {
				flush()
			}
			continue
		}
		f := strings.Fields(text)
		if len(f) != 4 {
			flush()
			continue
		}
		id, err := strconv.Atoi(f[0])
		if err != nil {
			flush()
			continue
		}
		d := Displacement{Node: id}
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(fortranFloat(f[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("dat: line %d: bad value %q", line, f[i+1])
			}
			d.U[i] = v
		}
		current = append(current, d)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	if res == nil || len(res.Displacements) == 0 {
		return nil, ErrNoResults
	}
	return res, nil
}

func headerTime(s string) float64 {
	i := strings.LastIndex(s, "time")
	if i < 0 {
		return 0
	}
	t, err := strconv.ParseFloat(fortranFloat(strings.TrimSpace(s[i+len("time"):])), 64)
	if err != nil {
		return 0
	}
	return t
}

// fortranFloat accepts exponents written with D, as some builds emit.
func fortranFloat(s string) string {
	return strings.NewReplacer("D", "E", "d", "e").Replace(s)
}
