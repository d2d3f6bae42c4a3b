package lp

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"math"
	"strconv"
)

// WriteLP renders m in CPLEX-LP syntax. Conditional constraints use the
// indicator form "name: y = 1 -> x >= b".
func (m *Model) WriteLP(w io.Writer) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("\\ Model: ")
	bw.WriteString(m.name)
	bw.WriteByte('\n')
	if m.objective.Constant != 0 {
		bw.WriteString("\\ Objective constant: ")
		bw.WriteString(num(m.objective.Constant))
		bw.WriteByte('\n')
	}

	if m.sense == Maximize {
		bw.WriteString("Maximize\n")
	} else {
		bw.WriteString("Minimize\n")
	}
	bw.WriteString(" obj:")
	m.writeTerms(bw, m.objective.Terms)
	bw.WriteByte('\n')

	bw.WriteString("Subject To\n")
	for i, c := range m.rows {
		bw.WriteByte(' ')
		bw.WriteString(rowName(c.Name, i))
		bw.WriteByte(':')
		if c.Kind == ConditionalLowerBound {
			bw.WriteByte(' ')
			bw.WriteString(m.vars[c.Indicator].Name)
			bw.WriteString(" = 1 -> ")
			bw.WriteString(m.vars[c.Target].Name)
			bw.WriteString(" >= ")
			bw.WriteString(num(c.Bound))
		} else {
			m.writeTerms(bw, c.Expr.Terms)
			bw.WriteByte(' ')
			bw.WriteString(c.Rel.String())
			bw.WriteByte(' ')
			bw.WriteString(num(c.RHS))
		}
		bw.WriteByte('\n')
	}

	bw.WriteString("Bounds\n")
	for _, v := range m.vars {
		if v.Kind == Binary {
			continue
		}
		bw.WriteByte(' ')
		switch {
		case math.IsInf(v.Lower, -1) && math.IsInf(v.Upper, 1):
			bw.WriteString(v.Name)
			bw.WriteString(" free")
		case math.IsInf(v.Upper, 1):
			bw.WriteString(v.Name)
			bw.WriteString(" >= ")
			bw.WriteString(num(v.Lower))
		default:
			bw.WriteString(num(v.Lower))
			bw.WriteString(" <= ")
			bw.WriteString(v.Name)
			bw.WriteString(" <= ")
			bw.WriteString(num(v.Upper))
		}
		bw.WriteByte('\n')
	}

	if bins := m.Binaries(); len(bins) > 0 {
		bw.WriteString("Binaries\n")
		for _, i := range bins {
			bw.WriteByte(' ')
			bw.WriteString(m.vars[i].Name)
			bw.WriteByte('\n')
		}
	}
	bw.WriteString("End\n")

	return bw.Flush()
}

// Fingerprint returns the hex SHA-256 of the LP text.
func (m *Model) Fingerprint() string {
	var buf bytes.Buffer
	_ = m.WriteLP(&buf) // bytes.Buffer writes do not fail
	sum := sha256.Sum256(buf.Bytes())

	return hex.EncodeToString(sum[:])
}

func (m *Model) writeTerms(bw *bufio.Writer, terms []Term) {
	if len(terms) == 0 {
		bw.WriteString(" 0")
		return
	}
	for _, t := range terms {
		if t.Coef < 0 {
			bw.WriteString(" - ")
			bw.WriteString(num(-t.Coef))
		} else {
			bw.WriteString(" + ")
			bw.WriteString(num(t.Coef))
		}
		bw.WriteByte(' ')
		bw.WriteString(m.vars[t.Var].Name)
	}
}

func rowName(name string, i int) string {
	if name != "" {
		return name
	}

	return "c" + strconv.Itoa(i)
}

func num(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}
