package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const labelWidth = 18

// printer writes "label  value" rows under optional styled headings.
type printer struct {
	w      io.Writer
	styled bool
}

func newPrinter(w io.Writer, styled bool) *printer {
	return &printer{w: w, styled: styled}
}

func (p *printer) heading(title string) {
	if p.styled {
		title = ansi.Style{}.Bold().Styled(title)
	}
	fmt.Fprintln(p.w, title)
}

func (p *printer) row(label string, format string, args ...any) {
	pad := labelWidth - ansi.StringWidth(label)
	if pad < 1 {
		pad = 1
	}
	fmt.Fprintf(p.w, "  %s%s%s\n", label, strings.Repeat(" ", pad), fmt.Sprintf(format, args...))
}
