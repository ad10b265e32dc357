package diagram

import (
	"fmt"
	"strings"

	"github.com/alexiusacademia/gosxcu/internal/circuit"
)

const boxWidth = 22

// DrawFlowsheet renders the stage profile as a row of mixer-settler boxes with the
// aqueous stream entering from the left and the organic stream shown under each stage.
func DrawFlowsheet(p *circuit.Profile) string {
	var sb strings.Builder

	sb.WriteString("\n")
	header := fmt.Sprintf("CIRCUIT %s at %.3f v/v%%", p.Topology, p.VV)
	sb.WriteString("  " + header + "\n")
	sb.WriteString("  " + strings.Repeat("─", runeLen(header)) + "\n\n")

	top := make([]string, 0, len(p.Stages))
	mid := make([]string, 0, len(p.Stages))
	eff := make([]string, 0, len(p.Stages))
	bot := make([]string, 0, len(p.Stages))
	for _, s := range p.Stages {
		top = append(top, "┌"+strings.Repeat("─", boxWidth)+"┐")
		mid = append(mid, fmt.Sprintf("│ %-*s│", boxWidth-1, s.Name+" O/A "+fmt.Sprintf("%.3f", s.OARatio)))
		eff = append(eff, fmt.Sprintf("│ %-*s│", boxWidth-1, fmt.Sprintf("eff %.1f%%", s.Efficiency)))
		bot = append(bot, "└"+strings.Repeat("─", boxWidth)+"┘")
	}
	sb.WriteString("    " + strings.Join(top, "   ") + "\n")
	sb.WriteString("    " + strings.Join(mid, "   ") + "\n")
	sb.WriteString("    " + strings.Join(eff, "   ") + "\n")
	sb.WriteString("    " + strings.Join(bot, "   ") + "\n\n")

	for _, s := range p.Stages {
		sb.WriteString(fmt.Sprintf("  %-3s aq  %8.4f ──▶ %8.4f g/L   (eq %.4f, acid %.3f ──▶ %.3f)\n",
			s.Name, s.AqueousIn, s.AqueousOut, s.Equilibrium, s.AcidIn, s.AcidOut))
		sb.WriteString(fmt.Sprintf("      org %8.4f ──▶ %8.4f g/L\n", s.OrganicIn, s.OrganicOut))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Loaded organic    %.4f g/L  ◄─ leaves extraction\n", p.LoadedOrganic))
	sb.WriteString(fmt.Sprintf("  Barren organic    %.4f g/L  ◄─ needed by extraction\n", p.BarrenOrganic))
	sb.WriteString(fmt.Sprintf("  Stripped organic  %.4f g/L  ◄─ returned by stripping\n", p.StrippedOrganic))
	sb.WriteString(fmt.Sprintf("  Closure           %+.6f g/L\n", p.Closure()))
	if p.Degenerate {
		sb.WriteString("  ! stripping balance degenerate, O/A fixed at 1\n")
	}
	return sb.String()
}

// LoadingLevels are the organic copper levels compared in DrawLoadingBars, all in g/L.
type LoadingLevels struct {
	AML      float64
	ML       float64
	Loaded   float64
	Barren   float64
	Stripped float64
}

// DrawLoadingBars draws each organic copper level as a horizontal bar scaled to AML.
func DrawLoadingBars(l LoadingLevels) string {
	var sb strings.Builder
	width := 40

	sb.WriteString("\n")
	sb.WriteString("  ORGANIC COPPER LEVELS\n")
	sb.WriteString("  ─────────────────────\n\n")

	scale := 0.0
	if l.AML > 0 {
		scale = float64(width) / l.AML
	}
	rows := []struct {
		label string
		value float64
	}{
		{"AML", l.AML},
		{"ML", l.ML},
		{"Loaded", l.Loaded},
		{"Barren", l.Barren},
		{"Stripped", l.Stripped},
	}
	for _, r := range rows {
		n := int(r.value * scale)
		if n < 0 {
			n = 0
		}
		if n > width {
			n = width
		}
		sb.WriteString(fmt.Sprintf("  %-9s│%s%s %.4f\n", r.label, strings.Repeat("█", n), strings.Repeat(" ", width-n), r.value))
	}
	if l.AML > 0 {
		sb.WriteString(fmt.Sprintf("\n  saturation of AML: %.1f%%\n", l.Loaded/l.AML*100))
	}
	return sb.String()
}

// DrawSummaryBox frames a title and lines in a double-line box.
func DrawSummaryBox(title string, lines []string) string {
	var sb strings.Builder

	inner := runeLen(title)
	for _, line := range lines {
		inner = max(inner, runeLen(line))
	}
	inner += 4

	border := strings.Repeat("═", inner)
	sb.WriteString(fmt.Sprintf("  ╔%s╗\n", border))
	sb.WriteString(fmt.Sprintf("  ║  %s  ║\n", pad(title, inner-4)))
	sb.WriteString(fmt.Sprintf("  ╠%s╣\n", border))
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("  ║  %s  ║\n", pad(line, inner-4)))
	}
	sb.WriteString(fmt.Sprintf("  ╚%s╝\n", border))
	return sb.String()
}

func runeLen(s string) int { return len([]rune(s)) }

// pad right-pads by runes; %-*s counts bytes and misaligns ³ and friends.
func pad(s string, n int) string {
	if d := n - runeLen(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}
