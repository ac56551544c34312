package tex

import (
	"fmt"
	"strings"

	"go.abhg.dev/bookhilite/internal/style"
)

// StyleDefs returns the LaTeX macro definitions needed to render the
// formatter's output: the \<prefix> dispatch machinery, one
// \<prefix>@tok@name definition per styled category, and the Zxx
// escape characters. Paste it into the document preamble; full
// documents include it automatically.
func (f *Formatter) StyleDefs() string {
	cp := f.opts.CommandPrefix
	var sb strings.Builder

	// The class-list dispatcher. \<prefix> takes the "+"-separated
	// classes and the text; each known class installs its piece of
	// the style, unknown classes are ignored.
	sb.WriteString("\\makeatletter\n")
	fmt.Fprintf(&sb, "\\def\\%[1]s@reset{\\let\\%[1]s@it=\\relax \\let\\%[1]s@bf=\\relax%%\n", cp)
	fmt.Fprintf(&sb, "    \\let\\%[1]s@ul=\\relax \\let\\%[1]s@tc=\\relax%%\n", cp)
	fmt.Fprintf(&sb, "    \\let\\%[1]s@bc=\\relax \\let\\%[1]s@ff=\\relax}\n", cp)
	fmt.Fprintf(&sb, "\\def\\%[1]s@tok#1{\\csname %[1]s@tok@#1\\endcsname}\n", cp)
	fmt.Fprintf(&sb, "\\def\\%[1]s@toks#1+{\\ifx\\relax#1\\empty\\else%%\n", cp)
	fmt.Fprintf(&sb, "    \\%[1]s@tok{#1}\\expandafter\\%[1]s@toks\\fi}\n", cp)
	fmt.Fprintf(&sb, "\\def\\%[1]s@do#1{\\%[1]s@bc{\\%[1]s@tc{\\%[1]s@ul{%%\n", cp)
	fmt.Fprintf(&sb, "    \\%[1]s@it{\\%[1]s@bf{\\%[1]s@ff{#1}}}}}}}\n", cp)
	fmt.Fprintf(&sb, "\\def\\%[1]s#1#2{\\%[1]s@reset\\%[1]s@toks#1+\\relax+\\%[1]s@do{#2}}\n", cp)
	sb.WriteString("\n")

	seen := make(map[string]bool)
	for _, ent := range f.style.Entries() {
		name := ent.Cat.Short()
		def := cmdDef(cp, ent.Entry)
		if name == "" || def == "" || seen[name] {
			continue
		}
		seen[name] = true
		fmt.Fprintf(&sb, "\\expandafter\\def\\csname %s@tok@%s\\endcsname{%s}\n",
			cp, name, def)
	}
	sb.WriteString("\n")

	for _, e := range []struct{ macro, ch string }{
		{"Zbs", `\\`},
		{"Zus", `\_`},
		{"Zob", `\{`},
		{"Zcb", `\}`},
		{"Zca", `\^`},
		{"Zam", `\&`},
		{"Zlt", `\<`},
		{"Zgt", `\>`},
		{"Zsh", `\#`},
		{"Zpc", `\%`},
		{"Zdl", `\$`},
		{"Zhy", `\-`},
		{"Zsq", `\'`},
		{"Zdq", `\"`},
		{"Zti", `\~`},
	} {
		fmt.Fprintf(&sb, "\\def\\%s%s{\\char`%s}\n", cp, e.macro, e.ch)
	}
	fmt.Fprintf(&sb, "\\def\\%sZat{@}\n", cp)
	fmt.Fprintf(&sb, "\\def\\%sZlb{[}\n", cp)
	fmt.Fprintf(&sb, "\\def\\%sZrb{]}\n", cp)
	sb.WriteString("\\makeatother\n")

	return sb.String()
}

// cmdDef builds the body of one \<prefix>@tok@name macro, or "" when
// the entry carries no renderable attribute.
func cmdDef(cp string, e style.Entry) string {
	var sb strings.Builder
	if e.Bold {
		fmt.Fprintf(&sb, `\let\%s@bf=\textbf`, cp)
	}
	if e.Italic {
		fmt.Fprintf(&sb, `\let\%s@it=\textit`, cp)
	}
	if e.Underline {
		fmt.Fprintf(&sb, `\let\%s@ul=\underline`, cp)
	}
	if e.Color != nil {
		fmt.Fprintf(&sb, `\def\%s@tc##1{\textcolor[rgb]{%s}{##1}}`,
			cp, texRGB(e.Color))
	}
	switch {
	case e.Border != nil:
		fmt.Fprintf(&sb, `\def\%s@bc##1{\setlength{\fboxsep}{0pt}\fcolorbox[rgb]{%s}{%s}{\strut ##1}}`,
			cp, texRGB(e.Border), texRGB(e.Background))
	case e.Background != nil:
		fmt.Fprintf(&sb, `\def\%s@bc##1{\setlength{\fboxsep}{0pt}\colorbox[rgb]{%s}{\strut ##1}}`,
			cp, texRGB(e.Background))
	}
	return sb.String()
}

func texRGB(c *style.RGB) string {
	if c == nil {
		return "1,1,1"
	}
	return fmt.Sprintf("%.2f,%.2f,%.2f",
		float64(c.R)/255, float64(c.G)/255, float64(c.B)/255)
}
