// Package latex converts LaTeX math fragments to a best-effort plain
// Unicode rendering. It is not a parser: the output is meant for contexts
// that cannot carry styled math, such as the selectable text layer of a
// sandwich PDF. Unknown commands are kept verbatim so no content is lost.
package latex

import (
	"regexp"
	"strings"
)

var (
	delimRe   = regexp.MustCompile(`^\s*(?:\\\(|\\\[|\$\$?)\s*|\s*(?:\\\)|\\\]|\$\$?)\s*$`)
	wrapperRe = regexp.MustCompile(`\\(?:mathrm|mathbf|mathit|mathbb|mathcal|mathsf|mathtt|mathfrak|text|textbf|textit|textrm|operatorname|boldsymbol|bm|hat|bar|vec|tilde|overline|underline)\{([^{}]*)\}`)
	fracRe    = regexp.MustCompile(`\\[dt]?frac\{([^{}]*)\}\{([^{}]*)\}`)
	sqrtRe    = regexp.MustCompile(`\\sqrt(?:\[[^\[\]]*\])?\{([^{}]*)\}`)
	supRe     = regexp.MustCompile(`\^(?:\{([^{}]*)\}|([^\s{}]))`)
	subRe     = regexp.MustCompile(`_(?:\{([^{}]*)\}|([^\s{}]))`)
	commandRe = regexp.MustCompile(`\\[a-zA-Z]+`)
	spacingRe = regexp.MustCompile(`\\[,;:!]|\\(?:quad|qquad)\b|\\(?:left|right)\b`)
	wsRe      = regexp.MustCompile(`[ \t]+`)
)

// superscripts maps characters with a Unicode superscript form. Superscript
// runs with any unmapped character are linearized instead (caret dropped,
// content kept).
var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽', ')': '⁾',
	'n': 'ⁿ', 'i': 'ⁱ',
	'∘': '°', // ^{\circ} reads as a degree sign
}

// symbols maps whole LaTeX commands to Unicode. Matching is done on the
// full \name token, so \circ never swallows the prefix of a longer command.
var symbols = map[string]string{
	// Greek lowercase
	`\alpha`: "α", `\beta`: "β", `\gamma`: "γ", `\delta`: "δ",
	`\epsilon`: "ε", `\varepsilon`: "ε", `\zeta`: "ζ", `\eta`: "η",
	`\theta`: "θ", `\vartheta`: "ϑ", `\iota`: "ι", `\kappa`: "κ",
	`\lambda`: "λ", `\mu`: "μ", `\nu`: "ν", `\xi`: "ξ",
	`\pi`: "π", `\rho`: "ρ", `\sigma`: "σ", `\varsigma`: "ς",
	`\tau`: "τ", `\upsilon`: "υ", `\phi`: "φ", `\varphi`: "φ",
	`\chi`: "χ", `\psi`: "ψ", `\omega`: "ω",
	// Greek uppercase
	`\Gamma`: "Γ", `\Delta`: "Δ", `\Theta`: "Θ", `\Lambda`: "Λ",
	`\Xi`: "Ξ", `\Pi`: "Π", `\Sigma`: "Σ", `\Upsilon`: "Υ",
	`\Phi`: "Φ", `\Psi`: "Ψ", `\Omega`: "Ω",
	// Relations
	`\leq`: "≤", `\le`: "≤", `\geq`: "≥", `\ge`: "≥",
	`\neq`: "≠", `\ne`: "≠", `\approx`: "≈", `\sim`: "∼",
	`\simeq`: "≃", `\equiv`: "≡", `\propto`: "∝", `\ll`: "≪", `\gg`: "≫",
	// Operators
	`\times`: "×", `\div`: "÷", `\pm`: "±", `\mp`: "∓",
	`\cdot`: "⋅", `\ast`: "∗", `\star`: "⋆", `\circ`: "∘",
	`\bullet`: "•", `\oplus`: "⊕", `\otimes`: "⊗",
	// Sets and logic
	`\in`: "∈", `\notin`: "∉", `\subset`: "⊂", `\supset`: "⊃",
	`\subseteq`: "⊆", `\supseteq`: "⊇", `\cup`: "∪", `\cap`: "∩",
	`\emptyset`: "∅", `\varnothing`: "∅", `\setminus`: "∖",
	`\forall`: "∀", `\exists`: "∃", `\neg`: "¬", `\land`: "∧", `\lor`: "∨",
	// Calculus
	`\partial`: "∂", `\nabla`: "∇", `\infty`: "∞",
	`\sum`: "∑", `\prod`: "∏", `\int`: "∫", `\oint`: "∮",
	// Arrows
	`\to`: "→", `\rightarrow`: "→", `\leftarrow`: "←", `\gets`: "←",
	`\Rightarrow`: "⇒", `\Leftarrow`: "⇐", `\leftrightarrow`: "↔",
	`\Leftrightarrow`: "⇔", `\uparrow`: "↑", `\downarrow`: "↓",
	`\mapsto`: "↦", `\implies`: "⇒", `\iff`: "⇔",
	// Misc
	`\degree`: "°", `\prime`: "′", `\ldots`: "…", `\cdots`: "⋯",
	`\dots`: "…", `\angle`: "∠", `\perp`: "⊥", `\parallel`: "∥",
	`\hbar`: "ℏ", `\ell`: "ℓ", `\Re`: "ℜ", `\Im`: "ℑ",
	`\coloneqq`: ":=", `\eqqcolon`: "=:",
}

// Convert rewrites a LaTeX fragment into plain Unicode text. The transform
// is idempotent on inputs that contain no further convertible commands:
// plain prose comes back unchanged apart from whitespace collapsing.
func Convert(input string) string {
	s := delimRe.ReplaceAllString(input, "")

	// Unwrap formatting commands, innermost first.
	for {
		next := wrapperRe.ReplaceAllString(s, "$1")
		if next == s {
			break
		}
		s = next
	}

	s = spacingRe.ReplaceAllString(s, " ")

	// One level only. Nested fractions keep their inner markup verbatim.
	s = fracRe.ReplaceAllString(s, "($1)/($2)")
	s = sqrtRe.ReplaceAllString(s, "√($1)")

	// Named symbols before scripts so ^{\circ} sees the ∘ it maps to °.
	s = commandRe.ReplaceAllStringFunc(s, func(cmd string) string {
		if repl, ok := symbols[cmd]; ok {
			return repl
		}
		return cmd
	})

	s = supRe.ReplaceAllStringFunc(s, func(m string) string {
		return superscript(scriptBody(supRe, m))
	})
	s = subRe.ReplaceAllStringFunc(s, func(m string) string {
		// No usable subscript glyph range: linearize.
		return scriptBody(subRe, m)
	})

	s = wsRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func scriptBody(re *regexp.Regexp, match string) string {
	groups := re.FindStringSubmatch(match)
	if groups == nil {
		return match
	}
	if groups[1] != "" {
		return groups[1]
	}
	return groups[2]
}

// superscript maps body to Unicode superscript glyphs when every rune has
// one; otherwise it returns body unchanged (linearized, caret dropped).
func superscript(body string) string {
	var out strings.Builder
	for _, r := range body {
		mapped, ok := superscripts[r]
		if !ok {
			return body
		}
		out.WriteRune(mapped)
	}
	return out.String()
}
