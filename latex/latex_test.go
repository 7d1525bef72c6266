package latex

import "testing"

func TestConvert(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"degrees celsius", `\(100^{\circ}\mathrm{C}\)`, "100°C"},
		{"display delimiters", `\[E = mc^{2}\]`, "E = mc²"},
		{"dollar delimiters", `$x \leq y$`, "x ≤ y"},
		{"subscript linearized", `x_{1} + x_{2}`, "x1 + x2"},
		{"bare subscript", `a_i`, "ai"},
		{"superscript digits", `10^{-3}`, "10⁻³"},
		{"superscript n", `x^{n}`, "xⁿ"},
		{"unmapped superscript linearized", `x^{a}`, "xa"},
		{"fraction", `\frac{a+b}{c}`, "(a+b)/(c)"},
		{"sqrt", `\sqrt{x+1}`, "√(x+1)"},
		{"sqrt with index", `\sqrt[3]{x}`, "√(x)"},
		{"greek", `\alpha + \beta = \gamma`, "α + β = γ"},
		{"arrow", `A \to B`, "A → B"},
		{"wrapped text", `\text{speed} = \mathbf{v}`, "speed = v"},
		{"circ not circle prefix", `\circ`, "∘"},
		{"unknown command kept", `\foobar{x}`, `\foobar{x}`},
		{"colon equals", `x \coloneqq y`, "x := y"},
		{"plain prose untouched", "ordinary sentence.", "ordinary sentence."},
		{"whitespace collapsed", "a   b\t c", "a b c"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Convert(tc.in); got != tc.want {
				t.Errorf("Convert(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestConvertIdempotent(t *testing.T) {
	inputs := []string{
		`\(100^{\circ}\mathrm{C}\)`,
		`\frac{a}{b} + \sqrt{c}`,
		`x_{1}^{2} \leq \infty`,
		"plain text stays plain",
	}
	for _, in := range inputs {
		once := Convert(in)
		twice := Convert(once)
		if once != twice {
			t.Errorf("not idempotent: Convert(%q) = %q, Convert again = %q", in, once, twice)
		}
	}
}
