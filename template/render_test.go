package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/minilink/buildcfg"
	"github.com/byte4ever/minilink/template"
)

// snap builds a snapshot from an attribute map.
func snap(attrs map[string]buildcfg.Value) *buildcfg.Snapshot {
	return buildcfg.NewSnapshot(attrs)
}

func TestRender_no_directives_is_identity(t *testing.T) {
	t.Parallel()

	src := "SECTIONS {\n\t.text : { *(.text) }\n}\n"

	got, err := template.Render(src, snap(nil))

	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestRender_empty_template(t *testing.T) {
	t.Parallel()

	got, err := template.Render("", snap(nil))

	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestRender_contains_true_includes_branch(t *testing.T) {
	t.Parallel()

	got, err := template.Render(
		`A{% if contains(cfg.feature, "x") %}B{% endif %}C`,
		snap(map[string]buildcfg.Value{
			"feature": buildcfg.Set("x"),
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, "ABC", got)
}

func TestRender_contains_false_excludes_branch(t *testing.T) {
	t.Parallel()

	got, err := template.Render(
		`A{% if contains(cfg.feature, "x") %}B{% endif %}C`,
		snap(map[string]buildcfg.Value{
			"feature": buildcfg.Set(),
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, "AC", got)
}

func TestRender_else_branch_taken_when_false(t *testing.T) {
	t.Parallel()

	got, err := template.Render(
		`{% if contains(cfg.feature, "x") %}B{% else %}D{% endif %}`,
		snap(map[string]buildcfg.Value{
			"feature": buildcfg.Set(),
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, "D", got)
}

func TestRender_else_branch_skipped_when_true(t *testing.T) {
	t.Parallel()

	got, err := template.Render(
		`{% if contains(cfg.feature, "x") %}B{% else %}D{% endif %}`,
		snap(map[string]buildcfg.Value{
			"feature": buildcfg.Set("x"),
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, "B", got)
}

func TestRender_elif_chain_first_true_wins(t *testing.T) {
	t.Parallel()

	src := `{% if equals(cfg.arch, "arm") %}A` +
		`{% elif equals(cfg.arch, "riscv32") %}R` +
		`{% elif equals(cfg.arch, "riscv32") %}DUP` +
		`{% else %}X{% endif %}`

	got, err := template.Render(src, snap(
		map[string]buildcfg.Value{
			"arch": buildcfg.String("riscv32"),
		},
	))

	require.NoError(t, err)
	assert.Equal(t, "R", got)
}

func TestRender_elif_chain_falls_to_else(t *testing.T) {
	t.Parallel()

	src := `{% if equals(cfg.arch, "arm") %}A` +
		`{% elif equals(cfg.arch, "xtensa") %}X` +
		`{% else %}other{% endif %}`

	got, err := template.Render(src, snap(
		map[string]buildcfg.Value{
			"arch": buildcfg.String("riscv32"),
		},
	))

	require.NoError(t, err)
	assert.Equal(t, "other", got)
}

func TestRender_no_branch_no_else_emits_nothing(t *testing.T) {
	t.Parallel()

	got, err := template.Render(
		`A{% if equals(cfg.arch, "arm") %}B{% endif %}C`,
		snap(map[string]buildcfg.Value{
			"arch": buildcfg.String("riscv32"),
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, "AC", got)
}

func TestRender_nested_conditionals(t *testing.T) {
	t.Parallel()

	src := `{% if contains(cfg.feature, "outer") %}` +
		`O{% if contains(cfg.feature, "inner") %}I{% endif %}` +
		`{% endif %}`

	got, err := template.Render(src, snap(
		map[string]buildcfg.Value{
			"feature": buildcfg.Set("outer", "inner"),
		},
	))

	require.NoError(t, err)
	assert.Equal(t, "OI", got)

	got, err = template.Render(src, snap(
		map[string]buildcfg.Value{
			"feature": buildcfg.Set("outer"),
		},
	))

	require.NoError(t, err)
	assert.Equal(t, "O", got)
}

// Skipped branches are never evaluated, so attributes that
// exist only in a dead branch cannot fail the render.
func TestRender_skipped_branch_not_evaluated(t *testing.T) {
	t.Parallel()

	src := `{% if contains(cfg.feature, "x") %}T` +
		`{% else %}{% if contains(cfg.missing, "y") %}Z` +
		`{% endif %}{% endif %}`

	got, err := template.Render(src, snap(
		map[string]buildcfg.Value{
			"feature": buildcfg.Set("x"),
		},
	))

	require.NoError(t, err)
	assert.Equal(t, "T", got)
}

func TestRender_predicates_after_first_true_not_evaluated(
	t *testing.T,
) {
	t.Parallel()

	src := `{% if contains(cfg.feature, "x") %}T` +
		`{% elif contains(cfg.missing, "y") %}E{% endif %}`

	got, err := template.Render(src, snap(
		map[string]buildcfg.Value{
			"feature": buildcfg.Set("x"),
		},
	))

	require.NoError(t, err)
	assert.Equal(t, "T", got)
}

func TestRender_or_short_circuits(t *testing.T) {
	t.Parallel()

	src := `{% if contains(cfg.feature, "x")` +
		` or contains(cfg.missing, "y") %}T{% endif %}`

	got, err := template.Render(src, snap(
		map[string]buildcfg.Value{
			"feature": buildcfg.Set("x"),
		},
	))

	require.NoError(t, err)
	assert.Equal(t, "T", got)
}

func TestRender_and_short_circuits(t *testing.T) {
	t.Parallel()

	src := `{% if contains(cfg.feature, "x")` +
		` and contains(cfg.missing, "y") %}T{% endif %}`

	got, err := template.Render(src, snap(
		map[string]buildcfg.Value{
			"feature": buildcfg.Set(),
		},
	))

	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestRender_boolean_combinators(t *testing.T) {
	t.Parallel()

	res := snap(map[string]buildcfg.Value{
		"feature": buildcfg.Set("alloc", "net"),
		"arch":    buildcfg.String("riscv32"),
	})

	cases := []struct {
		name string
		pred string
		want bool
	}{
		{
			name: "not_false",
			pred: `not contains(cfg.feature, "gpu")`,
			want: true,
		},
		{
			name: "not_binds_tighter_than_and",
			pred: `not contains(cfg.feature, "gpu")` +
				` and contains(cfg.feature, "net")`,
			want: true,
		},
		{
			name: "and_binds_tighter_than_or",
			pred: `contains(cfg.feature, "gpu")` +
				` and contains(cfg.feature, "net")` +
				` or equals(cfg.arch, "riscv32")`,
			want: true,
		},
		{
			name: "parens_override_precedence",
			pred: `contains(cfg.feature, "gpu")` +
				` and (contains(cfg.feature, "net")` +
				` or equals(cfg.arch, "riscv32"))`,
			want: false,
		},
		{
			name: "double_negation",
			pred: `not not contains(cfg.feature, "alloc")`,
			want: true,
		},
		{
			name: "equality_against_scalar_attribute",
			pred: `equals(cfg.arch, cfg.arch)`,
			want: true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			src := "{% if " + tc.pred + " %}Y{% endif %}"

			got, err := template.Render(src, res)

			require.NoError(t, err)

			want := ""
			if tc.want {
				want = "Y"
			}

			assert.Equal(t, want, got)
		})
	}
}

func TestRender_interpolates_scalar_attribute(t *testing.T) {
	t.Parallel()

	got, err := template.Render(
		"RAM_LENGTH = {{ cfg.ram_length }};\n",
		snap(map[string]buildcfg.Value{
			"ram_length": buildcfg.String("64K"),
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, "RAM_LENGTH = 64K;\n", got)
}

func TestRender_interpolation_inside_skipped_branch(
	t *testing.T,
) {
	t.Parallel()

	src := `{% if contains(cfg.feature, "x") %}` +
		`{{ cfg.missing }}{% endif %}ok`

	got, err := template.Render(src, snap(
		map[string]buildcfg.Value{
			"feature": buildcfg.Set(),
		},
	))

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestRender_preserves_surrounding_whitespace(t *testing.T) {
	t.Parallel()

	src := "line1\n\t {% if contains(cfg.feature, \"x\") %}" +
		"kept\n{% endif %} \nline2\n"

	got, err := template.Render(src, snap(
		map[string]buildcfg.Value{
			"feature": buildcfg.Set("x"),
		},
	))

	require.NoError(t, err)
	assert.Equal(t, "line1\n\t kept\n \nline2\n", got)
}

func TestRender_document_reuse_across_snapshots(t *testing.T) {
	t.Parallel()

	doc, err := template.Parse(
		`{% if contains(cfg.feature, "x") %}yes{% else %}no{% endif %}`,
	)
	require.NoError(t, err)

	withX := snap(map[string]buildcfg.Value{
		"feature": buildcfg.Set("x"),
	})
	without := snap(map[string]buildcfg.Value{
		"feature": buildcfg.Set(),
	})

	got, err := doc.Render(withX)
	require.NoError(t, err)
	assert.Equal(t, "yes", got)

	got, err = doc.Render(without)
	require.NoError(t, err)
	assert.Equal(t, "no", got)
}

func TestRender_is_idempotent(t *testing.T) {
	t.Parallel()

	doc, err := template.Parse(
		"{{ cfg.arch }}:" +
			`{% if contains(cfg.feature, "x") %}B{% endif %}`,
	)
	require.NoError(t, err)

	res := snap(map[string]buildcfg.Value{
		"feature": buildcfg.Set("x"),
		"arch":    buildcfg.String("riscv32"),
	})

	first, err := doc.Render(res)
	require.NoError(t, err)

	second, err := doc.Render(res)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "riscv32:B", first)
}

func TestRender_trim_and_lstrip_blocks(t *testing.T) {
	t.Parallel()

	en := template.Engine{
		TrimBlocks:   true,
		LstripBlocks: true,
	}

	src := "MEMORY {\n" +
		"  {% if contains(cfg.feature, \"alloc\") %}\n" +
		"  RAM : LENGTH = 64K\n" +
		"  {% endif %}\n" +
		"}\n"

	got, err := en.Render(src, snap(
		map[string]buildcfg.Value{
			"feature": buildcfg.Set("alloc"),
		},
	))

	require.NoError(t, err)
	assert.Equal(
		t,
		"MEMORY {\n  RAM : LENGTH = 64K\n}\n",
		got,
	)
}

func TestRender_trim_blocks_inline_tag_unaffected(t *testing.T) {
	t.Parallel()

	en := template.Engine{
		TrimBlocks:   true,
		LstripBlocks: true,
	}

	got, err := en.Render(
		`A{% if contains(cfg.feature, "x") %}B{% endif %}C`,
		snap(map[string]buildcfg.Value{
			"feature": buildcfg.Set("x"),
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, "ABC", got)
}

func TestRender_lstrip_ignores_nonblank_prefix(t *testing.T) {
	t.Parallel()

	en := template.Engine{LstripBlocks: true}

	got, err := en.Render(
		"x  {% if contains(cfg.feature, \"x\") %}B{% endif %}",
		snap(map[string]buildcfg.Value{
			"feature": buildcfg.Set("x"),
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, "x  B", got)
}

func TestRender_quoted_close_marker_in_payload(t *testing.T) {
	t.Parallel()

	got, err := template.Render(
		`{% if contains(cfg.feature, "%}") %}B{% endif %}`,
		snap(map[string]buildcfg.Value{
			"feature": buildcfg.Set("%}"),
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, "B", got)
}

func TestRender_string_escapes_in_literal(t *testing.T) {
	t.Parallel()

	got, err := template.Render(
		`{% if contains(cfg.feature, "a\"b") %}B{% endif %}`,
		snap(map[string]buildcfg.Value{
			"feature": buildcfg.Set(`a"b`),
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, "B", got)
}
